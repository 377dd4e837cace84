package reassembler

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfblur/internal/page"
)

func solidPage(index, w, h int, c color.NRGBA) page.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return page.Image{Index: index, Pix: img}
}

func relaxed() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func TestAssemble_Errors(t *testing.T) {
	a := New()

	_, err := a.Assemble(nil)
	assert.ErrorIs(t, err, page.ErrEmptyInput)

	pages := []page.Image{
		solidPage(1, 20, 30, color.NRGBA{A: 255}),
		solidPage(2, 20, 30, color.NRGBA{A: 255}),
		solidPage(3, 30, 20, color.NRGBA{A: 255}),
		solidPage(4, 10, 10, color.NRGBA{A: 255}),
	}
	_, err = a.Assemble(pages)
	assert.ErrorIs(t, err, page.ErrInconsistentPageSize)
	var serr *page.InconsistentPageSizeError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 3, serr.Index)
	assert.Equal(t, image.Pt(20, 30), serr.Want)
	assert.Equal(t, image.Pt(30, 20), serr.Got)
}

func TestAssemble_ValidPDF(t *testing.T) {
	pages := []page.Image{
		solidPage(1, 24, 36, color.NRGBA{R: 255, A: 255}),
		solidPage(2, 24, 36, color.NRGBA{G: 255, A: 255}),
		solidPage(3, 24, 36, color.NRGBA{B: 255, A: 255}),
	}

	doc, err := New(WithDPI(72)).Assemble(pages)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(doc.Data, []byte("%%EOF\n")))
	assert.Contains(t, string(doc.Data), "/MediaBox [0 0 24 36]")

	require.NoError(t, api.Validate(bytes.NewReader(doc.Data), relaxed()))
	n, err := api.PageCount(bytes.NewReader(doc.Data), relaxed())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAssemble_PageSizeFromDPI(t *testing.T) {
	doc, err := New().Assemble([]page.Image{solidPage(1, 2480, 3508, color.NRGBA{A: 255})})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "/MediaBox [0 0 595.2 841.92]")
}

func TestAssemble_Deterministic(t *testing.T) {
	pages := []page.Image{
		solidPage(1, 16, 16, color.NRGBA{R: 10, G: 20, B: 30, A: 255}),
		solidPage(2, 16, 16, color.NRGBA{R: 40, G: 50, B: 60, A: 255}),
	}
	a := New(WithWorkers(2), WithCompressionLevel(9))

	first, err := a.Assemble(pages)
	require.NoError(t, err)
	second, err := a.Assemble(pages)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)

	reversed, err := a.Assemble([]page.Image{pages[1], pages[0]})
	require.NoError(t, err)
	assert.NotEqual(t, first.Data, reversed.Data)
}

func TestCompress_FlattensAlpha(t *testing.T) {
	a := New()
	img := solidPage(1, 2, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 0})
	img.Pix.SetNRGBA(1, 0, color.NRGBA{R: 100, G: 150, B: 200, A: 255})

	data, err := a.compress(img.Pix)
	require.NoError(t, err)

	zr, err := zlib.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	var raw bytes.Buffer
	_, err = raw.ReadFrom(zr)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 255, 100, 150, 200}, raw.Bytes())
}
