package pipeline

import (
	"bytes"
	"image"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfblur/internal/page"
	"pdfblur/internal/rasterizer"
	"pdfblur/internal/rasterizer/mocks"
)

func synthetic(n int) mocks.SyntheticRenderer {
	sizes := make([]image.Point, n)
	for i := range sizes {
		sizes[i] = image.Pt(200, 283)
	}
	return mocks.SyntheticRenderer{Sizes: sizes}
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	require.NoError(t, err)
	return n
}

func rowsEqual(a, b *image.NRGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i, j := a.PixOffset(r.Min.X, y), b.PixOffset(r.Min.X, y)
		if !bytes.Equal(a.Pix[i:i+r.Dx()*4], b.Pix[j:j+r.Dx()*4]) {
			return false
		}
	}
	return true
}

func TestRun_NoZonesKeepsPageCount(t *testing.T) {
	p := New(synthetic(3), Config{Width: 62, Height: 88, OutputDPI: 72})

	out, err := p.Run(page.SourceDocument{Data: []byte("pdf")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out.PageCount)
	assert.Equal(t, 3, pageCount(t, out.Data))
}

func TestRun_Deterministic(t *testing.T) {
	p := New(synthetic(2), Config{Width: 62, Height: 88, BlurSigma: 3, Workers: 4})
	zones := map[int][]page.Zone{1: {{Page: 1, Left: 10, Top: 10, Right: 40, Bottom: 40}}}
	doc := page.SourceDocument{Data: []byte("pdf")}

	first, err := p.Run(doc, zones)
	require.NoError(t, err)
	second, err := p.Run(doc, zones)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

// Two pages at A4 300 DPI, one zone on page 1 only.
func TestRedact_A4Scenario(t *testing.T) {
	if testing.Short() {
		t.Skip("full-resolution scenario")
	}
	p := New(synthetic(2), Config{Width: 2480, Height: 3508})
	pages, err := p.Rasterize(page.SourceDocument{Data: []byte("pdf")})
	require.NoError(t, err)
	require.Len(t, pages, 2)

	zone := page.Zone{Page: 1, Left: 100, Top: 100, Right: 300, Bottom: 300}
	blurred, err := p.Blur(pages, map[int][]page.Zone{1: {zone}})
	require.NoError(t, err)

	full := pages[0].Pix.Rect
	assert.True(t, rowsEqual(pages[0].Pix, blurred[0].Pix, image.Rect(0, 0, full.Dx(), 100)))
	assert.True(t, rowsEqual(pages[0].Pix, blurred[0].Pix, image.Rect(0, 300, full.Dx(), full.Dy())))
	assert.True(t, rowsEqual(pages[0].Pix, blurred[0].Pix, image.Rect(0, 100, 100, 300)))
	assert.True(t, rowsEqual(pages[0].Pix, blurred[0].Pix, image.Rect(300, 100, full.Dx(), 300)))
	assert.False(t, rowsEqual(pages[0].Pix, blurred[0].Pix, zone.Rect()))
	assert.Equal(t, pages[1].Pix.Pix, blurred[1].Pix.Pix)

	out, err := p.Assemble(blurred)
	require.NoError(t, err)
	assert.Equal(t, 2, out.PageCount)
	assert.Equal(t, 2, pageCount(t, out.Data))
}

func TestRedact_InvalidZone(t *testing.T) {
	p := New(synthetic(1), Config{Width: 20, Height: 20})
	pages, err := p.Rasterize(page.SourceDocument{Data: []byte("pdf")})
	require.NoError(t, err)

	_, err = p.Redact(pages, map[int][]page.Zone{1: {{Page: 1, Left: 5, Top: 0, Right: 2, Bottom: 5}}})
	assert.ErrorIs(t, err, page.ErrInvalidZone)
}

// Output of the reassembler rendered back through MuPDF keeps page count and size.
func TestRoundTrip_MuPDF(t *testing.T) {
	src := New(synthetic(2), Config{Width: 60, Height: 80, OutputDPI: 72})
	first, err := src.Run(page.SourceDocument{Data: []byte("pdf")}, nil)
	require.NoError(t, err)

	p := New(rasterizer.NewMuPDF(), Config{Width: 60, Height: 80, RenderDPI: 72, OutputDPI: 72})
	pages, err := p.Rasterize(page.SourceDocument{Name: "in.pdf", Data: first.Data})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for _, pg := range pages {
		assert.Equal(t, image.Pt(60, 80), pg.Size())
	}

	out, err := p.Redact(pages, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pageCount(t, out.Data))
}
