package mocks

import (
	"image"
	"image/color"

	"github.com/stretchr/testify/mock"

	"pdfblur/internal/rasterizer"
)

// MockRenderer is a testify mock of rasterizer.Renderer.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Open(data []byte) (rasterizer.RenderedDocument, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(rasterizer.RenderedDocument), args.Error(1)
}

// SyntheticDocument renders deterministic patterned pages of the given sizes.
// A page listed in Fail returns that error instead.
type SyntheticDocument struct {
	Sizes  []image.Point
	Fail   map[int]error
	Closed bool
}

func (d *SyntheticDocument) NumPage() int { return len(d.Sizes) }

func (d *SyntheticDocument) RenderPage(n int, dpi float64) (image.Image, error) {
	if err, ok := d.Fail[n]; ok {
		return nil, err
	}
	return Pattern(n, d.Sizes[n].X, d.Sizes[n].Y), nil
}

func (d *SyntheticDocument) Close() error {
	d.Closed = true
	return nil
}

// SyntheticRenderer opens every input as a fresh SyntheticDocument.
type SyntheticRenderer struct {
	Sizes []image.Point
}

func (r SyntheticRenderer) Open(data []byte) (rasterizer.RenderedDocument, error) {
	return &SyntheticDocument{Sizes: r.Sizes}, nil
}

// Pattern draws a page whose content differs per page and varies across pixels,
// so blurred regions are always distinguishable from the original.
func Pattern(n, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if ((x/3)+(y/3)+n)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: uint8(x + n*40), B: uint8(y), A: 255})
		}
	}
	return img
}
