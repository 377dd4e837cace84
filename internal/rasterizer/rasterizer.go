// Package rasterizer converts a paged document into page images that all share
// one canonical resolution.
package rasterizer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"pdfblur/internal/page"
)

const DefaultDPI = 300

var ErrInvalidResolution = errors.New("target resolution must be positive")

// Rasterizer renders every page at a fixed DPI and resamples it to the target size.
type Rasterizer struct {
	renderer Renderer
	dpi      float64
	workers  int
}

type Option func(*Rasterizer)

// WithDPI sets the internal rendering resolution.
func WithDPI(dpi float64) Option {
	return func(r *Rasterizer) {
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

// WithWorkers bounds the number of pages rendered concurrently.
func WithWorkers(n int) Option {
	return func(r *Rasterizer) {
		if n > 0 {
			r.workers = n
		}
	}
}

func New(renderer Renderer, opts ...Option) *Rasterizer {
	r := &Rasterizer{
		renderer: renderer,
		dpi:      DefaultDPI,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize returns one image per source page, indexed from 1, each exactly
// width x height. On failure no pages are returned.
func (r *Rasterizer) Rasterize(doc page.SourceDocument, width, height int) ([]page.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, width, height)
	}

	rd, err := r.renderer.Open(doc.Data)
	if err != nil {
		return nil, &page.DecodeError{Err: err}
	}
	defer rd.Close()

	n := rd.NumPage()
	if n <= 0 {
		return nil, page.ErrEmptyDocument
	}

	pages := make([]page.Image, n)
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			src, err := rd.RenderPage(i, r.dpi)
			if err != nil {
				return &page.DecodeError{Page: i + 1, Err: err}
			}
			pages[i] = page.Image{Index: i + 1, Pix: resample(src, width, height)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// resample flattens src onto white and scales it to exactly width x height.
func resample(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), draw.Over, nil)
	return dst
}
