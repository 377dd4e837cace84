// Package reassembler encodes an ordered sequence of page images into a single PDF.
package reassembler

import (
	"bytes"
	"fmt"
	"image"
	"runtime"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/sync/errgroup"

	"pdfblur/internal/page"
)

const (
	DefaultDPI              = 300
	DefaultCompressionLevel = zlib.DefaultCompression
)

// Assembler writes one PDF page per image. For a fixed configuration the
// output is byte-identical for identical input.
type Assembler struct {
	dpi     float64
	level   int
	workers int
}

type Option func(*Assembler)

// WithDPI sets the resolution used to derive the page size in points.
func WithDPI(dpi float64) Option {
	return func(a *Assembler) {
		if dpi > 0 {
			a.dpi = dpi
		}
	}
}

// WithCompressionLevel sets the zlib level for image streams.
func WithCompressionLevel(level int) Option {
	return func(a *Assembler) {
		if level >= zlib.HuffmanOnly && level <= zlib.BestCompression {
			a.level = level
		}
	}
}

// WithWorkers bounds the number of pages compressed concurrently.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

func New(opts ...Option) *Assembler {
	a := &Assembler{dpi: DefaultDPI, level: DefaultCompressionLevel, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble encodes pages in the given order.
func (a *Assembler) Assemble(pages []page.Image) (page.OutputDocument, error) {
	if len(pages) == 0 {
		return page.OutputDocument{}, page.ErrEmptyInput
	}
	want := pages[0].Size()
	if want.X == 0 || want.Y == 0 {
		return page.OutputDocument{}, &page.InconsistentPageSizeError{Index: 1, Want: want, Got: want}
	}
	for i, p := range pages[1:] {
		if got := p.Size(); got != want {
			return page.OutputDocument{}, &page.InconsistentPageSizeError{Index: i + 2, Want: want, Got: got}
		}
	}

	streams := make([][]byte, len(pages))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i := range pages {
		g.Go(func() error {
			s, err := a.compress(pages[i].Pix)
			if err != nil {
				return fmt.Errorf("compress page %d: %w", i+1, err)
			}
			streams[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return page.OutputDocument{}, err
	}

	w := newPDFWriter()
	w.writeDocument(want.X, want.Y, a.dpi, streams)
	return page.OutputDocument{Data: w.Bytes(), PageCount: len(pages)}, nil
}

// compress flattens img to 8-bit RGB over white and deflates it.
func (a *Assembler) compress(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, a.level)
	if err != nil {
		return nil, err
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	row := make([]byte, w*3)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		src := img.Pix[off : off+w*4]
		for x := 0; x < w; x++ {
			r, g, b, al := src[x*4], src[x*4+1], src[x*4+2], src[x*4+3]
			if al != 255 {
				r, g, b = overWhite(r, al), overWhite(g, al), overWhite(b, al)
			}
			row[x*3], row[x*3+1], row[x*3+2] = r, g, b
		}
		if _, err := zw.Write(row); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func overWhite(c, alpha uint8) uint8 {
	return uint8((uint32(c)*uint32(alpha) + 255*(255-uint32(alpha)) + 127) / 255)
}
