package rasterizer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MuPDF renders PDF pages through MuPDF. Documents are validated with pdfcpu
// first, since MuPDF silently repairs many broken files.
type MuPDF struct {
	conf *model.Configuration
}

// NewMuPDF returns a renderer using pdfcpu's relaxed validation mode.
func NewMuPDF() *MuPDF {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &MuPDF{conf: conf}
}

var _ Renderer = (*MuPDF)(nil)

func (m *MuPDF) Open(data []byte) (RenderedDocument, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if err := api.Validate(bytes.NewReader(data), m.conf); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

// fitzDocument relies on fitz.Document's internal lock for concurrent renders.
type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d *fitzDocument) RenderPage(n int, dpi float64) (image.Image, error) {
	return d.doc.ImageDPI(n, dpi)
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
