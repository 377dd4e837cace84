// Package pipeline sequences rasterization, zone blurring and reassembly for one job.
package pipeline

import (
	"pdfblur/internal/page"
	"pdfblur/internal/rasterizer"
	"pdfblur/internal/reassembler"
	"pdfblur/internal/zoneblur"
)

// Config fixes the canonical page resolution and the encoder settings.
type Config struct {
	Width            int
	Height           int
	RenderDPI        float64
	OutputDPI        float64
	BlurSigma        float64
	Workers          int
	CompressionLevel int
}

type Pipeline struct {
	width, height int
	raster        *rasterizer.Rasterizer
	blur          *zoneblur.Blurrer
	assemble      *reassembler.Assembler
}

// New builds a pipeline around renderer. Zero config values fall back to
// the component defaults.
func New(renderer rasterizer.Renderer, cfg Config) *Pipeline {
	return &Pipeline{
		width:  cfg.Width,
		height: cfg.Height,
		raster: rasterizer.New(renderer,
			rasterizer.WithDPI(cfg.RenderDPI),
			rasterizer.WithWorkers(cfg.Workers)),
		blur: zoneblur.New(
			zoneblur.WithSigma(cfg.BlurSigma),
			zoneblur.WithWorkers(cfg.Workers)),
		assemble: reassembler.New(
			reassembler.WithDPI(cfg.OutputDPI),
			reassembler.WithCompressionLevel(cfg.CompressionLevel),
			reassembler.WithWorkers(cfg.Workers)),
	}
}

// PageSize returns the canonical page resolution.
func (p *Pipeline) PageSize() (int, int) { return p.width, p.height }

// Rasterize renders doc at the canonical resolution.
func (p *Pipeline) Rasterize(doc page.SourceDocument) ([]page.Image, error) {
	return p.raster.Rasterize(doc, p.width, p.height)
}

// Blur applies zones to every page that has some. It returns only once all
// pages are final.
func (p *Pipeline) Blur(pages []page.Image, zonesByPage map[int][]page.Zone) ([]page.Image, error) {
	return p.blur.ApplyZonesToJob(pages, zonesByPage)
}

// Assemble encodes final pages into the output document.
func (p *Pipeline) Assemble(pages []page.Image) (page.OutputDocument, error) {
	return p.assemble.Assemble(pages)
}

// Redact blurs the zones and reassembles the full page sequence.
func (p *Pipeline) Redact(pages []page.Image, zonesByPage map[int][]page.Zone) (page.OutputDocument, error) {
	final, err := p.Blur(pages, zonesByPage)
	if err != nil {
		return page.OutputDocument{}, err
	}
	return p.Assemble(final)
}

// Run executes the whole job on an in-memory document.
func (p *Pipeline) Run(doc page.SourceDocument, zonesByPage map[int][]page.Zone) (page.OutputDocument, error) {
	pages, err := p.Rasterize(doc)
	if err != nil {
		return page.OutputDocument{}, err
	}
	return p.Redact(pages, zonesByPage)
}
