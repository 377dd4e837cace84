package rasterizer

import "image"

// Renderer opens a paged document for rendering.
type Renderer interface {
	Open(data []byte) (RenderedDocument, error)
}

// RenderedDocument is an opened document. RenderPage takes a 0-based page
// number and must be safe for concurrent use.
type RenderedDocument interface {
	NumPage() int
	RenderPage(n int, dpi float64) (image.Image, error)
	Close() error
}
