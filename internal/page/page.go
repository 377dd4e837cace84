// Package page holds the in-memory data model shared by the rasterizer, the
// zone blurrer and the reassembler.
package page

import (
	"image"
	"image/draw"
)

// SourceDocument is the raw content of an uploaded paged document.
// The page count is discovered at rasterization time.
type SourceDocument struct {
	Name string
	Data []byte
}

// Image is one rasterized page. Index is 1-based and Pix bounds start at (0,0).
type Image struct {
	Index int
	Pix   *image.NRGBA
}

// Width returns the pixel width of the page, or 0 for an empty image.
func (i Image) Width() int {
	if i.Pix == nil {
		return 0
	}
	return i.Pix.Rect.Dx()
}

// Height returns the pixel height of the page, or 0 for an empty image.
func (i Image) Height() int {
	if i.Pix == nil {
		return 0
	}
	return i.Pix.Rect.Dy()
}

// Size returns width and height as a point.
func (i Image) Size() image.Point {
	return image.Pt(i.Width(), i.Height())
}

// Clone returns a deep copy of the page buffer.
func (i Image) Clone() Image {
	if i.Pix == nil {
		return Image{Index: i.Index}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, i.Width(), i.Height()))
	draw.Draw(dst, dst.Rect, i.Pix, i.Pix.Rect.Min, draw.Src)
	return Image{Index: i.Index, Pix: dst}
}

// OutputDocument is a reassembled paged document. It is never modified after
// it has been produced.
type OutputDocument struct {
	Data      []byte
	PageCount int
}
