package page

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
)

var pngEncoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// EncodePNG serializes a page for storage. Output is deterministic for a given buffer.
func EncodePNG(w io.Writer, img Image) error {
	if img.Pix == nil {
		return fmt.Errorf("page %d: empty image", img.Index)
	}
	return pngEncoder.Encode(w, img.Pix)
}

// PNGBytes is EncodePNG into a fresh buffer.
func PNGBytes(img Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePNG reads a stored page image and normalizes it to NRGBA with bounds at the origin.
func DecodePNG(r io.Reader, index int) (Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("decode page %d: %w", index, err)
	}
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return Image{Index: index, Pix: n}, nil
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return Image{Index: index, Pix: dst}, nil
}
