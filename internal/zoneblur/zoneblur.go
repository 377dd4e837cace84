// Package zoneblur irreversibly blurs rectangular zones of page images.
package zoneblur

import (
	"fmt"
	"image"
	"runtime"
	"sort"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"pdfblur/internal/page"
)

// DefaultSigma gives a 73x73 Gaussian kernel (radius ceil(3*sigma)).
const DefaultSigma = 12.0

// Blurrer applies a fixed Gaussian blur to zones.
type Blurrer struct {
	sigma   float64
	workers int
}

type Option func(*Blurrer)

// WithSigma sets the Gaussian standard deviation in pixels.
func WithSigma(sigma float64) Option {
	return func(b *Blurrer) {
		if sigma > 0 {
			b.sigma = sigma
		}
	}
}

// WithWorkers bounds the number of pages blurred concurrently.
func WithWorkers(n int) Option {
	return func(b *Blurrer) {
		if n > 0 {
			b.workers = n
		}
	}
}

func New(opts ...Option) *Blurrer {
	b := &Blurrer{sigma: DefaultSigma, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sigma reports the configured blur strength.
func (b *Blurrer) Sigma() float64 { return b.sigma }

// ApplyZones returns a copy of img with every zone blurred. All zones are
// validated first; img itself is never modified.
func (b *Blurrer) ApplyZones(img page.Image, zones []page.Zone) (page.Image, error) {
	w, h := img.Width(), img.Height()
	for _, z := range zones {
		if err := z.Validate(img.Index, w, h); err != nil {
			return page.Image{}, err
		}
	}

	out := img.Clone()
	for _, z := range zones {
		b.blurRect(out.Pix, z.Rect())
	}
	return out, nil
}

// blurRect blurs r in place using only the pixels inside r.
func (b *Blurrer) blurRect(dst *image.NRGBA, r image.Rectangle) {
	blurred := imaging.Blur(dst.SubImage(r), b.sigma)
	draw.Copy(dst, r.Min, blurred, blurred.Bounds(), draw.Src, nil)
}

// ApplyZonesToJob blurs each page that has zones and passes the others through,
// preserving order and count. Every key of zonesByPage must name a page.
func (b *Blurrer) ApplyZonesToJob(pages []page.Image, zonesByPage map[int][]page.Zone) ([]page.Image, error) {
	pos := make(map[int]int, len(pages))
	for i, p := range pages {
		pos[p.Index] = i
	}

	keys := make([]int, 0, len(zonesByPage))
	for k := range zonesByPage {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if _, ok := pos[k]; !ok {
			var z page.Zone
			if zs := zonesByPage[k]; len(zs) > 0 {
				z = zs[0]
			}
			return nil, &page.InvalidZoneError{Page: k, Zone: z, Reason: fmt.Sprintf("job has no page %d", k)}
		}
		p := pages[pos[k]]
		for _, z := range zonesByPage[k] {
			if err := z.Validate(p.Index, p.Width(), p.Height()); err != nil {
				return nil, err
			}
		}
	}

	out := make([]page.Image, len(pages))
	copy(out, pages)

	var g errgroup.Group
	g.SetLimit(b.workers)
	for _, k := range keys {
		zones := zonesByPage[k]
		if len(zones) == 0 {
			continue
		}
		i := pos[k]
		g.Go(func() error {
			blurred, err := b.ApplyZones(pages[i], zones)
			if err != nil {
				return err
			}
			out[i] = blurred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
