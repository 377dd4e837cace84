package zoneblur

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfblur/internal/page"
	"pdfblur/internal/rasterizer/mocks"
)

func testPage(index, w, h int) page.Image {
	src := mocks.Pattern(index, w, h)
	img := image.NewNRGBA(src.Rect)
	copy(img.Pix, src.Pix)
	return page.Image{Index: index, Pix: img}
}

// regionEqual reports whether a and b hold identical bytes inside r.
func regionEqual(a, b *image.NRGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := a.PixOffset(r.Min.X, y)
		j := b.PixOffset(r.Min.X, y)
		n := r.Dx() * 4
		if !bytes.Equal(a.Pix[i:i+n], b.Pix[j:j+n]) {
			return false
		}
	}
	return true
}

// outsideEqual reports whether every pixel outside all zones is unchanged.
func outsideEqual(a, b *image.NRGBA, zones []page.Zone) bool {
	for y := 0; y < a.Rect.Dy(); y++ {
		for x := 0; x < a.Rect.Dx(); x++ {
			inside := false
			for _, z := range zones {
				if image.Pt(x, y).In(z.Rect()) {
					inside = true
					break
				}
			}
			if !inside && a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}

func TestApplyZones_OnlyZonesChange(t *testing.T) {
	b := New(WithSigma(2))
	in := testPage(1, 60, 40)
	before := append([]byte(nil), in.Pix.Pix...)
	zones := []page.Zone{
		{Page: 1, Left: 5, Top: 5, Right: 25, Bottom: 20},
		{Page: 1, Left: 30, Top: 10, Right: 60, Bottom: 40},
	}

	out, err := b.ApplyZones(in, zones)
	require.NoError(t, err)

	assert.Equal(t, in.Size(), out.Size())
	assert.Equal(t, 1, out.Index)
	assert.Equal(t, before, in.Pix.Pix, "input must not be modified")
	assert.True(t, outsideEqual(in.Pix, out.Pix, zones))
	for _, z := range zones {
		assert.False(t, regionEqual(in.Pix, out.Pix, z.Rect()), "zone %s must be blurred", z)
	}
}

func TestApplyZones_OverlappingZones(t *testing.T) {
	b := New(WithSigma(2))
	in := testPage(2, 40, 40)
	zones := []page.Zone{
		{Page: 2, Left: 0, Top: 0, Right: 20, Bottom: 20},
		{Page: 2, Left: 10, Top: 10, Right: 30, Bottom: 30},
		{Page: 2, Left: 10, Top: 10, Right: 30, Bottom: 30},
	}

	out, err := b.ApplyZones(in, zones)
	require.NoError(t, err)
	assert.True(t, outsideEqual(in.Pix, out.Pix, zones))
	assert.False(t, regionEqual(in.Pix, out.Pix, image.Rect(10, 10, 20, 20)))
}

func TestApplyZones_NoZones(t *testing.T) {
	in := testPage(1, 10, 10)
	out, err := New().ApplyZones(in, nil)
	require.NoError(t, err)
	assert.Equal(t, in.Pix.Pix, out.Pix.Pix)
}

func TestApplyZones_Invalid(t *testing.T) {
	tests := []struct {
		name string
		zone page.Zone
	}{
		{name: "left equals right", zone: page.Zone{Page: 1, Left: 4, Top: 0, Right: 4, Bottom: 5}},
		{name: "left greater than right", zone: page.Zone{Page: 1, Left: 8, Top: 0, Right: 4, Bottom: 5}},
		{name: "right beyond width", zone: page.Zone{Page: 1, Left: 0, Top: 0, Right: 21, Bottom: 5}},
		{name: "bottom beyond height", zone: page.Zone{Page: 1, Left: 0, Top: 0, Right: 5, Bottom: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testPage(1, 20, 10)
			before := append([]byte(nil), in.Pix.Pix...)
			valid := page.Zone{Page: 1, Left: 0, Top: 0, Right: 5, Bottom: 5}

			out, err := New(WithSigma(2)).ApplyZones(in, []page.Zone{valid, tt.zone})

			assert.ErrorIs(t, err, page.ErrInvalidZone)
			var zerr *page.InvalidZoneError
			require.ErrorAs(t, err, &zerr)
			assert.Equal(t, tt.zone, zerr.Zone)
			assert.Nil(t, out.Pix)
			assert.Equal(t, before, in.Pix.Pix)
		})
	}
}

func TestApplyZonesToJob(t *testing.T) {
	b := New(WithSigma(2), WithWorkers(2))
	pages := []page.Image{testPage(1, 30, 30), testPage(2, 30, 30), testPage(3, 30, 30), testPage(4, 30, 30)}
	zones := map[int][]page.Zone{
		2: {{Page: 2, Left: 0, Top: 0, Right: 10, Bottom: 10}},
		4: {{Page: 4, Left: 15, Top: 5, Right: 30, Bottom: 25}},
	}

	out, err := b.ApplyZonesToJob(pages, zones)
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i, p := range out {
		assert.Equal(t, i+1, p.Index)
	}
	assert.Equal(t, pages[0].Pix.Pix, out[0].Pix.Pix)
	assert.Equal(t, pages[2].Pix.Pix, out[2].Pix.Pix)
	for _, i := range []int{2, 4} {
		assert.True(t, outsideEqual(pages[i-1].Pix, out[i-1].Pix, zones[i]))
		assert.False(t, regionEqual(pages[i-1].Pix, out[i-1].Pix, zones[i][0].Rect()))
	}
}

func TestApplyZonesToJob_Errors(t *testing.T) {
	pages := []page.Image{testPage(1, 10, 10), testPage(2, 10, 10)}
	snapshot := append([]byte(nil), pages[0].Pix.Pix...)

	t.Run("unknown page", func(t *testing.T) {
		out, err := New().ApplyZonesToJob(pages, map[int][]page.Zone{
			3: {{Page: 3, Left: 0, Top: 0, Right: 1, Bottom: 1}},
		})
		assert.ErrorIs(t, err, page.ErrInvalidZone)
		assert.Contains(t, err.Error(), "page 3")
		assert.Nil(t, out)
	})

	t.Run("one bad zone fails the whole job", func(t *testing.T) {
		out, err := New().ApplyZonesToJob(pages, map[int][]page.Zone{
			1: {{Page: 1, Left: 0, Top: 0, Right: 5, Bottom: 5}},
			2: {{Page: 2, Left: 0, Top: 0, Right: 50, Bottom: 5}},
		})
		assert.ErrorIs(t, err, page.ErrInvalidZone)
		assert.Nil(t, out)
		assert.Equal(t, snapshot, pages[0].Pix.Pix)
	})

	t.Run("empty zone list passes through", func(t *testing.T) {
		out, err := New().ApplyZonesToJob(pages, map[int][]page.Zone{1: nil})
		require.NoError(t, err)
		assert.Equal(t, pages[0].Pix.Pix, out[0].Pix.Pix)
	})
}
