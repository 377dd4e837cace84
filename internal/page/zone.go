package page

import (
	"fmt"
	"image"
)

// Zone is an axis-aligned rectangle in a page image's pixel space. Left/Top are
// inclusive, Right/Bottom exclusive.
type Zone struct {
	Page   int `json:"page"`
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Rect returns the zone as an image.Rectangle.
func (z Zone) Rect() image.Rectangle {
	return image.Rect(z.Left, z.Top, z.Right, z.Bottom)
}

func (z Zone) String() string {
	return fmt.Sprintf("(x1=%d,y1=%d,x2=%d,y2=%d)", z.Left, z.Top, z.Right, z.Bottom)
}

// Validate checks the zone against a page of the given index and size.
func (z Zone) Validate(index, width, height int) error {
	var reason string
	switch {
	case z.Page != index:
		reason = fmt.Sprintf("zone belongs to page %d", z.Page)
	case z.Left < 0 || z.Top < 0:
		reason = "negative coordinate"
	case z.Left >= z.Right:
		reason = "left must be less than right"
	case z.Top >= z.Bottom:
		reason = "top must be less than bottom"
	case z.Right > width:
		reason = fmt.Sprintf("right exceeds page width %d", width)
	case z.Bottom > height:
		reason = fmt.Sprintf("bottom exceeds page height %d", height)
	default:
		return nil
	}
	return &InvalidZoneError{Page: index, Zone: z, Reason: reason}
}
