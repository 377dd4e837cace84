package page

import (
	"errors"
	"fmt"
	"image"
)

var (
	ErrDecode               = errors.New("document cannot be decoded")
	ErrEmptyDocument        = errors.New("document has no pages")
	ErrInvalidZone          = errors.New("invalid blur zone")
	ErrInconsistentPageSize = errors.New("inconsistent page size")
	ErrEmptyInput           = errors.New("no pages to assemble")
)

// DecodeError reports a source document that is not a parseable paged document.
type DecodeError struct {
	Page int // 0 when the whole document failed to open
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%v: page %d: %v", ErrDecode, e.Page, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// InvalidZoneError names the page and zone that violate the page bounds.
type InvalidZoneError struct {
	Page   int
	Zone   Zone
	Reason string
}

func (e *InvalidZoneError) Error() string {
	return fmt.Sprintf("%v on page %d %s: %s", ErrInvalidZone, e.Page, e.Zone, e.Reason)
}

func (e *InvalidZoneError) Unwrap() error { return ErrInvalidZone }

// InconsistentPageSizeError reports the first page whose size differs from page 1.
type InconsistentPageSizeError struct {
	Index int
	Want  image.Point
	Got   image.Point
}

func (e *InconsistentPageSizeError) Error() string {
	return fmt.Sprintf("%v: page %d is %dx%d, want %dx%d",
		ErrInconsistentPageSize, e.Index, e.Got.X, e.Got.Y, e.Want.X, e.Want.Y)
}

func (e *InconsistentPageSizeError) Unwrap() error { return ErrInconsistentPageSize }
