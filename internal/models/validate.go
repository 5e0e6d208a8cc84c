package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/team-avesta/Eventure-sub001/internal/geometry"
)

var (
	// ErrInvalidRegion wraps structural problems: missing id, duplicate or
	// empty dimension references.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrDegenerateRegion is returned for a region with zero width or height.
	ErrDegenerateRegion = errors.New("degenerate region")
	// ErrOutOfBounds is returned for a region that extends outside the image.
	ErrOutOfBounds = errors.New("region out of bounds")
	// ErrMissingEventType is returned when a pending region is committed.
	ErrMissingEventType = errors.New("region has no event type")
)

// boundsTolerance absorbs float noise from pixel/percent conversion on the
// far edges; it is far below anything a user could draw.
const boundsTolerance = 1e-9

var validate = validator.New()

// Validate checks the invariants a region must satisfy before it is stored.
func (r Region) Validate() error {
	if err := validate.Struct(r.Record()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegion, err)
	}
	if r.Details == nil {
		return fmt.Errorf("%w: %s", ErrMissingEventType, r.ID)
	}
	c := r.Coordinates
	if c.Degenerate() {
		return fmt.Errorf("%w: %gx%g", ErrDegenerateRegion, c.Width, c.Height)
	}
	if !geometry.InPercentBounds(c, boundsTolerance) {
		return fmt.Errorf("%w: start (%g,%g) size %gx%g", ErrOutOfBounds, c.StartX, c.StartY, c.Width, c.Height)
	}
	return nil
}
