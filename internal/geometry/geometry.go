// Package geometry converts region rectangles between pixel space and the
// resolution independent percentage space used for storage.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidImageSize is returned when a conversion is attempted against an
// image with a non-positive width or height.
var ErrInvalidImageSize = errors.New("invalid image size")

// Point is a position in either on-screen or natural image pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the width and height of an image or of the surface it is shown on.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is a rectangle anchored at its top-left corner. The same shape is used
// for pixels and for percentages of the image dimensions.
type Rect struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Degenerate reports whether the rectangle has no area.
func (r Rect) Degenerate() bool {
	return r.Width == 0 || r.Height == 0
}

// EndX returns the right edge.
func (r Rect) EndX() float64 { return r.StartX + r.Width }

// EndY returns the bottom edge.
func (r Rect) EndY() float64 { return r.StartY + r.Height }

// Contains reports whether p lies inside r. Edges are inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.StartX && p.X <= r.EndX() &&
		p.Y >= r.StartY && p.Y <= r.EndY()
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.StartX += dx
	r.StartY += dy
	return r
}

// Scale multiplies every field of r by sx on the X axis and sy on the Y axis.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{
		StartX: r.StartX * sx,
		StartY: r.StartY * sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}

// Normalize builds the rectangle spanned by two corners, whichever direction
// the pointer travelled from a to b.
func Normalize(a, b Point) Rect {
	x1, x2 := a.X, b.X
	y1, y2 := a.Y, b.Y
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rect{StartX: x1, StartY: y1, Width: x2 - x1, Height: y2 - y1}
}

// PixelsToPercent converts a pixel rectangle to percentages of the image's
// natural size. It does not clamp.
func PixelsToPercent(r Rect, image Size) (Rect, error) {
	if !image.Valid() {
		return Rect{}, fmt.Errorf("%w: %gx%g", ErrInvalidImageSize, image.Width, image.Height)
	}
	return Rect{
		StartX: r.StartX / image.Width * 100,
		StartY: r.StartY / image.Height * 100,
		Width:  r.Width / image.Width * 100,
		Height: r.Height / image.Height * 100,
	}, nil
}

// PercentToPixels is the inverse of PixelsToPercent.
func PercentToPixels(r Rect, image Size) (Rect, error) {
	if !image.Valid() {
		return Rect{}, fmt.Errorf("%w: %gx%g", ErrInvalidImageSize, image.Width, image.Height)
	}
	return Rect{
		StartX: r.StartX / 100 * image.Width,
		StartY: r.StartY / 100 * image.Height,
		Width:  r.Width / 100 * image.Width,
		Height: r.Height / 100 * image.Height,
	}, nil
}

// ClampPercent moves r back inside [0,100] on both axes without changing its
// size. A side longer than 100 is cut to 100.
func ClampPercent(r Rect) Rect {
	r.Width = math.Min(math.Max(r.Width, 0), 100)
	r.Height = math.Min(math.Max(r.Height, 0), 100)
	r.StartX = clampStart(r.StartX, r.Width)
	r.StartY = clampStart(r.StartY, r.Height)
	return r
}

// clampStart keeps start within [0, 100-extent]. Past the upper limit it
// returns 100-extent, leaving extent unchanged.
func clampStart(start, extent float64) float64 {
	if start < 0 {
		return 0
	}
	if start+extent > 100 {
		return 100 - extent
	}
	return start
}

// ClipPercent intersects r with the [0,100] square, shrinking it instead of
// moving it. Used when a resize handle is pulled past the image edge.
func ClipPercent(r Rect) Rect {
	x1 := math.Max(r.StartX, 0)
	y1 := math.Max(r.StartY, 0)
	x2 := math.Min(r.EndX(), 100)
	y2 := math.Min(r.EndY(), 100)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Rect{StartX: x1, StartY: y1, Width: x2 - x1, Height: y2 - y1}
}

// InPercentBounds reports whether r lies inside the image, allowing tol for
// floating point noise on the far edges.
func InPercentBounds(r Rect, tol float64) bool {
	if r.StartX < 0 || r.StartY < 0 || r.Width < 0 || r.Height < 0 {
		return false
	}
	if r.StartX > 100 || r.StartY > 100 {
		return false
	}
	return r.EndX() <= 100+tol && r.EndY() <= 100+tol
}
