// Package annotate implements the gesture state machine used to draw, select,
// move, resize and delete regions over a screenshot shown at any scale.
//
// The machine never persists anything. Step consumes a pointer event and
// returns the next Context together with the mutation intents the caller is
// expected to forward to the document store.
package annotate

import (
	"github.com/google/uuid"

	"github.com/team-avesta/Eventure-sub001/internal/geometry"
	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// State is the gesture currently in progress.
type State int

const (
	Idle State = iota
	Drawing
	Selecting
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Selecting:
		return "selecting"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "unknown"
}

// Role gates which transitions are reachable. Users may only select.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// EventKind identifies an input event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
	Cancel
	Delete
)

// Event is one input to the machine. X and Y are on-screen pixels relative
// to the top-left corner of the displayed image; they are ignored for Cancel
// and Delete.
type Event struct {
	Kind EventKind
	X, Y float64
}

func (e Event) point() geometry.Point { return geometry.Point{X: e.X, Y: e.Y} }

// IntentKind identifies a mutation the caller should perform.
type IntentKind int

const (
	// IntentDrawComplete carries a new pending region. Its event type and
	// metadata are chosen afterwards, outside the engine.
	IntentDrawComplete IntentKind = iota
	// IntentSelect reports the highlighted region id, "" when cleared.
	IntentSelect
	// IntentUpdate carries a moved or resized region with its id preserved.
	IntentUpdate
	// IntentDelete names a region to remove.
	IntentDelete
)

// Intent is a region mutation emitted by the machine.
type Intent struct {
	Kind     IntentKind
	RegionID string
	Region   models.Region
}

// Viewport relates the on-screen surface to the image's natural size.
type Viewport struct {
	Displayed geometry.Size
	Natural   geometry.Size
}

// Valid reports whether both sizes are usable for conversion.
func (v Viewport) Valid() bool {
	return v.Displayed.Valid() && v.Natural.Valid()
}

// scale returns natural pixels per on-screen pixel on each axis.
func (v Viewport) scale() (sx, sy float64) {
	return v.Natural.Width / v.Displayed.Width, v.Natural.Height / v.Displayed.Height
}

// ToNatural converts an on-screen point to natural image pixels.
func (v Viewport) ToNatural(p geometry.Point) geometry.Point {
	sx, sy := v.scale()
	return geometry.Point{X: p.X * sx, Y: p.Y * sy}
}

// ToScreen converts a natural pixel rectangle to on-screen pixels.
func (v Viewport) ToScreen(r geometry.Rect) geometry.Rect {
	sx, sy := v.scale()
	return r.Scale(1/sx, 1/sy)
}

func (v Viewport) inside(p geometry.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= v.Displayed.Width && p.Y <= v.Displayed.Height
}

func (v Viewport) clampToSurface(p geometry.Point) geometry.Point {
	p.X = clamp(p.X, 0, v.Displayed.Width)
	p.Y = clamp(p.Y, 0, v.Displayed.Height)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Options tunes the machine. Zero values are replaced by defaults.
type Options struct {
	// MinDrawSize is the on-screen size in pixels both sides of a new or
	// resized rectangle must exceed.
	MinDrawSize float64
	// HandleSize is how close, in on-screen pixels, a press must land to a
	// corner of the highlighted region to start a resize.
	HandleSize float64
	// NewID generates region ids.
	NewID func() string
}

const (
	DefaultMinDrawSize = 5
	DefaultHandleSize  = 8
)

func (o Options) withDefaults() Options {
	if o.MinDrawSize <= 0 {
		o.MinDrawSize = DefaultMinDrawSize
	}
	if o.HandleSize <= 0 {
		o.HandleSize = DefaultHandleSize
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// gesture is the in-flight pointer interaction.
type gesture struct {
	anchor   geometry.Point // on-screen press position
	current  geometry.Point // on-screen latest position
	regionID string
	// fixed is the natural-pixel corner that stays put while resizing.
	fixed geometry.Point
}

// Context is the full state the machine transitions over. It is a value;
// Step never mutates the Context it is given.
type Context struct {
	State          State
	Viewport       Viewport
	Regions        []models.Region
	Highlighted    string
	DragMode       bool
	DrawingEnabled bool
	Role           Role

	g gesture
}

func (c Context) admin() bool { return c.Role == RoleAdmin }

func (c Context) regionIndex(id string) int {
	for i := range c.Regions {
		if c.Regions[i].ID == id {
			return i
		}
	}
	return -1
}
