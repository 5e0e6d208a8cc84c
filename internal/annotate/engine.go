package annotate

import (
	"fmt"
	"math"

	"github.com/team-avesta/Eventure-sub001/internal/geometry"
	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// HitTest returns the index of the topmost region containing p, or -1.
// p is in natural image pixels. Pixel rectangles are derived from the stored
// percentages and the given natural size on every call; later regions are
// drawn on top and win ties.
func HitTest(regions []models.Region, natural geometry.Size, p geometry.Point) (int, error) {
	for i := len(regions) - 1; i >= 0; i-- {
		px, err := geometry.PercentToPixels(regions[i].Coordinates, natural)
		if err != nil {
			return -1, err
		}
		if px.Contains(p) {
			return i, nil
		}
	}
	return -1, nil
}

// Step applies ev to c and returns the next context plus any intents.
// The only error is geometry.ErrInvalidImageSize when a pointer event
// arrives before a usable viewport has been set.
func Step(c Context, ev Event, opts Options) (Context, []Intent, error) {
	opts = opts.withDefaults()
	switch ev.Kind {
	case PointerLeave, Cancel:
		return reset(c), nil, nil
	case Delete:
		return deleteHighlighted(c)
	}
	if !c.Viewport.Valid() {
		return reset(c), nil, fmt.Errorf("%w: displayed %gx%g, natural %gx%g", geometry.ErrInvalidImageSize,
			c.Viewport.Displayed.Width, c.Viewport.Displayed.Height,
			c.Viewport.Natural.Width, c.Viewport.Natural.Height)
	}
	switch ev.Kind {
	case PointerDown:
		return pointerDown(c, ev.point(), opts)
	case PointerMove:
		return pointerMove(c, ev.point()), nil, nil
	case PointerUp:
		return pointerUp(c, ev.point(), opts)
	}
	return c, nil, nil
}

func reset(c Context) Context {
	c.State = Idle
	c.g = gesture{}
	return c
}

func pointerDown(c Context, p geometry.Point, opts Options) (Context, []Intent, error) {
	if c.State != Idle || !c.Viewport.inside(p) {
		return c, nil, nil
	}

	if c.admin() && c.DragMode && c.Highlighted != "" {
		if next, ok, err := startResize(c, p, opts); err != nil || ok {
			return next, nil, err
		}
	}

	hit, err := HitTest(c.Regions, c.Viewport.Natural, c.Viewport.ToNatural(p))
	if err != nil {
		return c, nil, err
	}

	if hit >= 0 {
		id := c.Regions[hit].ID
		if c.admin() && c.DragMode {
			c.State = Dragging
			c.Highlighted = id
			c.g = gesture{anchor: p, current: p, regionID: id}
			return c, nil, nil
		}
		c.State = Selecting
		if c.Highlighted == id {
			c.Highlighted = ""
		} else {
			c.Highlighted = id
		}
		return c, []Intent{{Kind: IntentSelect, RegionID: c.Highlighted}}, nil
	}

	if c.admin() && c.DrawingEnabled {
		c.State = Drawing
		c.g = gesture{anchor: p, current: p}
	}
	return c, nil, nil
}

// startResize begins a resize when p is near a corner of the highlighted
// region. The corner diagonally opposite the grabbed one stays fixed.
func startResize(c Context, p geometry.Point, opts Options) (Context, bool, error) {
	idx := c.regionIndex(c.Highlighted)
	if idx < 0 {
		return c, false, nil
	}
	px, err := geometry.PercentToPixels(c.Regions[idx].Coordinates, c.Viewport.Natural)
	if err != nil {
		return c, false, err
	}
	scr := c.Viewport.ToScreen(px)
	corners := [4]geometry.Point{
		{X: scr.StartX, Y: scr.StartY},
		{X: scr.EndX(), Y: scr.StartY},
		{X: scr.EndX(), Y: scr.EndY()},
		{X: scr.StartX, Y: scr.EndY()},
	}
	for i, corner := range corners {
		if math.Abs(p.X-corner.X) <= opts.HandleSize && math.Abs(p.Y-corner.Y) <= opts.HandleSize {
			opposite := corners[(i+2)%4]
			c.State = Resizing
			c.g = gesture{
				anchor:   p,
				current:  p,
				regionID: c.Highlighted,
				fixed:    c.Viewport.ToNatural(opposite),
			}
			return c, true, nil
		}
	}
	return c, false, nil
}

func pointerMove(c Context, p geometry.Point) Context {
	switch c.State {
	case Drawing:
		c.g.current = c.Viewport.clampToSurface(p)
	case Dragging, Resizing:
		c.g.current = p
	}
	return c
}

func pointerUp(c Context, p geometry.Point, opts Options) (Context, []Intent, error) {
	switch c.State {
	case Idle:
		return c, nil, nil
	case Selecting:
		return reset(c), nil, nil
	}
	if !c.Viewport.inside(p) {
		return reset(c), nil, nil
	}
	c = pointerMove(c, p)

	var (
		intents []Intent
		err     error
	)
	switch c.State {
	case Drawing:
		intents, err = finishDraw(c, opts)
	case Dragging:
		intents, err = finishDrag(c)
	case Resizing:
		intents, err = finishResize(c, opts)
	}
	return reset(c), intents, err
}

func finishDraw(c Context, opts Options) ([]Intent, error) {
	scr := geometry.Normalize(c.g.anchor, c.g.current)
	if scr.Width <= opts.MinDrawSize || scr.Height <= opts.MinDrawSize {
		return nil, nil
	}
	sx, sy := c.Viewport.scale()
	pct, err := geometry.PixelsToPercent(scr.Scale(sx, sy), c.Viewport.Natural)
	if err != nil {
		return nil, err
	}
	region := models.Region{
		ID:          opts.NewID(),
		Coordinates: geometry.ClipPercent(pct),
	}
	return []Intent{{Kind: IntentDrawComplete, RegionID: region.ID, Region: region}}, nil
}

// dragDelta converts the on-screen pointer travel to percentage points.
func dragDelta(c Context) (dx, dy float64, err error) {
	sx, sy := c.Viewport.scale()
	travel := geometry.Rect{
		StartX: (c.g.current.X - c.g.anchor.X) * sx,
		StartY: (c.g.current.Y - c.g.anchor.Y) * sy,
	}
	d, err := geometry.PixelsToPercent(travel, c.Viewport.Natural)
	if err != nil {
		return 0, 0, err
	}
	return d.StartX, d.StartY, nil
}

func finishDrag(c Context) ([]Intent, error) {
	idx := c.regionIndex(c.g.regionID)
	if idx < 0 || c.g.current == c.g.anchor {
		return nil, nil
	}
	dx, dy, err := dragDelta(c)
	if err != nil {
		return nil, err
	}
	region := c.Regions[idx]
	region.Coordinates = geometry.ClampPercent(region.Coordinates.Translate(dx, dy))
	return []Intent{{Kind: IntentUpdate, RegionID: region.ID, Region: region}}, nil
}

func resizedRect(c Context) (geometry.Rect, error) {
	nat := geometry.Normalize(c.g.fixed, c.Viewport.ToNatural(c.g.current))
	pct, err := geometry.PixelsToPercent(nat, c.Viewport.Natural)
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.ClipPercent(pct), nil
}

func finishResize(c Context, opts Options) ([]Intent, error) {
	idx := c.regionIndex(c.g.regionID)
	if idx < 0 || c.g.current == c.g.anchor {
		return nil, nil
	}
	pct, err := resizedRect(c)
	if err != nil {
		return nil, err
	}
	px, err := geometry.PercentToPixels(pct, c.Viewport.Natural)
	if err != nil {
		return nil, err
	}
	if scr := c.Viewport.ToScreen(px); scr.Width <= opts.MinDrawSize || scr.Height <= opts.MinDrawSize {
		return nil, nil
	}
	region := c.Regions[idx]
	region.Coordinates = pct
	return []Intent{{Kind: IntentUpdate, RegionID: region.ID, Region: region}}, nil
}

func deleteHighlighted(c Context) (Context, []Intent, error) {
	if c.State != Idle || !c.admin() || c.regionIndex(c.Highlighted) < 0 {
		return c, nil, nil
	}
	id := c.Highlighted
	c.Highlighted = ""
	return c, []Intent{{Kind: IntentDelete, RegionID: id}}, nil
}

// Preview returns the on-screen rectangle of the gesture in progress, for
// drawing the rubber band or the region being moved.
func (c Context) Preview() (geometry.Rect, bool) {
	if !c.Viewport.Valid() {
		return geometry.Rect{}, false
	}
	switch c.State {
	case Drawing:
		return geometry.Normalize(c.g.anchor, c.g.current), true
	case Dragging:
		idx := c.regionIndex(c.g.regionID)
		if idx < 0 {
			return geometry.Rect{}, false
		}
		dx, dy, err := dragDelta(c)
		if err != nil {
			return geometry.Rect{}, false
		}
		return c.percentToScreen(geometry.ClampPercent(c.Regions[idx].Coordinates.Translate(dx, dy)))
	case Resizing:
		pct, err := resizedRect(c)
		if err != nil {
			return geometry.Rect{}, false
		}
		return c.percentToScreen(pct)
	}
	return geometry.Rect{}, false
}

func (c Context) percentToScreen(pct geometry.Rect) (geometry.Rect, bool) {
	px, err := geometry.PercentToPixels(pct, c.Viewport.Natural)
	if err != nil {
		return geometry.Rect{}, false
	}
	return c.Viewport.ToScreen(px), true
}
