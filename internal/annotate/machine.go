package annotate

import (
	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// IntentListener is called for each intent of the kind it was registered for.
type IntentListener func(Intent)

// Engine owns a Context and feeds events through Step. It is meant to be
// driven from a single UI goroutine and does no locking.
type Engine struct {
	ctx       Context
	opts      Options
	listeners map[IntentKind][]IntentListener
}

// New creates an idle engine for the given role.
func New(role Role, opts Options) *Engine {
	return &Engine{
		ctx:       Context{Role: role, DrawingEnabled: role == RoleAdmin},
		opts:      opts.withDefaults(),
		listeners: make(map[IntentKind][]IntentListener),
	}
}

// On registers a listener for one intent kind.
func (e *Engine) On(kind IntentKind, fn IntentListener) {
	e.listeners[kind] = append(e.listeners[kind], fn)
}

// Dispatch runs ev through the machine, notifies listeners and returns the
// emitted intents.
func (e *Engine) Dispatch(ev Event) ([]Intent, error) {
	next, intents, err := Step(e.ctx, ev, e.opts)
	e.ctx = next
	if err != nil {
		return nil, err
	}
	for _, in := range intents {
		for _, fn := range e.listeners[in.Kind] {
			fn(in)
		}
	}
	return intents, nil
}

// Context returns a copy of the current context. Later calls on the engine
// do not change it.
func (e *Engine) Context() Context {
	c := e.ctx
	c.Regions = append([]models.Region(nil), e.ctx.Regions...)
	return c
}

// State returns the current gesture state.
func (e *Engine) State() State { return e.ctx.State }

// Highlighted returns the selected region id, or "".
func (e *Engine) Highlighted() string { return e.ctx.Highlighted }

// SetViewport records a new displayed or natural size. A gesture in progress
// is dropped because its on-screen anchor no longer means the same point.
func (e *Engine) SetViewport(v Viewport) {
	if v != e.ctx.Viewport {
		e.ctx = reset(e.ctx)
	}
	e.ctx.Viewport = v
}

// SetRegions replaces the regions shown on the surface.
func (e *Engine) SetRegions(regions []models.Region) {
	e.ctx.Regions = append([]models.Region(nil), regions...)
	if e.ctx.regionIndex(e.ctx.Highlighted) < 0 {
		e.ctx.Highlighted = ""
	}
}

// SetDragMode toggles between select and move for presses on a region.
// Only admins can enable it.
func (e *Engine) SetDragMode(on bool) {
	e.ctx.DragMode = on && e.ctx.Role == RoleAdmin
}

// SetDrawingEnabled toggles drawing new regions. Only admins can enable it.
func (e *Engine) SetDrawingEnabled(on bool) {
	e.ctx.DrawingEnabled = on && e.ctx.Role == RoleAdmin
}

// Upsert applies a committed region locally, replacing by id or appending.
func (e *Engine) Upsert(r models.Region) {
	regions := append(make([]models.Region, 0, len(e.ctx.Regions)+1), e.ctx.Regions...)
	if idx := e.ctx.regionIndex(r.ID); idx >= 0 {
		regions[idx] = r
	} else {
		regions = append(regions, r)
	}
	e.ctx.Regions = regions
}

// Remove drops a committed region locally.
func (e *Engine) Remove(id string) {
	idx := e.ctx.regionIndex(id)
	if idx < 0 {
		return
	}
	e.ctx.Regions = append(e.ctx.Regions[:idx:idx], e.ctx.Regions[idx+1:]...)
	if e.ctx.Highlighted == id {
		e.ctx.Highlighted = ""
	}
}
