package models

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/team-avesta/Eventure-sub001/internal/geometry"
)

// EventType is the closed set of analytics event kinds a region can document.
type EventType string

const (
	EventPageView               EventType = "pageview"
	EventTrackEvent             EventType = "trackevent"
	EventTrackEventWithPageView EventType = "trackevent_pageview"
	EventOutlink                EventType = "outlink"
	EventBackendEvent           EventType = "backendevent"
)

// EventTypes lists every event type in display order.
var EventTypes = []EventType{
	EventPageView,
	EventTrackEvent,
	EventTrackEventWithPageView,
	EventOutlink,
	EventBackendEvent,
}

// ErrUnknownEventType is returned for an event type outside EventTypes.
var ErrUnknownEventType = errors.New("unknown event type")

// ParseEventType validates s against the closed set.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

// Details carries the metadata of one event type. Each variant names its own
// fields; the shared name/category/action/value columns only exist in the
// stored form.
type Details interface {
	EventType() EventType
	flatten() flatFields
}

type flatFields struct {
	Name, Category, Action, Value string
}

// PageView documents a page view with a custom title and URL.
type PageView struct {
	Title string
	URL   string
}

// TrackEvent documents an interaction with the usual analytics taxonomy.
type TrackEvent struct {
	Category string
	Action   string
	Value    string
}

// TrackEventWithPageView documents an interaction that also records a page view.
type TrackEventWithPageView struct {
	Title    string
	Category string
	Action   string
	Value    string
}

// Outlink documents a click leaving the application.
type Outlink struct {
	URL      string
	Category string
	Action   string
}

// BackendEvent documents an event fired server side as a result of the UI action.
type BackendEvent struct {
	Name     string
	Category string
	Action   string
	Value    string
}

func (PageView) EventType() EventType               { return EventPageView }
func (TrackEvent) EventType() EventType             { return EventTrackEvent }
func (TrackEventWithPageView) EventType() EventType { return EventTrackEventWithPageView }
func (Outlink) EventType() EventType                { return EventOutlink }
func (BackendEvent) EventType() EventType           { return EventBackendEvent }

func (d PageView) flatten() flatFields { return flatFields{Name: d.Title, Category: d.URL} }
func (d TrackEvent) flatten() flatFields {
	return flatFields{Category: d.Category, Action: d.Action, Value: d.Value}
}
func (d TrackEventWithPageView) flatten() flatFields {
	return flatFields{Name: d.Title, Category: d.Category, Action: d.Action, Value: d.Value}
}
func (d Outlink) flatten() flatFields {
	return flatFields{Name: d.URL, Category: d.Category, Action: d.Action}
}
func (d BackendEvent) flatten() flatFields {
	return flatFields{Name: d.Name, Category: d.Category, Action: d.Action, Value: d.Value}
}

// detailsFrom rebuilds the variant for t from the stored columns.
func detailsFrom(t EventType, f flatFields) (Details, error) {
	switch t {
	case EventPageView:
		return PageView{Title: f.Name, URL: f.Category}, nil
	case EventTrackEvent:
		return TrackEvent{Category: f.Category, Action: f.Action, Value: f.Value}, nil
	case EventTrackEventWithPageView:
		return TrackEventWithPageView{Title: f.Name, Category: f.Category, Action: f.Action, Value: f.Value}, nil
	case EventOutlink:
		return Outlink{URL: f.Name, Category: f.Category, Action: f.Action}, nil
	case EventBackendEvent:
		return BackendEvent{Name: f.Name, Category: f.Category, Action: f.Action, Value: f.Value}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
}

// Region is one annotated rectangle on a screenshot. Coordinates are always
// percentages of the image's natural size. A region fresh from the drawing
// engine has nil Details until an event type is chosen.
type Region struct {
	ID          string
	Coordinates geometry.Rect
	Details     Details
	Dimensions  []string
	Description string
}

// EventType returns the type of the region's details, or "" while pending.
func (r Region) EventType() EventType {
	if r.Details == nil {
		return ""
	}
	return r.Details.EventType()
}

// Record is the flat form a region takes inside the stored document and on
// the wire.
type Record struct {
	ID          string        `json:"id"                    validate:"required"`
	Coordinates geometry.Rect `json:"coordinates"`
	EventType   EventType     `json:"eventType"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Action      string        `json:"action"`
	Value       string        `json:"value"`
	Dimensions  []string      `json:"dimensions"            validate:"unique,dive,required"`
	Description string        `json:"description,omitempty"`
}

// Record flattens r into its stored shape.
func (r Region) Record() Record {
	rec := Record{
		ID:          r.ID,
		Coordinates: r.Coordinates,
		Dimensions:  r.Dimensions,
		Description: r.Description,
	}
	if rec.Dimensions == nil {
		rec.Dimensions = []string{}
	}
	if r.Details != nil {
		f := r.Details.flatten()
		rec.EventType = r.Details.EventType()
		rec.Name, rec.Category, rec.Action, rec.Value = f.Name, f.Category, f.Action, f.Value
	}
	return rec
}

// Region converts the stored shape back into a Region. An empty event type
// yields a pending region; an unknown one is an error.
func (rec Record) Region() (Region, error) {
	r := Region{
		ID:          rec.ID,
		Coordinates: rec.Coordinates,
		Dimensions:  rec.Dimensions,
		Description: rec.Description,
	}
	if rec.EventType == "" {
		return r, nil
	}
	d, err := detailsFrom(rec.EventType, flatFields{
		Name:     rec.Name,
		Category: rec.Category,
		Action:   rec.Action,
		Value:    rec.Value,
	})
	if err != nil {
		return Region{}, err
	}
	r.Details = d
	return r, nil
}

// MarshalJSON writes the flat stored shape.
func (r Region) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Record())
}

// UnmarshalJSON reads the flat stored shape.
func (r *Region) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	region, err := rec.Region()
	if err != nil {
		return fmt.Errorf("region %s: %w", rec.ID, err)
	}
	*r = region
	return nil
}
