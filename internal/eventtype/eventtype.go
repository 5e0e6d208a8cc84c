// Package eventtype maps each event type to how it is shown and which
// metadata fields the editing form should ask for.
package eventtype

import (
	"fmt"
	"image/color"

	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// ErrUnknownEventType is returned for a type outside the closed set.
var ErrUnknownEventType = models.ErrUnknownEventType

// Field names a stored metadata column.
type Field string

const (
	FieldName     Field = "name"
	FieldCategory Field = "category"
	FieldAction   Field = "action"
	FieldValue    Field = "value"
)

// Attributes describes how one event type is displayed.
type Attributes struct {
	Type           models.EventType `json:"type"`
	DisplayName    string           `json:"displayName"`
	Color          color.RGBA       `json:"-"`
	Hex            string           `json:"color"`
	RequiredFields []Field          `json:"requiredFields"`
}

func attrs(t models.EventType, name string, c color.RGBA, fields ...Field) Attributes {
	return Attributes{
		Type:           t,
		DisplayName:    name,
		Color:          c,
		Hex:            fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
		RequiredFields: fields,
	}
}

var table = map[models.EventType]Attributes{
	models.EventPageView: attrs(models.EventPageView, "Page View",
		color.RGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}, FieldName, FieldCategory),
	models.EventTrackEvent: attrs(models.EventTrackEvent, "Track Event",
		color.RGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 0xff}, FieldCategory, FieldAction, FieldValue),
	models.EventTrackEventWithPageView: attrs(models.EventTrackEventWithPageView, "Track Event with Page View",
		color.RGBA{R: 0x93, G: 0x33, B: 0xea, A: 0xff}, FieldName, FieldCategory, FieldAction, FieldValue),
	models.EventOutlink: attrs(models.EventOutlink, "Outlink",
		color.RGBA{R: 0xea, G: 0x58, B: 0x0c, A: 0xff}, FieldName, FieldCategory, FieldAction),
	models.EventBackendEvent: attrs(models.EventBackendEvent, "Backend Event",
		color.RGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}, FieldName, FieldCategory, FieldAction, FieldValue),
}

// Resolve looks up the display attributes of t. It performs no validation of
// region data.
func Resolve(t models.EventType) (Attributes, error) {
	a, ok := table[t]
	if !ok {
		return Attributes{}, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}
	return a, nil
}

// MustResolve is Resolve for callers holding a type that already passed
// models.ParseEventType. An unknown type here is a programming error.
func MustResolve(t models.EventType) Attributes {
	a, err := Resolve(t)
	if err != nil {
		panic(err)
	}
	return a
}

// All returns the attributes of every event type in display order.
func All() []Attributes {
	out := make([]Attributes, 0, len(models.EventTypes))
	for _, t := range models.EventTypes {
		out = append(out, table[t])
	}
	return out
}

// Pending is how a region without an event type is drawn.
var Pending = Attributes{
	DisplayName: "Unassigned",
	Color:       color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff},
	Hex:         "#6b7280",
}
