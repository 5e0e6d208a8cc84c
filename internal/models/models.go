// Package models holds the document graph persisted by the store:
// modules, their ordered screenshots, and the annotated regions on each.
package models

import (
	"time"
)

// ─────────────────────────────────────
// Screenshot status
// ─────────────────────────────────────

// Status tracks how far annotation of a screenshot has progressed.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ValidStatuses contains all valid status values
var ValidStatuses = []Status{
	StatusTodo,
	StatusInProgress,
	StatusDone,
}

// IsValidStatus checks if a status string is a valid Status
func IsValidStatus(s string) bool {
	for _, status := range ValidStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────
// Document root
// ─────────────────────────────────────

// Document is the single root object of the store.
type Document struct {
	Modules []Module `json:"modules"`
}

// ─────────────────────────────────────
// Module
// ─────────────────────────────────────

// Module groups the screenshots of one product area. Key is the stable slug
// used in URLs and as the screenshots' PageName.
type Module struct {
	ID          string       `json:"id"`
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Screenshots []Screenshot `json:"screenshots"`
}

// ─────────────────────────────────────
// Screenshot
// ─────────────────────────────────────

// Screenshot is an uploaded image and the regions drawn on it. URL is the
// opaque blob key of the image. Width and Height are the natural pixel size
// recorded at upload.
type Screenshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	PageName    string    `json:"pageName"`
	Status      Status    `json:"status"`
	LabelID     string    `json:"labelId,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Events      []Region  `json:"events"`
}

// ─────────────────────────────────────
// Lookups
// ─────────────────────────────────────

// FindModule returns the index of the module with the given key, or -1.
func (d *Document) FindModule(key string) int {
	for i := range d.Modules {
		if d.Modules[i].Key == key {
			return i
		}
	}
	return -1
}

// FindScreenshot scans every module for the screenshot. The reference is by
// screenshot id only, so the owning module is not known up front.
func (d *Document) FindScreenshot(id string) (*Module, int, bool) {
	for i := range d.Modules {
		m := &d.Modules[i]
		for j := range m.Screenshots {
			if m.Screenshots[j].ID == id {
				return m, j, true
			}
		}
	}
	return nil, -1, false
}

// RegionOwner returns the id of the screenshot holding a region, or "".
func (d *Document) RegionOwner(regionID string) string {
	for _, m := range d.Modules {
		for _, s := range m.Screenshots {
			if s.FindRegion(regionID) >= 0 {
				return s.ID
			}
		}
	}
	return ""
}

// FindRegion returns the index of the region in Events, or -1.
func (s *Screenshot) FindRegion(id string) int {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return i
		}
	}
	return -1
}
