package db

import (
	"time"
)

// ─────────────────────────────────────
// BlobObject is one stored object, one row per key.
// ─────────────────────────────────────

// BlobObject is one stored blob. The document root and every screenshot image
// live in this table, addressed by key.
type BlobObject struct {
	Key         string    `gorm:"primaryKey;type:text"  json:"key"`
	ContentType string    `gorm:"not null;default:''"   json:"content_type"`
	Size        int       `                             json:"size"`
	Data        []byte    `gorm:"type:blob"             json:"-"`
	CreatedAt   time.Time `                             json:"created_at"`
	UpdatedAt   time.Time `                             json:"updated_at"`
}

func (BlobObject) TableName() string { return "blob_objects" }
