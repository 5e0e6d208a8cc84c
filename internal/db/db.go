// Package db is the gorm/sqlite blob backend.
package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/team-avesta/Eventure-sub001/internal/blob"
)

var DB *gorm.DB

// Init opens the sqlite database at path and migrates the object table.
func Init(path string) error {
	var err error
	DB, err = Open(path, logger.Warn)
	return err
}

// Open returns a migrated connection without touching the package DB.
func Open(path string, level logger.LogLevel) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := conn.AutoMigrate(&BlobObject{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

// ObjectStore implements blob.Storage on the blob_objects table.
type ObjectStore struct {
	db *gorm.DB
}

var _ blob.Storage = (*ObjectStore)(nil)

// NewObjectStore wraps conn. A nil conn uses the package DB.
func NewObjectStore(conn *gorm.DB) *ObjectStore {
	if conn == nil {
		conn = DB
	}
	return &ObjectStore{db: conn}
}

// PutObject inserts or overwrites key in a single statement.
func (s *ObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	obj := BlobObject{
		Key:         key,
		ContentType: contentType,
		Size:        len(data),
		Data:        data,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "size", "data", "updated_at"}),
	}).Create(&obj).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	var obj BlobObject
	err := s.db.WithContext(ctx).First(&obj, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return obj.Data, nil
}

func (s *ObjectStore) DeleteObject(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&BlobObject{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
