// Package store keeps every module, screenshot and region in one JSON
// document held in blob storage.
//
// Each mutating call is a single read-modify-write cycle: fetch the document,
// edit it in memory, write it back with one PutObject. There is no version
// check. Two callers whose cycles overlap both read the same snapshot and the
// later write silently discards the earlier one. This is acceptable for the
// single-editor workflow the tool targets; callers that need more must
// serialise writes themselves.
package store

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/team-avesta/Eventure-sub001/internal/blob"
	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// DefaultKey is the blob key of the root document.
const DefaultKey = "data/modules.json"

const documentContentType = "application/json"

// errUnchanged lets a mutation skip the write when it turned out to be a no-op.
var errUnchanged = errors.New("unchanged")

type Store struct {
	blobs blob.Storage
	key   string
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithKey overrides the root document key.
func WithKey(key string) Option { return func(s *Store) { s.key = key } }

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock sets the time source for createdAt/updatedAt.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator sets how module and screenshot ids are minted.
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.newID = fn } }

func New(blobs blob.Storage, opts ...Option) *Store {
	s := &Store{
		blobs: blobs,
		key:   DefaultKey,
		log:   zerolog.Nop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Blobs exposes the backing storage so callers can stream assets the
// document references.
func (s *Store) Blobs() blob.Storage { return s.blobs }

// GetDocument returns the current document, or an empty one when nothing has
// been written yet.
func (s *Store) GetDocument(ctx context.Context) (*models.Document, error) {
	data, err := s.blobs.GetObject(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return &models.Document{Modules: []models.Module{}}, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get", Key: s.key, Err: err}
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &PersistenceError{Op: "decode", Key: s.key, Err: err}
	}
	normalize(&doc)
	return &doc, nil
}

// mutate runs one read-modify-write cycle. fn edits doc in place; when it
// returns an error nothing is written.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc *models.Document) error) error {
	doc, err := s.GetDocument(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.blobs.PutObject(ctx, s.key, data, documentContentType); err != nil {
		return &PersistenceError{Op: "put", Key: s.key, Err: err}
	}
	s.log.Debug().Str("op", op).Int("bytes", len(data)).Msg("document written")
	return nil
}

// deleteBlob removes an asset that is no longer referenced. Failures leave an
// orphan behind but never fail the caller.
func (s *Store) deleteBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.DeleteObject(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to delete orphaned blob")
	}
}

// normalize replaces nil slices so the stored JSON always has arrays.
func normalize(doc *models.Document) {
	if doc.Modules == nil {
		doc.Modules = []models.Module{}
	}
	for i := range doc.Modules {
		m := &doc.Modules[i]
		if m.Screenshots == nil {
			m.Screenshots = []models.Screenshot{}
		}
		for j := range m.Screenshots {
			if m.Screenshots[j].Events == nil {
				m.Screenshots[j].Events = []models.Region{}
			}
		}
	}
}
