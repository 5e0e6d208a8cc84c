package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/team-avesta/Eventure-sub001/internal/models"
	"github.com/team-avesta/Eventure-sub001/internal/store"
)

// DefaultMaxUploadBytes caps a screenshot upload at 10 MiB.
const DefaultMaxUploadBytes = 10 << 20

var (
	ErrEmptyUpload     = errors.New("empty upload")
	ErrUploadTooLarge  = errors.New("upload too large")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// allowedTypes maps accepted MIME types to the extension used in blob keys.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// UploadService stores screenshot images and records them in the document.
type UploadService struct {
	store    *store.Store
	maxBytes int64
	log      zerolog.Logger
	newKey   func() string
}

func NewUploadService(st *store.Store, maxBytes int64, log zerolog.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{store: st, maxBytes: maxBytes, log: log, newKey: uuid.NewString}
}

// MaxBytes is the largest accepted image.
func (s *UploadService) MaxBytes() int64 { return s.maxBytes }

// UploadRequest is one screenshot to add to a module. Name defaults to the
// file name without its extension.
type UploadRequest struct {
	ModuleKey string
	Name      string
	FileName  string
	Body      io.Reader
}

// upload is a validated image ready to be written.
type upload struct {
	data        []byte
	contentType string
	ext         string
	width       int
	height      int
}

func (s *UploadService) read(r io.Reader) (*upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	var ct, ext string
	for allowed, e := range allowedTypes {
		if mtype.Is(allowed) {
			ct, ext = allowed, e
			break
		}
	}
	if ct == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d image", ErrUnsupportedType, cfg.Width, cfg.Height)
	}
	return &upload{data: data, contentType: ct, ext: ext, width: cfg.Width, height: cfg.Height}, nil
}

func (s *UploadService) key(moduleKey, ext string) string {
	return fmt.Sprintf("screenshots/%s/%s%s", moduleKey, s.newKey(), ext)
}

// discard removes a blob that was written but never referenced.
func (s *UploadService) discard(ctx context.Context, key string) {
	if err := s.store.Blobs().DeleteObject(ctx, key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to remove unreferenced upload")
	}
}

// Upload validates the image, writes it to blob storage and appends a
// screenshot to the module. When the document write fails the blob is
// removed again.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (models.Screenshot, error) {
	up, err := s.read(req.Body)
	if err != nil {
		return models.Screenshot{}, err
	}
	if _, err := s.store.GetModule(ctx, req.ModuleKey); err != nil {
		return models.Screenshot{}, err
	}

	key := s.key(req.ModuleKey, up.ext)
	if err := s.store.Blobs().PutObject(ctx, key, up.data, up.contentType); err != nil {
		return models.Screenshot{}, &store.PersistenceError{Op: "put", Key: key, Err: err}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		base := path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))
		name = strings.TrimSuffix(base, path.Ext(base))
	}
	if name == "" || name == "." || name == "/" {
		name = "Untitled"
	}

	sc, err := s.store.AppendScreenshot(ctx, req.ModuleKey, models.Screenshot{
		Name:        name,
		URL:         key,
		ContentType: up.contentType,
		Width:       up.width,
		Height:      up.height,
	})
	if err != nil {
		s.discard(ctx, key)
		return models.Screenshot{}, err
	}
	s.log.Info().Str("module", req.ModuleKey).Str("screenshot", sc.ID).
		Int("width", up.width).Int("height", up.height).Msg("screenshot uploaded")
	return sc, nil
}

// ReplaceAsset swaps the image of an existing screenshot. Regions are kept;
// the caller is responsible for supplying an image with the same aspect
// ratio.
func (s *UploadService) ReplaceAsset(ctx context.Context, screenshotID string, body io.Reader) (models.Screenshot, error) {
	up, err := s.read(body)
	if err != nil {
		return models.Screenshot{}, err
	}
	cur, err := s.store.GetScreenshot(ctx, screenshotID)
	if err != nil {
		return models.Screenshot{}, err
	}
	if cur.Width > 0 && cur.Height > 0 && !sameAspect(cur.Width, cur.Height, up.width, up.height) {
		s.log.Warn().Str("screenshot", screenshotID).
			Str("old", fmt.Sprintf("%dx%d", cur.Width, cur.Height)).
			Str("new", fmt.Sprintf("%dx%d", up.width, up.height)).
			Msg("replacement changes aspect ratio; regions will be distorted")
	}

	key := s.key(cur.PageName, up.ext)
	if err := s.store.Blobs().PutObject(ctx, key, up.data, up.contentType); err != nil {
		return models.Screenshot{}, &store.PersistenceError{Op: "put", Key: key, Err: err}
	}
	sc, err := s.store.ReplaceScreenshotAsset(ctx, screenshotID, store.AssetRef{
		URL:         key,
		ContentType: up.contentType,
		Width:       up.width,
		Height:      up.height,
	})
	if err != nil {
		s.discard(ctx, key)
		return models.Screenshot{}, err
	}
	return sc, nil
}

// Asset returns the screenshot record and its image bytes.
func (s *UploadService) Asset(ctx context.Context, screenshotID string) (models.Screenshot, []byte, error) {
	sc, err := s.store.GetScreenshot(ctx, screenshotID)
	if err != nil {
		return models.Screenshot{}, nil, err
	}
	data, err := s.store.Blobs().GetObject(ctx, sc.URL)
	if err != nil {
		return models.Screenshot{}, nil, fmt.Errorf("image for %s: %w", screenshotID, err)
	}
	if sc.ContentType == "" {
		sc.ContentType = mimetype.Detect(data).String()
	}
	return sc, data, nil
}

// sameAspect allows one pixel of rounding on either side.
func sameAspect(w1, h1, w2, h2 int) bool {
	d := w1*h2 - w2*h1
	if d < 0 {
		d = -d
	}
	return d <= w1+h1+w2+h2
}
