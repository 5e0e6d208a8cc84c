package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// ─────────────────────────────────────
// Modules
// ─────────────────────────────────────

// CreateModule adds an empty module at the end of the document.
func (s *Store) CreateModule(ctx context.Context, key, name string) (models.Module, error) {
	key, name = strings.TrimSpace(key), strings.TrimSpace(name)
	if key == "" {
		return models.Module{}, fmt.Errorf("%w: key is required", ErrInvalidModule)
	}
	if name == "" {
		name = key
	}
	mod := models.Module{
		ID:          s.newID(),
		Key:         key,
		Name:        name,
		Screenshots: []models.Screenshot{},
	}
	err := s.mutate(ctx, "create_module", func(doc *models.Document) error {
		if doc.FindModule(key) >= 0 {
			return fmt.Errorf("%w: %s", ErrModuleExists, key)
		}
		doc.Modules = append(doc.Modules, mod)
		return nil
	})
	if err != nil {
		return models.Module{}, err
	}
	return mod, nil
}

func (s *Store) GetModule(ctx context.Context, key string) (models.Module, error) {
	doc, err := s.GetDocument(ctx)
	if err != nil {
		return models.Module{}, err
	}
	i := doc.FindModule(key)
	if i < 0 {
		return models.Module{}, fmt.Errorf("%w: %s", ErrModuleNotFound, key)
	}
	return doc.Modules[i], nil
}

// ReorderScreenshots rearranges a module's screenshots to follow orderedIDs,
// which must name every existing screenshot exactly once.
func (s *Store) ReorderScreenshots(ctx context.Context, moduleKey string, orderedIDs []string) (models.Module, error) {
	var out models.Module
	err := s.mutate(ctx, "reorder_screenshots", func(doc *models.Document) error {
		i := doc.FindModule(moduleKey)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrModuleNotFound, moduleKey)
		}
		m := &doc.Modules[i]
		if len(orderedIDs) != len(m.Screenshots) {
			return fmt.Errorf("%w: got %d ids for %d screenshots", ErrOrderMismatch, len(orderedIDs), len(m.Screenshots))
		}
		byID := make(map[string]models.Screenshot, len(m.Screenshots))
		for _, sc := range m.Screenshots {
			byID[sc.ID] = sc
		}
		reordered := make([]models.Screenshot, 0, len(orderedIDs))
		for _, id := range orderedIDs {
			sc, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: unknown or repeated id %s", ErrOrderMismatch, id)
			}
			delete(byID, id)
			reordered = append(reordered, sc)
		}
		m.Screenshots = reordered
		out = *m
		return nil
	})
	if err != nil {
		return models.Module{}, err
	}
	return out, nil
}

// ─────────────────────────────────────
// Screenshots
// ─────────────────────────────────────

// AppendScreenshot adds sc to the end of a module. ID, PageName, Status and
// timestamps are filled in when empty.
func (s *Store) AppendScreenshot(ctx context.Context, moduleKey string, sc models.Screenshot) (models.Screenshot, error) {
	now := s.now()
	if sc.ID == "" {
		sc.ID = s.newID()
	}
	sc.PageName = moduleKey
	if sc.Status == "" {
		sc.Status = models.StatusTodo
	}
	if !models.IsValidStatus(string(sc.Status)) {
		return models.Screenshot{}, fmt.Errorf("%w: %s", ErrInvalidStatus, sc.Status)
	}
	sc.CreatedAt, sc.UpdatedAt = now, now
	if sc.Events == nil {
		sc.Events = []models.Region{}
	}
	err := s.mutate(ctx, "append_screenshot", func(doc *models.Document) error {
		i := doc.FindModule(moduleKey)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrModuleNotFound, moduleKey)
		}
		if _, _, ok := doc.FindScreenshot(sc.ID); ok {
			return fmt.Errorf("%w: %s", ErrScreenshotExists, sc.ID)
		}
		doc.Modules[i].Screenshots = append(doc.Modules[i].Screenshots, sc)
		return nil
	})
	if err != nil {
		return models.Screenshot{}, err
	}
	return sc, nil
}

func (s *Store) GetScreenshot(ctx context.Context, id string) (models.Screenshot, error) {
	doc, err := s.GetDocument(ctx)
	if err != nil {
		return models.Screenshot{}, err
	}
	m, idx, ok := doc.FindScreenshot(id)
	if !ok {
		return models.Screenshot{}, fmt.Errorf("%w: %s", ErrScreenshotNotFound, id)
	}
	return m.Screenshots[idx], nil
}

// ScreenshotPatch lists the metadata fields UpdateScreenshot may change.
// Nil fields are left alone.
type ScreenshotPatch struct {
	Name    *string        `json:"name"`
	Status  *models.Status `json:"status"`
	LabelID *string        `json:"labelId"`
}

func (s *Store) UpdateScreenshot(ctx context.Context, id string, patch ScreenshotPatch) (models.Screenshot, error) {
	if patch.Status != nil && !models.IsValidStatus(string(*patch.Status)) {
		return models.Screenshot{}, fmt.Errorf("%w: %s", ErrInvalidStatus, *patch.Status)
	}
	var out models.Screenshot
	err := s.mutate(ctx, "update_screenshot", func(doc *models.Document) error {
		m, idx, ok := doc.FindScreenshot(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrScreenshotNotFound, id)
		}
		sc := &m.Screenshots[idx]
		if patch.Name != nil {
			sc.Name = *patch.Name
		}
		if patch.Status != nil {
			sc.Status = *patch.Status
		}
		if patch.LabelID != nil {
			sc.LabelID = *patch.LabelID
		}
		sc.UpdatedAt = s.now()
		out = *sc
		return nil
	})
	if err != nil {
		return models.Screenshot{}, err
	}
	return out, nil
}

// DeleteScreenshot removes the screenshot and its regions, then its image.
func (s *Store) DeleteScreenshot(ctx context.Context, id string) error {
	var assetKey string
	err := s.mutate(ctx, "delete_screenshot", func(doc *models.Document) error {
		m, idx, ok := doc.FindScreenshot(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrScreenshotNotFound, id)
		}
		assetKey = m.Screenshots[idx].URL
		m.Screenshots = append(m.Screenshots[:idx], m.Screenshots[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	s.deleteBlob(ctx, assetKey)
	return nil
}

// AssetRef points a screenshot at a stored image. Zero Width, Height or
// ContentType keep the screenshot's current values.
type AssetRef struct {
	URL         string
	ContentType string
	Width       int
	Height      int
}

// ReplaceScreenshotAsset swaps the image behind a screenshot and leaves its
// regions untouched. The previous image is deleted only once the document
// write has succeeded.
//
// Region coordinates stay valid only if the new image keeps the old aspect
// ratio; that is up to the caller.
func (s *Store) ReplaceScreenshotAsset(ctx context.Context, screenshotID string, ref AssetRef) (models.Screenshot, error) {
	if strings.TrimSpace(ref.URL) == "" {
		return models.Screenshot{}, fmt.Errorf("%w: empty url", ErrInvalidAsset)
	}
	var (
		out    models.Screenshot
		oldKey string
	)
	err := s.mutate(ctx, "replace_asset", func(doc *models.Document) error {
		m, idx, ok := doc.FindScreenshot(screenshotID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrScreenshotNotFound, screenshotID)
		}
		sc := &m.Screenshots[idx]
		oldKey = sc.URL
		sc.URL = ref.URL
		if ref.ContentType != "" {
			sc.ContentType = ref.ContentType
		}
		if ref.Width > 0 && ref.Height > 0 {
			sc.Width, sc.Height = ref.Width, ref.Height
		}
		sc.UpdatedAt = s.now()
		out = *sc
		return nil
	})
	if err != nil {
		return models.Screenshot{}, err
	}
	if oldKey != ref.URL {
		s.deleteBlob(ctx, oldKey)
	}
	return out, nil
}
