package store

import (
	"context"
	"fmt"

	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// UpsertRegion validates region and stores it on the screenshot, replacing
// an existing region with the same id in place or appending a new one.
func (s *Store) UpsertRegion(ctx context.Context, screenshotID string, region models.Region) (models.Region, error) {
	if err := region.Validate(); err != nil {
		return models.Region{}, err
	}
	if region.Dimensions == nil {
		region.Dimensions = []string{}
	}
	err := s.mutate(ctx, "upsert_region", func(doc *models.Document) error {
		m, idx, ok := doc.FindScreenshot(screenshotID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrScreenshotNotFound, screenshotID)
		}
		if owner := doc.RegionOwner(region.ID); owner != "" && owner != screenshotID {
			return fmt.Errorf("%w: %s is on %s", ErrRegionIDConflict, region.ID, owner)
		}
		sc := &m.Screenshots[idx]
		if i := sc.FindRegion(region.ID); i >= 0 {
			sc.Events[i] = region
		} else {
			sc.Events = append(sc.Events, region)
		}
		sc.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return models.Region{}, err
	}
	return region, nil
}

// DeleteRegion removes a region from the screenshot. A region that is not
// there is ignored and nothing is written.
func (s *Store) DeleteRegion(ctx context.Context, screenshotID, regionID string) error {
	return s.mutate(ctx, "delete_region", func(doc *models.Document) error {
		m, idx, ok := doc.FindScreenshot(screenshotID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrScreenshotNotFound, screenshotID)
		}
		sc := &m.Screenshots[idx]
		i := sc.FindRegion(regionID)
		if i < 0 {
			return errUnchanged
		}
		sc.Events = append(sc.Events[:i], sc.Events[i+1:]...)
		sc.UpdatedAt = s.now()
		return nil
	})
}
