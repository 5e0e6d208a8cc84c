package service

import (
	"bytes"
	"context"
	"io"

	"github.com/team-avesta/Eventure-sub001/internal/render"
)

// Export writes the screenshot as a PNG with its regions drawn on top.
func (s *UploadService) Export(ctx context.Context, screenshotID string, w io.Writer, opts render.Options) error {
	sc, data, err := s.Asset(ctx, screenshotID)
	if err != nil {
		return err
	}
	return render.EncodePNG(w, bytes.NewReader(data), sc.Events, opts)
}
