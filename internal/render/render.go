// Package render draws a screenshot's regions onto the image, coloured by
// event type and labelled with the event name.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/team-avesta/Eventure-sub001/internal/eventtype"
	"github.com/team-avesta/Eventure-sub001/internal/geometry"
	"github.com/team-avesta/Eventure-sub001/internal/models"
)

type Options struct {
	// Thickness of the region outline in output pixels. Defaults to 2.
	Thickness int
	// MaxWidth scales the output down when the image is wider. 0 keeps the
	// natural size.
	MaxWidth int
	// Highlight is drawn with a thicker outline.
	Highlight string
	// NoLabels skips the text tags.
	NoLabels bool
}

const (
	labelPadX   = 3
	labelHeight = 15
	fillAlpha   = 48
)

// Annotate returns a copy of src with every region drawn on it. Regions are
// drawn in order so later ones sit on top.
func Annotate(src image.Image, regions []models.Region, opts Options) (*image.RGBA, error) {
	if opts.Thickness <= 0 {
		opts.Thickness = 2
	}
	dst := scaled(src, opts.MaxWidth)
	size := geometry.Size{Width: float64(dst.Bounds().Dx()), Height: float64(dst.Bounds().Dy())}

	for _, r := range regions {
		px, err := geometry.PercentToPixels(r.Coordinates, size)
		if err != nil {
			return nil, err
		}
		rect := toImageRect(px).Add(dst.Bounds().Min).Intersect(dst.Bounds())
		if rect.Empty() {
			continue
		}

		attrs := eventtype.Pending
		if t := r.EventType(); t != "" {
			if attrs, err = eventtype.Resolve(t); err != nil {
				return nil, fmt.Errorf("region %s: %w", r.ID, err)
			}
		}

		fill := attrs.Color
		fill.A = fillAlpha
		draw.Draw(dst, rect, &image.Uniform{C: premultiply(fill)}, image.Point{}, draw.Over)

		thick := opts.Thickness
		if r.ID == opts.Highlight {
			thick *= 2
		}
		drawRect(dst, rect, attrs.Color, thick)

		if !opts.NoLabels {
			drawLabel(dst, rect, label(r, attrs), attrs.Color)
		}
	}
	return dst, nil
}

// EncodePNG decodes an image, annotates it and writes the result as PNG.
func EncodePNG(w io.Writer, src io.Reader, regions []models.Region, opts Options) error {
	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}
	out, err := Annotate(img, regions, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, out)
}

func scaled(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	h := int(math.Round(float64(b.Dy()) * float64(maxWidth) / float64(b.Dx())))
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// toImageRect rounds outward so a region never loses its edge pixels.
func toImageRect(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.StartX)),
		int(math.Floor(r.StartY)),
		int(math.Ceil(r.EndX())),
		int(math.Ceil(r.EndY())),
	)
}

func label(r models.Region, attrs eventtype.Attributes) string {
	rec := r.Record()
	switch {
	case rec.Name != "":
		return fmt.Sprintf("%s: %s", attrs.DisplayName, rec.Name)
	case rec.Action != "":
		return fmt.Sprintf("%s: %s", attrs.DisplayName, rec.Action)
	}
	return attrs.DisplayName
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{C: col}
	for i := 0; i < thick; i++ {
		r := rect.Inset(i)
		if r.Empty() {
			return
		}
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	}
}

// drawLabel puts a filled tag above the region, or inside its top edge when
// there is no room above.
func drawLabel(img *image.RGBA, rect image.Rectangle, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	meas := &font.Drawer{Face: face}
	w := meas.MeasureString(text).Ceil() + 2*labelPadX

	top := rect.Min.Y - labelHeight
	if top < img.Bounds().Min.Y {
		top = rect.Min.Y
	}
	tag := image.Rect(rect.Min.X, top, rect.Min.X+w, top+labelHeight).Intersect(img.Bounds())
	if tag.Empty() {
		return
	}
	draw.Draw(img, tag, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.White, Face: face,
		Dot: fixed.P(tag.Min.X+labelPadX, tag.Min.Y+labelHeight-3)}
	d.DrawString(text)
}

func premultiply(c color.RGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}
