// Package caption draws the picture title onto a downloaded image.
package caption

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

const (
	padding = 4
	margin  = 24
)

// Overlay renders a caption band in the bottom left corner of an image, in place.
type Overlay struct {
	// Scale enlarges the 7x13 bitmap glyphs. Values below 1 are treated as 1.
	Scale int
}

var _ provider.CaptionOverlay = (*Overlay)(nil)

// New creates an overlay with the given glyph scale.
func New(scale int) *Overlay {
	return &Overlay{Scale: scale}
}

// Overlay draws text onto the image at path and rewrites it atomically.
func (o *Overlay) Overlay(ctx context.Context, path, text string) error {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	label := renderLabel(text)
	scale := o.Scale
	if scale < 1 {
		scale = 1
	}
	bounds := src.Bounds()
	for scale > 1 && label.Bounds().Dx()*scale > bounds.Dx()-2*margin {
		scale--
	}
	if scale > 1 {
		label = imaging.Resize(label, label.Bounds().Dx()*scale, 0, imaging.NearestNeighbor)
	}

	pos := image.Pt(margin, bounds.Dy()-label.Bounds().Dy()-margin)
	if pos.Y < 0 {
		pos.Y = 0
	}
	out := imaging.Overlay(src, label, pos, 1.0)

	if err := ctx.Err(); err != nil {
		return err
	}
	return saveAtomic(out, path)
}

// renderLabel draws white text on a translucent black band.
func renderLabel(text string) *image.NRGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	w := font.MeasureString(face, text).Ceil() + 2*padding
	h := metrics.Height.Ceil() + 2*padding

	label := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(label, label.Bounds(), &image.Uniform{C: color.NRGBA{A: 160}}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  label,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(padding, padding+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
	return label
}

// saveAtomic encodes img next to path and renames it over the original.
func saveAtomic(img image.Image, path string) error {
	ext := filepath.Ext(path)
	tmp := filepath.Join(filepath.Dir(path), ".caption-"+uuid.NewString()+ext)
	if err := imaging.Save(img, tmp, imaging.JPEGQuality(95)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("encode captioned image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
