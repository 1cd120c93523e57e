// Package overlay burns the status line into displayed frames.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// TimeLayout is the displayed clock, e.g. 2024/03/09 07:05:04.
	TimeLayout = "2006/01/02 15:04:05"
	// SavingMarker is appended while snapshots are being saved.
	SavingMarker = "  now saving"
)

// Baseline of the text, in pixels from the top left corner.
var origin = image.Pt(0, 15)

var face font.Face = basicfont.Face7x13

// Text returns the status line for t.
func Text(t time.Time, saving bool) string {
	s := t.Format(TimeLayout)
	if saving {
		s += SavingMarker
	}
	return s
}

// Bounds returns the area that Draw may touch for text, clipped to r.
func Bounds(text string, r image.Rectangle) image.Rectangle {
	d := &font.Drawer{Face: face, Dot: fixed.P(origin.X, origin.Y)}
	b, _ := d.BoundString(text)
	area := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	return area.Intersect(r)
}

// Draw returns a copy of img with text written in white.
func Draw(img image.Image, text string) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(bounds.Min.X+origin.X, bounds.Min.Y+origin.Y),
	}
	d.DrawString(text)
	return out
}
