// Package control turns raw slider positions into the parameters of one
// capture cycle.
package control

import (
	"image"
	"math"

	"philipredstone/netcam/internal/calib"
)

// Control names, in display order.
const (
	Dist1  = "dist1"
	Dist2  = "dist2"
	Dist3  = "dist3"
	Dist4  = "dist4"
	Dist5  = "dist5"
	Height = "height"
	Width  = "width"
)

// Distortion lists the coefficient controls in coefficient order.
var Distortion = [5]string{Dist1, Dist2, Dist3, Dist4, Dist5}

// Distortion slider range. Position SliderCenter is a coefficient of zero.
const (
	SliderMax    = 100
	SliderCenter = 50
	sliderScale  = 10
)

// Surface is anything that can report the current position of a named
// control. Unknown names report 0.
type Surface interface {
	Position(name string) int
}

// SliderToCoeff maps a distortion slider position in [0, 100] to a
// coefficient in [-5, 5].
func SliderToCoeff(pos int) float64 {
	pos = clamp(pos, 0, SliderMax)
	return float64(pos-SliderCenter) / sliderScale
}

// CoeffToSlider is the inverse of SliderToCoeff, rounding to the nearest step.
func CoeffToSlider(v float64) int {
	v = math.Max(calib.MinCoeff, math.Min(calib.MaxCoeff, v))
	return int(math.Round(v*sliderScale)) + SliderCenter
}

// CenteredCrop returns the cropH×cropW rectangle centered in an h×w frame.
// Requested sizes are clamped to [1, h] and [1, w].
func CenteredCrop(h, w, cropH, cropW int) image.Rectangle {
	cropH = clamp(cropH, 1, h)
	cropW = clamp(cropW, 1, w)
	midY, midX := float64(h)/2, float64(w)/2
	halfH, halfW := float64(cropH)/2, float64(cropW)/2
	return image.Rect(
		int(midX-halfW), int(midY-halfH),
		int(midX+halfW), int(midY+halfH),
	)
}

// Reading is the controller output for one cycle.
type Reading struct {
	Coeffs calib.Coeffs
	Crop   image.Rectangle
}

// Read samples every control once for a frame of height h and width w.
func Read(s Surface, h, w int) Reading {
	var r Reading
	for i, name := range Distortion {
		r.Coeffs[i] = SliderToCoeff(s.Position(name))
	}
	r.Crop = CenteredCrop(h, w, s.Position(Height), s.Position(Width))
	return r
}

// Positions is a plain Surface, also used to carry initial positions.
type Positions map[string]int

// Position returns the stored position, 0 for unknown names.
func (p Positions) Position(name string) int {
	return p[name]
}

// Initial returns the starting positions: the given coefficients and a full
// frame crop.
func Initial(d calib.Coeffs, h, w int) Positions {
	p := Positions{Height: h, Width: w}
	for i, name := range Distortion {
		p[name] = CoeffToSlider(d[i])
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
