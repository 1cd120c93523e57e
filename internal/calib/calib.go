// Package calib builds the synthetic pinhole camera and the Brown-Conrady
// lens model that the undistortion engine inverts.
//
// Coordinates handled here are normalized image coordinates: pixel
// coordinates with the principal point subtracted and divided by the focal
// length.
package calib

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Coefficient limits of the tuning controls.
const (
	MinCoeff  = -5.0
	MaxCoeff  = 5.0
	CoeffStep = 0.1
)

// Intrinsics is a zero-skew pinhole camera matrix
//
//	| Fx  0  Cx |
//	|  0 Fy  Cy |
//	|  0  0   1 |
type Intrinsics struct {
	Fx, Fy float64
	Cx, Cy float64
}

// NewIntrinsics returns the camera assumed for a frame of height h and width
// w: focal length max(h, w), principal point at the frame center.
func NewIntrinsics(h, w int) Intrinsics {
	f := float64(w)
	if h > w {
		f = float64(h)
	}
	return Intrinsics{
		Fx: f,
		Fy: f,
		Cx: float64(w) / 2,
		Cy: float64(h) / 2,
	}
}

// Matrix returns the 3×3 camera matrix.
func (k Intrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		k.Fx, 0, k.Cx,
		0, k.Fy, k.Cy,
		0, 0, 1,
	})
}

// IntrinsicsFromMatrix reads back a camera matrix. Skew is ignored.
func IntrinsicsFromMatrix(m mat.Matrix) Intrinsics {
	return Intrinsics{
		Fx: m.At(0, 0),
		Fy: m.At(1, 1),
		Cx: m.At(0, 2),
		Cy: m.At(1, 2),
	}
}

// Normalize maps a pixel to normalized coordinates.
func (k Intrinsics) Normalize(u, v float64) (float64, float64) {
	return (u - k.Cx) / k.Fx, (v - k.Cy) / k.Fy
}

// Project maps normalized coordinates to a pixel.
func (k Intrinsics) Project(x, y float64) (float64, float64) {
	return k.Fx*x + k.Cx, k.Fy*y + k.Cy
}

// Coeffs holds the distortion coefficients in the usual order
// k1, k2, p1, p2, k3: three radial terms and two tangential ones.
type Coeffs [5]float64

// Named accessors for the individual terms.
func (c Coeffs) K1() float64 { return c[0] }
func (c Coeffs) K2() float64 { return c[1] }
func (c Coeffs) P1() float64 { return c[2] }
func (c Coeffs) P2() float64 { return c[3] }
func (c Coeffs) K3() float64 { return c[4] }

// IsZero reports whether c describes a distortion free lens.
func (c Coeffs) IsZero() bool {
	return c == Coeffs{}
}

// Clamp limits each coefficient to [MinCoeff, MaxCoeff].
func (c Coeffs) Clamp() Coeffs {
	for i, v := range c {
		c[i] = math.Max(MinCoeff, math.Min(MaxCoeff, v))
	}
	return c
}

// Distort applies the forward model to an undistorted normalized point:
//
//	x_d = x·(1 + k1·r² + k2·r⁴ + k3·r⁶) + 2·p1·x·y + p2·(r² + 2·x²)
//	y_d = y·(1 + k1·r² + k2·r⁴ + k3·r⁶) + p1·(r² + 2·y²) + 2·p2·x·y
func (c Coeffs) Distort(x, y float64) (float64, float64) {
	r2 := x*x + y*y
	radial := 1 + ((c.K3()*r2+c.K2())*r2+c.K1())*r2
	xy2 := 2 * x * y
	xd := x*radial + c.P1()*xy2 + c.P2()*(r2+2*x*x)
	yd := y*radial + c.P1()*(r2+2*y*y) + c.P2()*xy2
	return xd, yd
}

// Undistort inverts Distort. When the model cannot be inverted at the point
// the distorted point is returned as is.
func (c Coeffs) Undistort(xd, yd float64) (float64, float64) {
	xu, yu, ok := c.UndistortPoint(xd, yd)
	if !ok {
		return xd, yd
	}
	return xu, yu
}

// UndistortPoint inverts Distort with Newton-Raphson iterations and reports
// whether a proper inverse was found. Strong barrel terms fold the model
// back on itself: distorted points past the fold have no inverse, and roots
// found beyond it (where the radial factor or the Jacobian turns
// non-positive) belong to another part of the image. Both report false.
func (c Coeffs) UndistortPoint(xd, yd float64) (float64, float64, bool) {
	if c.IsZero() {
		return xd, yd, true
	}
	const (
		maxIterations = 50
		tolerance     = 1e-12
	)
	k1, k2, k3, p1, p2 := c.K1(), c.K2(), c.K3(), c.P1(), c.P2()
	xu, yu := xd, yd
	for i := 0; i < maxIterations; i++ {
		r2 := xu*xu + yu*yu
		r4 := r2 * r2
		radial := 1 + k1*r2 + k2*r4 + k3*r4*r2

		ex := xu*radial + 2*p1*xu*yu + p2*(r2+2*xu*xu) - xd
		ey := yu*radial + p1*(r2+2*yu*yu) + 2*p2*xu*yu - yd

		dr := 2 * (k1 + 2*k2*r2 + 3*k3*r4)
		dxdx := radial + xu*xu*dr + 2*p1*yu + 6*p2*xu
		dxdy := xu*yu*dr + 2*p1*xu + 2*p2*yu
		dydx := xu*yu*dr + 2*p1*xu + 2*p2*yu
		dydy := radial + yu*yu*dr + 6*p1*yu + 2*p2*xu
		det := dxdx*dydy - dxdy*dydx

		if ex*ex+ey*ey < tolerance*tolerance {
			if radial <= 0 || det <= 0 || !finite(xu) || !finite(yu) {
				return xd, yd, false
			}
			return xu, yu, true
		}
		if det == 0 || !finite(det) {
			return xd, yd, false
		}
		xu -= (dydy*ex - dxdy*ey) / det
		yu -= (-dydx*ex + dxdx*ey) / det
	}
	return xd, yd, false
}

// Model is the camera and lens assumed for one frame size.
type Model struct {
	Width, Height int
	K             Intrinsics
	D             Coeffs
}

// NewModel derives the model for an h×w frame and the given coefficients.
func NewModel(h, w int, d Coeffs) Model {
	return Model{
		Width:  w,
		Height: h,
		K:      NewIntrinsics(h, w),
		D:      d,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
