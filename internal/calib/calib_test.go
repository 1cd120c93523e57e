package calib

import (
	"math"
	"testing"
)

func TestNewIntrinsics(t *testing.T) {
	testCases := []struct {
		name string
		h, w int
		want Intrinsics
	}{
		{"landscape", 480, 640, Intrinsics{Fx: 640, Fy: 640, Cx: 320, Cy: 240}},
		{"portrait", 640, 480, Intrinsics{Fx: 640, Fy: 640, Cx: 240, Cy: 320}},
		{"odd", 5, 3, Intrinsics{Fx: 5, Fy: 5, Cx: 1.5, Cy: 2.5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewIntrinsics(tc.h, tc.w)
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
			if back := IntrinsicsFromMatrix(got.Matrix()); back != got {
				t.Errorf("matrix round trip: got %+v", back)
			}
			if s := got.Matrix().At(0, 1); s != 0 {
				t.Errorf("skew %g", s)
			}
		})
	}
}

func TestNormalizeProject(t *testing.T) {
	k := NewIntrinsics(480, 640)
	x, y := k.Normalize(320, 240)
	if x != 0 || y != 0 {
		t.Fatalf("principal point normalized to %g,%g", x, y)
	}
	u, v := k.Project(k.Normalize(17, 401))
	if math.Abs(u-17) > 1e-9 || math.Abs(v-401) > 1e-9 {
		t.Fatalf("got %g,%g", u, v)
	}
}

func TestDistortZero(t *testing.T) {
	var c Coeffs
	x, y := c.Distort(0.3, -0.2)
	if x != 0.3 || y != -0.2 {
		t.Fatalf("got %g,%g", x, y)
	}
}

func TestDistortKnownValue(t *testing.T) {
	c := Coeffs{0.1, 0, 0, 0, 0}
	// r² = 0.25, radial = 1.025
	x, y := c.Distort(0.5, 0)
	if math.Abs(x-0.5125) > 1e-12 || y != 0 {
		t.Fatalf("got %g,%g", x, y)
	}
	c = Coeffs{0, 0, 0.01, 0, 0}
	// y_d = y + p1·(r² + 2y²) = 0.5 + 0.01·0.75
	x, y = c.Distort(0, 0.5)
	if x != 0 || math.Abs(y-0.5075) > 1e-12 {
		t.Fatalf("got %g,%g", x, y)
	}
}

func TestUndistortInvertsDistort(t *testing.T) {
	coeffs := []Coeffs{
		{0.1, 0.05, 0, 0, 0},
		{-0.2, 0.03, 0.001, -0.002, 0.01},
		{0.3, 0, 0.01, 0.01, 0},
		{-0.05, -0.01, 0, 0, 0.002},
	}
	for _, c := range coeffs {
		for _, p := range [][2]float64{{0, 0}, {0.1, 0.2}, {-0.4, 0.3}, {0.5, -0.35}} {
			xd, yd := c.Distort(p[0], p[1])
			xu, yu, ok := c.UndistortPoint(xd, yd)
			if !ok || math.Abs(xu-p[0]) > 1e-8 || math.Abs(yu-p[1]) > 1e-8 {
				t.Errorf("%v: %v -> %g,%g", c, p, xu, yu)
			}
		}
	}
}

func TestUndistortPastFold(t *testing.T) {
	// u·(1 - u²) peaks at u = 1/√3 with value ≈ 0.385.
	c := Coeffs{-1, 0, 0, 0, 0}

	if _, _, ok := c.UndistortPoint(0.7, 0); ok {
		t.Error("point past the fold reported as invertible")
	}
	if x, y := c.Undistort(0.7, 0); x != 0.7 || y != 0 {
		t.Errorf("Undistort past the fold = %g,%g, want the input", x, y)
	}
	if _, _, ok := c.UndistortPoint(0.5, 0.5); ok {
		t.Error("corner past the fold reported as invertible")
	}

	xu, yu, ok := c.UndistortPoint(0.3, 0)
	if !ok {
		t.Fatal("point inside the fold not inverted")
	}
	if xu <= 0.3 || xu >= 1/math.Sqrt(3) || yu != 0 {
		t.Errorf("inverse %g,%g not on the inner branch", xu, yu)
	}
	if xd, _ := c.Distort(xu, yu); math.Abs(xd-0.3) > 1e-10 {
		t.Errorf("Distort(inverse) = %g", xd)
	}
}

func TestClamp(t *testing.T) {
	c := Coeffs{-9, 9, 1, 0, -5}.Clamp()
	want := Coeffs{-5, 5, 1, 0, -5}
	if c != want {
		t.Fatalf("got %v", c)
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel(480, 640, Coeffs{1})
	if m.Width != 640 || m.Height != 480 || m.K.Fx != 640 || m.D.K1() != 1 {
		t.Fatalf("got %+v", m)
	}
}
