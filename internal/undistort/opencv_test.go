//go:build opencv

package undistort

import (
	"testing"

	"philipredstone/netcam/internal/calib"
)

// Both backends must agree away from the borders.
func TestOpenCVMatchesEngine(t *testing.T) {
	src := pattern(96, 72)
	d := calib.Coeffs{0.2, -0.05, 0.001, 0.002, 0}

	cv, err := New(OpenCVBackend)
	if err != nil {
		t.Fatal(err)
	}
	want, err := NewEngine().Undistort(src, d)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cv.Undistort(src, d)
	if err != nil {
		t.Fatal(err)
	}
	const margin = 8
	worst := 0
	for y := margin; y < src.Height-margin; y++ {
		for x := margin; x < src.Width-margin; x++ {
			i := want.Offset(x, y)
			for c := 0; c < 3; c++ {
				if d := absDiff(want.Pix[i+c], got.Pix[i+c]); d > worst {
					worst = d
				}
			}
		}
	}
	if worst > 6 {
		t.Fatalf("backends differ by up to %d levels", worst)
	}
}
