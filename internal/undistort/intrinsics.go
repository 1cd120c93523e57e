package undistort

import (
	"math"

	"philipredstone/netcam/internal/calib"
)

// gridSize is the number of sample points per axis used to find the
// undistorted image extent. The grid spans [0, w]×[0, h] so it is symmetric
// about the principal point.
const gridSize = 9

// OptimalIntrinsics returns the camera matrix that keeps every source pixel
// inside the corrected image (alpha = 1): the bounding box of the undistorted
// sample grid is mapped onto the w×h viewport. When no finite bounding box
// can be found, m.K is returned unchanged. A distortion free model maps
// onto itself. Grid points the lens model cannot invert are left out, so
// strong barrel settings zoom onto the part of the frame that still has a
// proper inverse.
func OptimalIntrinsics(m calib.Model) calib.Intrinsics {
	k, d, w, h := m.K, m.D, m.Width, m.Height
	if w < 2 || h < 2 || d.IsZero() {
		return k
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for j := 0; j < gridSize; j++ {
		for i := 0; i < gridSize; i++ {
			u := float64(i) * float64(w) / (gridSize - 1)
			v := float64(j) * float64(h) / (gridSize - 1)
			x, y := k.Normalize(u, v)
			x, y, ok := d.UndistortPoint(x, y)
			if !ok {
				continue
			}
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	width, height := maxX-minX, maxY-minY
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return k
	}
	fx := float64(w-1) / width
	fy := float64(h-1) / height
	return calib.Intrinsics{
		Fx: fx,
		Fy: fy,
		Cx: -fx * minX,
		Cy: -fy * minY,
	}
}
