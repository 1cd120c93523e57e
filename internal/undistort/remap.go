package undistort

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"philipredstone/netcam/internal/calib"
	"philipredstone/netcam/internal/frame"
)

// Map holds, for every destination pixel, the source coordinate to sample.
// X and Y are row-major, Width×Height each.
type Map struct {
	Width, Height int
	X, Y          []float32
}

// BuildMap computes the undistortion lookup table. Each destination pixel is
// taken back through newK and the rectification r (nil means identity) to a
// normalized ray, distorted by d and projected with k. The result only
// depends on its arguments.
func BuildMap(k calib.Intrinsics, d calib.Coeffs, r mat.Matrix, newK calib.Intrinsics, w, h int) (*Map, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("invalid map size %dx%d", w, h)
	}
	if r == nil {
		r = identity()
	}
	var kr, ir mat.Dense
	kr.Mul(newK.Matrix(), r)
	if err := ir.Inverse(&kr); err != nil {
		return nil, errors.Wrap(err, "new camera matrix is singular")
	}

	m := &Map{
		Width:  w,
		Height: h,
		X:      make([]float32, w*h),
		Y:      make([]float32, w*h),
	}
	ir00, ir01, ir02 := ir.At(0, 0), ir.At(0, 1), ir.At(0, 2)
	ir10, ir11, ir12 := ir.At(1, 0), ir.At(1, 1), ir.At(1, 2)
	ir20, ir21, ir22 := ir.At(2, 0), ir.At(2, 1), ir.At(2, 2)
	for i := 0; i < h; i++ {
		fi := float64(i)
		// Ray of pixel (0, i); moving one column right adds the first column of ir.
		rx := fi*ir01 + ir02
		ry := fi*ir11 + ir12
		rw := fi*ir21 + ir22
		row := i * w
		for j := 0; j < w; j++ {
			iw := 1 / rw
			x, y := d.Distort(rx*iw, ry*iw)
			u, v := k.Project(x, y)
			m.X[row+j] = float32(u)
			m.Y[row+j] = float32(v)

			rx += ir00
			ry += ir10
			rw += ir20
		}
	}
	return m, nil
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

// cubicA is the Keys kernel parameter used for bicubic sampling.
const cubicA = -0.75

func cubicWeights(t float32) [4]float32 {
	const a = cubicA
	var w [4]float32
	w[0] = ((a*(t+1)-5*a)*(t+1)+8*a)*(t+1) - 4*a
	w[1] = ((a+2)*t-(a+3))*t*t + 1
	w[2] = ((a+2)*(1-t)-(a+3))*(1-t)*(1-t) + 1
	w[3] = 1 - w[0] - w[1] - w[2]
	return w
}

// Resample builds a new frame of the map's size by sampling src at the mapped
// coordinates with bicubic interpolation. Pixels mapped outside the area
// covered by src, [-0.5, W-0.5]×[-0.5, H-0.5], are black. Taps of the 4×4
// neighbourhood that fall past the edge repeat the edge pixel.
func Resample(src *frame.Frame, m *Map) *frame.Frame {
	dst := frame.New(m.Width, m.Height)
	if src.Empty() {
		return dst
	}
	maxX := float32(src.Width) - 0.5
	maxY := float32(src.Height) - 0.5
	var xs, ys [4]int
	for i := range m.X {
		sx, sy := m.X[i], m.Y[i]
		if !(sx >= -0.5 && sy >= -0.5 && sx <= maxX && sy <= maxY) {
			continue
		}
		x0 := int(math.Floor(float64(sx)))
		y0 := int(math.Floor(float64(sy)))
		wx := cubicWeights(sx - float32(x0))
		wy := cubicWeights(sy - float32(y0))
		for n := 0; n < 4; n++ {
			xs[n] = clamp(x0-1+n, src.Width-1)
			ys[n] = clamp(y0-1+n, src.Height-1)
		}

		var acc [frame.Channels]float32
		for row := 0; row < 4; row++ {
			if wy[row] == 0 {
				continue
			}
			var line [frame.Channels]float32
			base := ys[row] * src.Width
			for col := 0; col < 4; col++ {
				if wx[col] == 0 {
					continue
				}
				p := (base + xs[col]) * frame.Channels
				line[0] += wx[col] * float32(src.Pix[p])
				line[1] += wx[col] * float32(src.Pix[p+1])
				line[2] += wx[col] * float32(src.Pix[p+2])
			}
			acc[0] += wy[row] * line[0]
			acc[1] += wy[row] * line[1]
			acc[2] += wy[row] * line[2]
		}
		o := i * frame.Channels
		dst.Pix[o] = saturate(acc[0])
		dst.Pix[o+1] = saturate(acc[1])
		dst.Pix[o+2] = saturate(acc[2])
	}
	return dst
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func saturate(v float32) uint8 {
	v += 0.5
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
