//go:build opencv

package undistort

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"philipredstone/netcam/internal/calib"
	"philipredstone/netcam/internal/frame"
)

// OpenCVBackend is the name the OpenCV implementation registers under.
const OpenCVBackend = "opencv"

func init() {
	Register(OpenCVBackend, func() Undistorter { return &cvEngine{} })
}

// cvEngine does the same work as Engine through OpenCV. It recomputes the
// maps on every call.
type cvEngine struct{}

func (cvEngine) Undistort(f *frame.Frame, d calib.Coeffs) (*frame.Frame, error) {
	if f.Empty() {
		return nil, errors.New("cannot undistort an empty frame")
	}
	src, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return nil, errors.Wrap(err, "frame to mat")
	}
	defer src.Close()

	k := calib.NewIntrinsics(f.Height, f.Width)
	camera := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer camera.Close()
	rot := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer rot.Close()
	km := k.Matrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			camera.SetDoubleAt(r, c, km.At(r, c))
			if r == c {
				rot.SetDoubleAt(r, c, 1)
			} else {
				rot.SetDoubleAt(r, c, 0)
			}
		}
	}
	dist := gocv.NewMatWithSize(1, 5, gocv.MatTypeCV64F)
	defer dist.Close()
	for i, v := range d {
		dist.SetDoubleAt(0, i, v)
	}

	size := image.Pt(f.Width, f.Height)
	newCamera, _ := gocv.GetOptimalNewCameraMatrixWithParams(camera, dist, size, 1, size, false)
	defer newCamera.Close()

	mapX := gocv.NewMat()
	defer mapX.Close()
	mapY := gocv.NewMat()
	defer mapY.Close()
	gocv.InitUndistortRectifyMap(camera, dist, rot, newCamera, size, int(gocv.MatTypeCV32F), mapX, mapY)

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Remap(src, &dst, &mapX, &mapY, gocv.InterpolationCubic, gocv.BorderConstant, color.RGBA{})

	out := frame.New(f.Width, f.Height)
	copy(out.Pix, dst.ToBytes())
	return out, nil
}
