// Package frame holds the pixel buffer passed between the capture stages.
package frame

import (
	"image"
	"image/color"
)

// Channels is the number of interleaved samples per pixel, in R, G, B order.
const Channels = 3

// Frame is a packed RGB image. A Frame is never modified once a stage hands
// it to the next one; every stage produces a new Frame.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// New returns a black frame of the given size.
func New(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// FromImage converts any decoded image. Alpha is dropped, not composited.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.YCbCr:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, g, bb := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				f.set(x, y, r, g, bb)
			}
		}
	case *image.NRGBA:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				f.set(x, y, src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			}
		}
	case *image.RGBA:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				f.set(x, y, src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			}
		}
	case *image.Gray:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				v := src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
				f.set(x, y, v, v, v)
			}
		}
	default:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				f.set(x, y, c.R, c.G, c.B)
			}
		}
	}
	return f
}

func (f *Frame) set(x, y int, r, g, b uint8) {
	i := (y*f.Width + x) * Channels
	f.Pix[i] = r
	f.Pix[i+1] = g
	f.Pix[i+2] = b
}

// Bounds returns the frame rectangle, anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0
}

// RGB returns the pixel at (x, y).
func (f *Frame) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*f.Width + x) * Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Offset returns the index of the first sample of (x, y) in Pix.
func (f *Frame) Offset(x, y int) int {
	return (y*f.Width + x) * Channels
}

// Crop copies the part of f inside r. r is clipped to the frame bounds.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	r = r.Intersect(f.Bounds())
	out := New(r.Dx(), r.Dy())
	row := out.Width * Channels
	for y := 0; y < out.Height; y++ {
		src := f.Offset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*row:(y+1)*row], f.Pix[src:src+row])
	}
	return out
}

// Image returns an opaque NRGBA copy suitable for encoders and widgets.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(f.Bounds())
	for i, j := 0, 0; i < len(f.Pix); i, j = i+Channels, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
