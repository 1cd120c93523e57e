package frame

import (
	"image"
	"image/color"
	"testing"
)

func TestFromImageDropsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	f := FromImage(img)
	if f.Width != 2 || f.Height != 1 {
		t.Fatalf("got %dx%d", f.Width, f.Height)
	}
	if r, g, b := f.RGB(0, 0); r != 10 || g != 20 || b != 30 {
		t.Errorf("got %d,%d,%d", r, g, b)
	}
	if r, g, b := f.RGB(1, 0); r != 200 || g != 100 || b != 50 {
		t.Errorf("got %d,%d,%d", r, g, b)
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 8, 7))
	img.SetGray(7, 6, color.Gray{Y: 99})
	f := FromImage(img)
	if f.Width != 3 || f.Height != 2 {
		t.Fatalf("got %dx%d", f.Width, f.Height)
	}
	if r, _, _ := f.RGB(2, 1); r != 99 {
		t.Fatal(r)
	}
}

func TestCrop(t *testing.T) {
	f := New(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			f.set(x, y, uint8(x), uint8(y), 0)
		}
	}
	c := f.Crop(image.Rect(1, 1, 3, 3))
	if c.Width != 2 || c.Height != 2 {
		t.Fatalf("got %dx%d", c.Width, c.Height)
	}
	if r, g, _ := c.RGB(1, 1); r != 2 || g != 2 {
		t.Errorf("got %d,%d", r, g)
	}
	// Out of range rectangles are clipped.
	c = f.Crop(image.Rect(-5, -5, 100, 100))
	if c.Width != 4 || c.Height != 3 {
		t.Fatalf("got %dx%d", c.Width, c.Height)
	}
	c.Pix[0] = 77
	if f.Pix[0] == 77 {
		t.Fatal("crop shares memory with its source")
	}
}

func TestImageOpaque(t *testing.T) {
	f := New(2, 2)
	img := f.Image()
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			t.Fatalf("alpha at %d is %d", i, img.Pix[i])
		}
	}
}
