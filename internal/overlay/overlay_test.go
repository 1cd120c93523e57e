package overlay

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestText(t *testing.T) {
	at := time.Date(2024, 3, 9, 7, 5, 4, 0, time.UTC)
	if got := Text(at, false); got != "2024/03/09 07:05:04" {
		t.Errorf("got %q", got)
	}
	if got := Text(at, true); got != "2024/03/09 07:05:04  now saving" {
		t.Errorf("got %q", got)
	}
}

func TestDrawOnlyTouchesTextArea(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 320, 40))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}
	text := Text(time.Now(), true)
	out := Draw(src, text)
	area := Bounds(text, src.Bounds())
	if area.Empty() {
		t.Fatal("empty text area")
	}

	lit := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 320; x++ {
			c := out.RGBAAt(x, y)
			p := image.Pt(x, y)
			if !p.In(area) {
				if c != (color.RGBA{A: 0xff}) {
					t.Fatalf("pixel %v outside the text changed to %v", p, c)
				}
				continue
			}
			if c.R > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("no text drawn")
	}
}

func TestDrawDoesNotModifySource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 20))
	Draw(src, "12345")
	for _, v := range src.Pix {
		if v != 0 {
			t.Fatal("source modified")
		}
	}
}
