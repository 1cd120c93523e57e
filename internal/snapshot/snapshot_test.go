package snapshot

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"philipredstone/netcam/internal/apperr"
	"philipredstone/netcam/internal/frame"
)

var at = time.Date(2024, 3, 9, 7, 5, 4, 900, time.Local)

func testFrame(v uint8) *frame.Frame {
	f := frame.New(8, 6)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func TestSaveFormats(t *testing.T) {
	testCases := []struct {
		format string
		ext    string
	}{
		{"png", ".png"},
		{"bmp", ".bmp"},
		{"jpeg", ".jpg"},
		{"jpg", ".jpg"},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			dir := t.TempDir()
			s, err := New(dir, tc.format)
			if err != nil {
				t.Fatal(err)
			}
			path, err := s.Save(testFrame(128), at)
			if err != nil {
				t.Fatal(err)
			}
			if want := filepath.Join(dir, "20240309_070504"+tc.ext); path != want {
				t.Fatalf("got %s, want %s", path, want)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, _, err := image.Decode(f)
			if err != nil {
				t.Fatal(err)
			}
			if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
				t.Fatalf("got %v", b)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 1 {
				t.Fatalf("%d files left in %s", len(entries), dir)
			}
		})
	}
}

func TestSaveSameSecondOverwrites(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(testFrame(10), at); err != nil {
		t.Fatal(err)
	}
	path, err := s.Save(testFrame(250), at.Add(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 250 {
		t.Fatalf("got %d, want the last frame", r>>8)
	}
}

func TestSaveUnwritable(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "missing"), "png")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Save(testFrame(1), at)
	if apperr.KindOf(err) != apperr.Persistence {
		t.Fatalf("got %v", err)
	}
}

func TestSaveEmpty(t *testing.T) {
	s, err := New(t.TempDir(), "png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(frame.New(0, 0), at); apperr.KindOf(err) != apperr.Persistence {
		t.Fatalf("got %v", err)
	}
}

func TestNewBadFormat(t *testing.T) {
	if _, err := New(".", "gif"); apperr.KindOf(err) != apperr.Config {
		t.Fatalf("got %v", err)
	}
}
