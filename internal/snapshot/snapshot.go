// Package snapshot writes processed frames to disk, one file per snapshot.
package snapshot

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"philipredstone/netcam/internal/apperr"
	"philipredstone/netcam/internal/frame"
)

// NameLayout names snapshots after their capture second.
const NameLayout = "20060102_150405"

type encodeFunc func(io.Writer, image.Image) error

var encoders = map[string]encodeFunc{
	"png": png.Encode,
	"bmp": bmp.Encode,
	"jpeg": func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	},
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{"png", "bmp", "jpeg"}
}

// Store saves frames into a directory.
type Store struct {
	dir    string
	ext    string
	encode encodeFunc
}

// New returns a Store writing format files into dir. "jpg" is accepted as
// an alias of "jpeg".
func New(dir, format string) (*Store, error) {
	if format == "jpg" {
		format = "jpeg"
	}
	enc, ok := encoders[format]
	if !ok {
		return nil, apperr.Newf(apperr.Config, "unsupported snapshot format %q", format)
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir, ext: ext, encode: enc}, nil
}

// Path returns where a frame captured at t is written.
func (s *Store) Path(t time.Time) string {
	return filepath.Join(s.dir, t.Format(NameLayout)+"."+s.ext)
}

// Save writes f and returns its path. Two saves within the same second
// target the same file; the last one wins.
func (s *Store) Save(f *frame.Frame, t time.Time) (string, error) {
	path := s.Path(t)
	if f.Empty() {
		return path, apperr.Newf(apperr.Persistence, "refusing to save an empty frame to %s", path)
	}
	if err := s.write(f, path); err != nil {
		return path, apperr.New(apperr.Persistence, err, "save "+path)
	}
	return path, nil
}

func (s *Store) write(f *frame.Frame, path string) error {
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := s.encode(tmp, f.Image()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "encode")
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
