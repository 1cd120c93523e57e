// Package undistort removes lens distortion from frames.
//
// The work is split in two: BuildMap computes a per-pixel lookup table from
// the camera model, Resample pulls a frame through it. Engine keeps the last
// table and only rebuilds it when the model changes.
package undistort

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"philipredstone/netcam/internal/calib"
	"philipredstone/netcam/internal/frame"
	"philipredstone/netcam/internal/logger"
)

var log = logger.Log.WithField("scope", "undistort")

// Undistorter corrects a frame for the given distortion coefficients using
// the synthetic pinhole camera of the frame size.
type Undistorter interface {
	Undistort(f *frame.Frame, d calib.Coeffs) (*frame.Frame, error)
}

// DefaultBackend is the pure Go implementation.
const DefaultBackend = "go"

var (
	backendsMu sync.Mutex
	backends   = map[string]func() Undistorter{
		DefaultBackend: func() Undistorter { return NewEngine() },
	}
)

// Register makes a backend available to New.
func Register(name string, ctor func() Undistorter) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = ctor
}

// Backends lists the registered backend names.
func Backends() []string {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New returns the named backend.
func New(name string) (Undistorter, error) {
	backendsMu.Lock()
	ctor, ok := backends[name]
	backendsMu.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown undistort backend %q (available: %v)", name, Backends())
	}
	return ctor(), nil
}

type mapKey struct {
	w, h int
	d    calib.Coeffs
}

// Engine is the Go Undistorter. It caches the last remap table.
type Engine struct {
	key     mapKey
	m       *Map
	newK    calib.Intrinsics
	rebuilt int
}

// NewEngine returns an Engine with an empty cache.
func NewEngine() *Engine {
	return &Engine{}
}

// Map returns the remap table for an h×w frame, rebuilding it only when the
// size or the coefficients differ from the previous call.
func (e *Engine) Map(h, w int, d calib.Coeffs) (*Map, error) {
	key := mapKey{w: w, h: h, d: d}
	if e.m != nil && e.key == key {
		return e.m, nil
	}
	model := calib.NewModel(h, w, d)
	newK := OptimalIntrinsics(model)
	m, err := BuildMap(model.K, d, nil, newK, w, h)
	if err != nil {
		return nil, err
	}
	e.key, e.m, e.newK = key, m, newK
	e.rebuilt++
	log.Debugf("remap rebuilt for %dx%d %v (f=%.1f,%.1f c=%.1f,%.1f)", w, h, d, newK.Fx, newK.Fy, newK.Cx, newK.Cy)
	return m, nil
}

// Undistort implements Undistorter.
func (e *Engine) Undistort(f *frame.Frame, d calib.Coeffs) (*frame.Frame, error) {
	if f.Empty() {
		return nil, errors.New("cannot undistort an empty frame")
	}
	m, err := e.Map(f.Height, f.Width, d)
	if err != nil {
		return nil, err
	}
	return Resample(f, m), nil
}
