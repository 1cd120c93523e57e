// Package capture runs the fetch, correct, save and display cycle.
package capture

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"philipredstone/netcam/internal/apperr"
	"philipredstone/netcam/internal/control"
	"philipredstone/netcam/internal/frame"
	"philipredstone/netcam/internal/logger"
	"philipredstone/netcam/internal/overlay"
	"philipredstone/netcam/internal/session"
	"philipredstone/netcam/internal/undistort"
)

// Key is an operator command read from the display.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyToggleSave
)

func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeyToggleSave:
		return "toggle-save"
	default:
		return "none"
	}
}

// Source yields one decoded frame per call.
type Source interface {
	Fetch(ctx context.Context) (*frame.Frame, error)
}

// Display shows frames, owns the controls and reports key presses.
type Display interface {
	control.Surface
	Present(img image.Image)
	// PollKey waits at most timeout for a key press.
	PollKey(timeout time.Duration) Key
}

// Persister writes a snapshot captured at t and returns where it went.
type Persister interface {
	Save(f *frame.Frame, t time.Time) (string, error)
}

// DefaultKeyWait bounds the key poll of each cycle.
const DefaultKeyWait = time.Millisecond

// Loop drives the fetch, undistort, overlay, present and save cycle. Build it
// with New; every field must be non-nil.
type Loop struct {
	Source      Source
	Display     Display
	Undistorter undistort.Undistorter
	Store       Persister
	Session     *session.Session

	// SkipBadFrames drops undecodable frames instead of stopping.
	SkipBadFrames bool
	// Now is the clock, time.Now unless replaced.
	Now     func() time.Time
	KeyWait time.Duration

	log    *logrus.Entry
	cycles int
}

// New returns a loop with an idle session saving at most once per interval.
func New(src Source, disp Display, u undistort.Undistorter, store Persister, interval time.Duration) *Loop {
	return &Loop{
		Source:      src,
		Display:     disp,
		Undistorter: u,
		Store:       store,
		Session:     session.New(interval),
		Now:         time.Now,
		KeyWait:     DefaultKeyWait,
		log: logger.Log.WithFields(logrus.Fields{
			"scope": "capture",
			"run":   uuid.NewString(),
		}),
	}
}

// Cycles returns the number of frames shown so far.
func (l *Loop) Cycles() int {
	return l.cycles
}

// Run cycles until the operator quits, ctx is cancelled or a fatal error
// occurs. first, when not nil, is used instead of fetching on the first
// cycle. A quit or a cancellation returns nil.
func (l *Loop) Run(ctx context.Context, first *frame.Frame) error {
	defer l.Session.Stop()
	l.log.Infof("capture started, save interval %s", l.Session.Interval())

	next := first
	for {
		if ctx.Err() != nil {
			l.log.Info("capture cancelled")
			return nil
		}
		f := next
		next = nil
		if f == nil {
			var err error
			f, err = l.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					l.log.Info("capture cancelled")
					return nil
				}
				if apperr.KindOf(err) == apperr.Decode && l.SkipBadFrames {
					l.log.Warnf("skipping frame: %v", err)
					if l.handle(l.Display.PollKey(l.KeyWait)) {
						return nil
					}
					continue
				}
				l.log.Debugf("capture stopped: %v", err)
				return err
			}
		}

		if err := l.step(f); err != nil {
			l.log.Debugf("capture stopped: %v", err)
			return err
		}
		if l.handle(l.Display.PollKey(l.KeyWait)) {
			return nil
		}
	}
}

// step processes and shows one frame.
func (l *Loop) step(f *frame.Frame) error {
	now := l.Now()
	r := control.Read(l.Display, f.Height, f.Width)

	out, err := l.Undistorter.Undistort(f, r.Coeffs)
	if err != nil {
		return err
	}
	out = out.Crop(r.Crop)

	if l.Session.Due(now) {
		path, err := l.Store.Save(out, now)
		if err != nil {
			l.log.Errorf("snapshot failed, retrying next cycle: %v", err)
		} else {
			l.Session.Saved(now)
			l.log.Infof("saved %s", path)
		}
	}

	text := overlay.Text(now, l.Session.IsSaving())
	l.Display.Present(overlay.Draw(out.Image(), text))
	l.cycles++
	return nil
}

// handle applies a key and reports whether the loop must end.
func (l *Loop) handle(k Key) bool {
	switch k {
	case KeyQuit:
		l.log.Info("quit requested")
		return true
	case KeyToggleSave:
		st := l.Session.Toggle()
		l.log.Infof("save mode: %s", st)
	}
	return false
}
