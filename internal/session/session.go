// Package session tracks whether snapshots are being saved and when the
// last one was written.
package session

import "time"

// State is the saving state of a session.
type State int

const (
	Idle State = iota
	Saving
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Stopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// Session is the capture state owned by the loop driver. It is not safe for
// concurrent use.
type Session struct {
	state    State
	lastSave time.Time
	interval time.Duration
}

// New returns an idle session that saves at most once per interval.
func New(interval time.Duration) *Session {
	return &Session{state: Idle, interval: interval}
}

// Seconds converts a fractional number of seconds to a Duration.
func Seconds(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Interval returns the minimum time between two saves.
func (s *Session) Interval() time.Duration { return s.interval }

// LastSave returns when the last snapshot was written, zero if none has been
// written since saving was switched on.
func (s *Session) LastSave() time.Time { return s.lastSave }

// IsSaving reports whether snapshots are being saved.
func (s *Session) IsSaving() bool { return s.state == Saving }

// Toggle switches between Idle and Saving. Entering Saving clears the last
// save time so the next eligible cycle saves immediately. A stopped session
// stays stopped.
func (s *Session) Toggle() State {
	switch s.state {
	case Idle:
		s.state = Saving
		s.lastSave = time.Time{}
	case Saving:
		s.state = Idle
	}
	return s.state
}

// Stop moves the session to its terminal state.
func (s *Session) Stop() {
	s.state = Stopped
}

// Due reports whether a frame captured at now must be saved: the session is
// Saving and strictly more than the interval elapsed since the last save.
func (s *Session) Due(now time.Time) bool {
	if s.state != Saving {
		return false
	}
	if s.lastSave.IsZero() {
		return true
	}
	return now.Sub(s.lastSave) > s.interval
}

// Saved records a successful save at t. A failed save must not be recorded,
// so it is retried on the next cycle.
func (s *Session) Saved(t time.Time) {
	s.lastSave = t
}
