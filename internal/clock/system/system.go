// Package system provides wall-clock and pinned clocks for board.Clock.
package system

import "time"

// Clock reads the wall clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant. Tests use it to pin generatedAt and
// the fallback reference instant.
type Fixed struct {
	at time.Time
}

// NewFixed pins the clock at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{at: t}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.at
}
