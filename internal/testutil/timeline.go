// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is where a Timeline starts when none is given.
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Timeline hands out strictly increasing timestamps, one step apart, so
// records built in a test sort the same way on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type Timeline struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewTimeline creates a timeline starting at start and advancing by step.
// A zero start means DefaultEpoch; a non-positive step means one second.
func NewTimeline(start time.Time, step time.Duration) *Timeline {
	if start.IsZero() {
		start = DefaultEpoch
	}
	if step <= 0 {
		step = time.Second
	}
	return &Timeline{start: start.UTC(), step: step}
}

// Next advances the timeline and returns the new time. The first call
// returns start+step.
func (tl *Timeline) Next() time.Time {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.ticks++
	return tl.at(tl.ticks)
}

// Current returns the latest time handed out, or start before the first
// call to Next.
func (tl *Timeline) Current() time.Time {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.at(tl.ticks)
}

// At returns the time of tick n without advancing.
func (tl *Timeline) At(n int64) time.Time {
	return tl.at(n)
}

// Reset rewinds the timeline to start.
func (tl *Timeline) Reset() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.ticks = 0
}

func (tl *Timeline) at(n int64) time.Time {
	return tl.start.Add(time.Duration(n) * tl.step)
}
