package manager

import "sync/atomic"

// Clock is the commit clock: every successful commit is stamped with a
// strictly increasing sequence number, so merges and delta batches have a
// total order without relying on wall time.
//
// Only the write context calls Next; Current is safe from anywhere.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first commit is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next commit is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
