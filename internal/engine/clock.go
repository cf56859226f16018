package engine

import "sync/atomic"

// Clock is the logical clock that stamps trace events.
//
// Trace events carry a strictly increasing seq instead of a wall-clock
// time, so two runs of the same enumeration against the same world
// produce identical traces.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), so
// a tracer may read Current from another goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
