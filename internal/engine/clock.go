package engine

import "sync/atomic"

// Sequencer hands out logical sequence numbers for recompute events.
// Implemented by Clock and by testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for ordering recompute events.
//
// Engines never stamp events with wall-clock time. Sharing one Clock between
// engines (WithClock) orders their events globally, which is how chained
// formulas show up in causal order in a trace.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start. Used to continue numbering
// after events already present in a journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
