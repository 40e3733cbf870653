package engine

import "sync/atomic"

// Clock stamps artifacts with seqs. Seqs only grow; the store orders by
// seq and never by wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first seq is last+1, for resuming
// after the highest seq in a generation log.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// Next hands out one seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Reserve hands out n consecutive seqs in one step and returns the first.
// No concurrent Next or Reserve can land inside the range. For n <= 0
// nothing is reserved and the seq the next call would get is returned.
func (c *Clock) Reserve(n int) int64 {
	if n <= 0 {
		return c.seq.Load() + 1
	}
	return c.seq.Add(int64(n)) - int64(n) + 1
}

// Current is the last seq handed out, 0 before the first.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
