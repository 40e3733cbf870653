// Package testutil holds deterministic stand-ins for the generator's
// clock and id source, so scenario runs and golden files are stable.
package testutil

import "sync"

// DeterministicClock is an engine.Sequencer that can be rewound, so a
// scenario run twice stamps the same seqs both times.
type DeterministicClock struct {
	mu   sync.Mutex
	last int64
}

// NewDeterministicClock returns a clock whose first seq is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

func (c *DeterministicClock) Next() int64 {
	return c.Reserve(1)
}

// Reserve hands out n consecutive seqs and returns the first.
func (c *DeterministicClock) Reserve(n int) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	first := c.last + 1
	if n > 0 {
		c.last += int64(n)
	}
	return first
}

func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reset rewinds the clock to its initial state.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	c.last = 0
	c.mu.Unlock()
}
