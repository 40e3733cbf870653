package testutil

import (
	"fmt"
	"sync"
)

// CountingIDGenerator yields prefix-0001, prefix-0002, ... It satisfies
// engine.IDGenerator and never runs out, unlike engine.FixedGenerator.
type CountingIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingIDGenerator creates a generator. An empty prefix means "gen".
func NewCountingIDGenerator(prefix string) *CountingIDGenerator {
	if prefix == "" {
		prefix = "gen"
	}
	return &CountingIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *CountingIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *CountingIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
