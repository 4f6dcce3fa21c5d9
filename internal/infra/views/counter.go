// Package views implements the injected FAQ view counter.
// The in-memory variant makes no persistence guarantee across restarts
// and is meant for tests and local development; production wiring uses
// the Supabase-backed counter instead.
package views

import (
	"context"
	"sync"
)

// InMemoryCounter is a process-wide view counter keyed by FAQ id.
type InMemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewInMemoryCounter creates an empty counter. Seed preloads initial
// counts (e.g. the stored view totals) and may be nil.
func NewInMemoryCounter(seed map[string]int) *InMemoryCounter {
	counts := make(map[string]int, len(seed))
	for id, n := range seed {
		counts[id] = n
	}
	return &InMemoryCounter{counts: counts}
}

// Increment bumps the count for faqID and returns the new value.
func (c *InMemoryCounter) Increment(_ context.Context, faqID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[faqID]++
	return c.counts[faqID], nil
}

// Get returns the current count for faqID (zero if never viewed).
func (c *InMemoryCounter) Get(_ context.Context, faqID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[faqID], nil
}

// Counts returns a copy of all current counts.
func (c *InMemoryCounter) Counts(_ context.Context) (map[string]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[string]int, len(c.counts))
	for id, n := range c.counts {
		counts[id] = n
	}
	return counts, nil
}
