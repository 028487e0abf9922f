// Package cache keeps recently read snippets in memory.
//
// Snippets never change after creation, so a cached copy can never go stale and
// there is no invalidation path at all: entries only leave when ristretto evicts
// them to stay under its cost budget.
package cache

import (
	"github.com/dgraph-io/ristretto"

	"github.com/sakif/codebin/internal/model"
)

// SnippetCache is a size-bounded cache keyed by snippet ID.
type SnippetCache struct {
	cache *ristretto.Cache
}

// New creates a cache holding roughly 2^maxSizePow2 bytes of snippet data.
func New(maxSizePow2 int) (*SnippetCache, error) {
	maxCost := max(1, int64(1)<<maxSizePow2)
	numCounters := max(1, maxCost/1000) // ~1KB per snippet estimate

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &SnippetCache{cache: c}, nil
}

// Get returns a copy of the cached snippet so callers cannot mutate the entry.
func (c *SnippetCache) Get(id string) (*model.Snippet, bool) {
	val, found := c.cache.Get(id)
	if !found {
		return nil, false
	}
	s := val.(model.Snippet)
	return &s, true
}

// Set stores a copy of s. Ristretto applies sets asynchronously, so a Get right
// after Set may still miss.
func (c *SnippetCache) Set(s *model.Snippet) {
	cost := int64(len(s.ID) + len(s.Title) + len(s.Code) + len(s.Language) + len(s.VisitorID))
	c.cache.Set(s.ID, *s, cost)
}

// Wait blocks until pending sets have been applied.
func (c *SnippetCache) Wait() {
	c.cache.Wait()
}

func (c *SnippetCache) Close() {
	c.cache.Close()
}

func (c *SnippetCache) Stats() (hits, misses uint64, ratio float64) {
	metrics := c.cache.Metrics
	hits = metrics.Hits()
	misses = metrics.Misses()
	ratio = metrics.Ratio()
	return
}
