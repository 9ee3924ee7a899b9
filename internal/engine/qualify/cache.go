package qualify

import (
	"sync"

	"serialguard/internal/core/ports"
	"serialguard/internal/shared/lru"
	"serialguard/internal/shared/observability"
)

type cacheEntry struct {
	revision uint64
	result   Result
}

// Cache memoizes a Qualifier per class identity and structural revision.
// Any revision change invalidates every entry: the first lookup after a
// bump drops the table, which also releases entries of discarded classes.
type Cache struct {
	inner     Qualifier
	revisions ports.RevisionSource

	mu      sync.Mutex
	swept   uint64
	entries *lru.Cache[string, cacheEntry]

	hits   uint64
	misses uint64
}

func NewCache(inner Qualifier, revisions ports.RevisionSource, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Cache{
		inner:     inner,
		revisions: revisions,
		entries:   lru.New[string, cacheEntry](capacity),
	}
}

// Qualify satisfies Qualifier so a Cache can stand in for an Engine.
func (c *Cache) Qualify(class ports.ClassDeclaration) Result {
	return c.Get(class)
}

// Get returns the cached result for class at the current revision,
// computing it through the wrapped Qualifier on a miss.
func (c *Cache) Get(class ports.ClassDeclaration) Result {
	revision := c.revisions.Revision()
	id := class.ID()

	c.mu.Lock()
	if revision != c.swept {
		c.entries.Clear()
		c.swept = revision
	}
	if entry, ok := c.entries.Get(id); ok && entry.revision == revision {
		c.hits++
		c.mu.Unlock()
		observability.QualificationCacheTotal.WithLabelValues("hit").Inc()
		return entry.result
	}
	c.misses++
	c.mu.Unlock()
	observability.QualificationCacheTotal.WithLabelValues("miss").Inc()

	result := c.inner.Qualify(class)

	c.mu.Lock()
	// A concurrent bump may have happened while computing; never store a
	// result under a newer stamp than the one it was computed for.
	if c.swept == revision {
		c.entries.Put(id, cacheEntry{revision: revision, result: result})
	}
	c.mu.Unlock()
	return result
}

// Stats returns hit and miss counters since construction.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
