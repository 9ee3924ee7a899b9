package lru

import (
	"container/list"
	"sync"
)

// Cache is a thread-safe, capacity-bounded least-recently-used map.
// When full, the least-recently-used entry is evicted on insert.
//
// Usage:
//
//	records := lru.New[string, time.Time](10000)
//	records.Put("/src/Foo.java", now)
//	if last, ok := records.Get("/src/Foo.java"); ok { ... }
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most-recently used
	onEvict  func(K, V)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache with the given capacity. Values <= 0 are normalised to 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// OnEvict registers a callback invoked (under the cache lock) for capacity
// evictions. It is not called for Remove or Clear.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value and true when present. A hit marks the key as
// most-recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Peek returns the value without touching recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[K, V]).value, true
}

// Put inserts or updates a key.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, value)
}

// Update atomically replaces the value for key with fn(old, ok) and stores
// the result when fn reports keep=true.
func (c *Cache[K, V]) Update(key K, fn func(old V, ok bool) (V, bool)) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	var old V
	el, ok := c.items[key]
	if ok {
		old = el.Value.(*entry[K, V]).value
	}
	next, keep := fn(old, ok)
	if keep {
		c.putLocked(key, next)
		return next
	}
	return old
}

func (c *Cache[K, V]) putLocked(key K, value V) {
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*entry[K, V]).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictLeastRecentLocked()
	}

	el := c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = el
}

// Remove deletes key. It is a no-op for missing keys.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.items, key)
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int {
	return c.capacity
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

// caller must hold c.mu
func (c *Cache[K, V]) evictLeastRecentLocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.order.Remove(back)
	e := back.Value.(*entry[K, V])
	delete(c.items, e.key)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}
