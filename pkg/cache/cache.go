// Package cache keeps compiled image expressions keyed by their source text.
//
// Compiled expressions are immutable, so one cached *types.Expression can
// be evaluated by any number of goroutines with different bindings.
//
//	c := cache.New(512)
//	expr, err := c.GetOrCompile("min(a, b) * 2", func() (*types.Expression, error) {
//	    return parser.Compile("min(a, b) * 2")
//	})
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/imagemath/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

type entry struct {
	key  string
	expr *types.Expression
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
	Capacity  int
}

// Cache is an LRU of compiled expressions. Safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache holding at most capacity expressions.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the expression compiled from key and marks it most recently
// used.
func (c *Cache) Get(key string) (*types.Expression, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	front := ok && c.ll.Front() == el
	c.mu.RUnlock()

	if ok && !front {
		// Re-check under the write lock; the entry may have been evicted.
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return el.Value.(*entry).expr, true
}

// Set stores expr under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Set(key string, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}
	for c.ll.Len() >= c.capacity {
		c.evictLocked()
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, expr: expr})
}

// GetOrCompile returns the cached expression for key or compiles, stores
// and returns it. Compile errors are not cached.
func (c *Cache) GetOrCompile(key string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(key); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, expr)
	return expr, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Capacity returns the maximum number of cached expressions.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
		Capacity:  c.capacity,
	}
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked requires c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.evictions.Add(1)
}
