package cache

import (
	"container/list"
	"sync"
)

type lruEntry[V any] struct {
	key   string
	value V
}

// LRU evicts the least recently used entry once it holds more than maxSize
type LRU[V any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	order   *list.List
	stats   Stats
}

// NewLRU creates an LRU; a non-positive maxSize means DefaultMaxSize
func NewLRU[V any](maxSize int) *LRU[V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &LRU[V]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		stats:   Stats{MaxSize: maxSize},
	}
}

// Get retrieves an item and marks it most recently used
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.order.MoveToFront(element)
	c.stats.Hits++
	return element.Value.(*lruEntry[V]).value, true
}

// Set stores value under key, evicting the oldest entry when full
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[key]; ok {
		element.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(element)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	if c.order.Len() > c.maxSize {
		c.evictOldestLocked()
	}
}

// Len returns the number of cached items
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Size = len(c.items)
	return stats
}

// Close drops every item. The cache stays usable.
func (c *LRU[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// evictOldestLocked requires c.mu
func (c *LRU[V]) evictOldestLocked() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	delete(c.items, oldest.Value.(*lruEntry[V]).key)
	c.order.Remove(oldest)
	c.stats.Evictions++
}

var _ Cache[int] = (*LRU[int])(nil)
