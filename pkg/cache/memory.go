package cache

import (
	"container/list"
	"sync"
)

var _ Cache[string, int] = (*MemoryCache[string, int])(nil)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// MemoryCache implements a thread-safe in-memory cache. With a positive
// capacity the least recently used item is evicted on overflow.
type MemoryCache[K comparable, V any] struct {
	mu sync.Mutex

	// capacity is the maximum number of items, 0 means unbounded
	capacity int

	// order holds entries, front is most recently used
	order *list.List
	items map[K]*list.Element

	onEvict func(K, V)
}

// Option configures a MemoryCache.
type Option[K comparable, V any] func(*MemoryCache[K, V])

// WithCapacity bounds the cache size. n <= 0 means unbounded.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(c *MemoryCache[K, V]) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithEvictCallback registers a callback invoked for every capacity eviction.
// The callback runs with the cache lock held and must not call back into the cache.
func WithEvictCallback[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *MemoryCache[K, V]) { c.onEvict = fn }
}

// NewMemoryCache creates a new instance of MemoryCache
func NewMemoryCache[K comparable, V any](opts ...Option[K, V]) *MemoryCache[K, V] {
	c := &MemoryCache[K, V]{
		order: list.New(),
		items: make(map[K]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set adds or updates an item in the cache
func (c *MemoryCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// Load imports a slice of items into the cache using a key extractor
func (c *MemoryCache[K, V]) Load(items []V, keyFunc func(V) K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		c.set(keyFunc(item), item)
	}
}

func (c *MemoryCache[K, V]) set(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.capacity > 0 && c.order.Len() > c.capacity {
		c.removeElement(c.order.Back(), true)
	}
}

// Get retrieves an item from the cache and marks it as recently used
func (c *MemoryCache[K, V]) Get(key K) (V, bool) {
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

// DelIf removes key when pred reports true for its current value. It returns
// whether the item was removed.
func (c *MemoryCache[K, V]) DelIf(key K, pred func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok || !pred(el.Value.(*entry[K, V]).value) {
		return false
	}
	c.removeElement(el, false)
	return true
}

func (c *MemoryCache[K, V]) removeElement(el *list.Element, evicted bool) {
	e := c.order.Remove(el).(*entry[K, V])
	delete(c.items, e.key)
	if evicted && c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

// Len returns the number of items in the cache
func (c *MemoryCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all items from the cache
func (c *MemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element)
}
