// Package cache provides a generic thread-safe in-memory cache with an
// optional least-recently-used capacity bound.
package cache

// Cache defines the basic interface for a generic cache
type Cache[K comparable, V any] interface {
	// Set adds or updates an item in the cache
	Set(key K, value V)
	// Get retrieves an item from the cache
	Get(key K) (V, bool)
	// DelIf removes key when pred reports true for its current value
	DelIf(key K, pred func(V) bool) bool
	// Len returns the number of items in the cache
	Len() int
	// Clear removes all items from the cache
	Clear()
	// Load imports a slice of items into the cache using a key extractor
	Load(items []V, keyFunc func(V) K)
}
