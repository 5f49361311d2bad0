package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/attestnet/attest/module"
)

func withLimit[K comparable, V any](limit uint) func(*Cache[K, V]) {
	return func(c *Cache[K, V]) {
		c.limit = limit
	}
}

type retrieveFunc[K comparable, V any] func(key K) func(*badger.Txn) (V, error)

func withRetrieve[K comparable, V any](retrieve retrieveFunc[K, V]) func(*Cache[K, V]) {
	return func(c *Cache[K, V]) {
		c.retrieve = retrieve
	}
}

func noRetrieve[K comparable, V any](K) func(*badger.Txn) (V, error) {
	return func(*badger.Txn) (V, error) {
		var nullV V
		return nullV, fmt.Errorf("no retrieve function for cache get available")
	}
}

// Cache is a read-through LRU cache in front of the database. Values are cached
// once read, or once written through Insert after their transaction committed.
type Cache[K comparable, V any] struct {
	metrics  module.CacheMetrics
	limit    uint
	retrieve retrieveFunc[K, V]
	resource string
	cache    *lru.Cache[K, V]
}

func newCache[K comparable, V any](collector module.CacheMetrics, resourceName string, options ...func(*Cache[K, V])) *Cache[K, V] {
	c := Cache[K, V]{
		metrics:  collector,
		limit:    1000,
		retrieve: noRetrieve[K, V],
		resource: resourceName,
	}
	for _, option := range options {
		option(&c)
	}
	c.cache, _ = lru.NewWithEvict(int(c.limit), func(K, V) {
		c.metrics.CacheEviction(c.resource)
	})
	c.metrics.CacheEntries(c.resource, uint(c.cache.Len()))
	return &c
}

// IsCached returns true if the key exists in the cache.
func (c *Cache[K, V]) IsCached(key K) bool {
	return c.cache.Contains(key)
}

// Get will try to retrieve the resource from cache first, and then from the
// injected retrieve function. During normal operations, the following error returns
// are expected:
//   - storage.ErrNotFound if the key is unknown.
func (c *Cache[K, V]) Get(key K) func(*badger.Txn) (V, error) {
	return func(tx *badger.Txn) (V, error) {
		resource, cached := c.cache.Get(key)
		if cached {
			return resource, nil
		}

		resource, err := c.retrieve(key)(tx)
		if err != nil {
			var nullV V
			return nullV, err
		}

		c.Insert(key, resource)
		return resource, nil
	}
}

// Insert caches a resource. It must only be called once the resource is persisted.
func (c *Cache[K, V]) Insert(key K, resource V) {
	c.cache.Add(key, resource)
	c.metrics.CacheEntries(c.resource, uint(c.cache.Len()))
}
