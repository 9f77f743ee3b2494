package github

import (
	"github.com/gregjones/httpcache"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheEntries caps the number of responses kept by the ETag cache. Run
// listings carry a new created filter every pass and each run adds its own
// timing and jobs URLs, so an unbounded cache would grow for the life of the
// process.
const CacheEntries = 512

var _ httpcache.Cache = (*lruCache)(nil)

// lruCache is an httpcache.Cache that evicts the least recently used
// response once it holds more than its capacity.
type lruCache struct {
	entries *lru.Cache[string, []byte]
}

func newLRUCache(size int) *lruCache {
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, []byte](max(size, 1))
	return &lruCache{entries: entries}
}

func (c *lruCache) Get(key string) ([]byte, bool) {
	return c.entries.Get(key)
}

func (c *lruCache) Set(key string, responseBytes []byte) {
	c.entries.Add(key, responseBytes)
}

func (c *lruCache) Delete(key string) {
	c.entries.Remove(key)
}

func (c *lruCache) Len() int {
	return c.entries.Len()
}

// newCacheTransport returns an ETag-aware transport backed by a bounded cache.
func newCacheTransport(size int) *httpcache.Transport {
	return httpcache.NewTransport(newLRUCache(size))
}
