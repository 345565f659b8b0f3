package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache caches raw backend responses in process memory. Repeated
// surveys of the same query within the TTL window skip the rate-limited
// upstream entirely.
type MemoryCache struct {
	cache      *gocache.Cache
	defaultTTL time.Duration
}

// NewMemoryCache creates a cache with the given default TTL. Expired
// entries are swept every cleanupInterval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache:      gocache.New(defaultTTL, cleanupInterval),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached payload for key, if present and unexpired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	payload, ok := val.([]byte)
	return payload, ok
}

// Set stores a payload under key. A non-positive ttl uses the default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes one entry.
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Len reports the number of live entries, expired ones included until the
// next sweep.
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
