package odtemplate

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the source cache
type CacheConfig struct {
	// MaxSize is the maximum number of sources to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached sources. 0 means no expiration.
	TTL time.Duration
}

// SourceCache keeps the raw bytes of template archives keyed by path, so that
// repeated runs of the same template skip the disk. Cached slices are shared
// and must not be modified.
type SourceCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
}

type cacheEntry struct {
	key     string
	data    []byte
	expiry  time.Time
	element *list.Element
}

// NewSourceCache creates a source cache sized from the global configuration
func NewSourceCache() *SourceCache {
	config := GetGlobalConfig()
	return NewSourceCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewSourceCacheWithConfig creates a source cache with the given configuration
func NewSourceCacheWithConfig(config CacheConfig) *SourceCache {
	return &SourceCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
	}
}

// Enabled reports whether the cache stores anything at all.
func (c *SourceCache) Enabled() bool {
	return c != nil && c.config.MaxSize > 0
}

// Get returns the cached source for key.
func (c *SourceCache) Get(key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil, false
	}

	if c.config.TTL > 0 && time.Now().After(entry.expiry) {
		c.removeLocked(entry)
		return nil, false
	}

	c.lru.MoveToFront(entry.element)
	return entry.data, true
}

// Set stores data under key, evicting the least recently used source when full.
func (c *SourceCache) Set(key string, data []byte) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiry := time.Time{}
	if c.config.TTL > 0 {
		expiry = time.Now().Add(c.config.TTL)
	}

	if existing, exists := c.cache[key]; exists {
		existing.data = data
		existing.expiry = expiry
		c.lru.MoveToFront(existing.element)
		return
	}

	if c.lru.Len() >= c.config.MaxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeLocked(oldest.Value.(*cacheEntry))
		}
	}

	entry := &cacheEntry{
		key:    key,
		data:   data,
		expiry: expiry,
	}
	entry.element = c.lru.PushFront(entry)
	c.cache[key] = entry
}

// Remove drops key from the cache
func (c *SourceCache) Remove(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.cache[key]; exists {
		c.removeLocked(entry)
	}
}

func (c *SourceCache) removeLocked(entry *cacheEntry) {
	delete(c.cache, entry.key)
	c.lru.Remove(entry.element)
}

// Clear removes all sources from the cache
func (c *SourceCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cacheEntry)
	c.lru = list.New()
}

// Size returns the current number of cached sources
func (c *SourceCache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
