package pipeline

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"lukechampine.com/blake3"

	"github.com/webforge/crawlkit/internal/models"
)

// cacheEntry wraps a cached PipelineResult with its absolute expiry.
type cacheEntry struct {
	result  models.PipelineResult
	expires time.Time
}

// Cache is the pipeline's canonical-key result cache, backed by an
// LRU map for bounded memory and blake3 for fast cache-key hashing.
// Teacher has no cache of its own (every crawl is a one-shot file
// write); this is generalized from groupcache's `lru.Cache` container,
// the only piece of groupcache any SPEC_FULL.md component exercises
// (the distributed peer layer has no home here).
type Cache struct {
	mu         sync.Mutex
	lru        *lru.Cache
	ttl        time.Duration
	bypassMode bool
}

func NewCache(maxEntries int, ttl time.Duration, bypassMode bool) *Cache {
	return &Cache{
		lru:        lru.New(maxEntries),
		ttl:        ttl,
		bypassMode: bypassMode,
	}
}

// Key builds the canonical cache key from a normalized URL and
// extraction mode, blake3-hashed to a fixed-width string so cache
// entries don't carry full URLs as map keys.
func Key(normalizedURL, mode string) string {
	raw := models.CanonicalKey(normalizedURL, mode)
	sum := blake3.Sum256([]byte(raw))
	return string(sum[:])
}

// Get returns a cached result if present, not expired, and the cache
// is not in bypass mode.
func (c *Cache) Get(key string) (models.PipelineResult, bool) {
	if c.bypassMode || c.ttl <= 0 {
		return models.PipelineResult{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		return models.PipelineResult{}, false
	}
	entry := v.(cacheEntry)
	if time.Now().After(entry.expires) {
		c.lru.Remove(key)
		return models.PipelineResult{}, false
	}
	result := entry.result
	result.FromCache = true
	return result, true
}

// Store saves a result under key with the cache's configured TTL. A
// no-op in bypass mode or when TTL is 0 (caching disabled).
func (c *Cache) Store(key string, result models.PipelineResult) {
	if c.bypassMode || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, cacheEntry{result: result, expires: time.Now().Add(c.ttl)})
}

// Status reports cache introspection counters for the `cache status`
// CLI surface (SPEC_FULL.md supplemented feature #1).
type Status struct {
	Entries    int
	MaxEntries int
	TTL        time.Duration
	BypassMode bool
}

func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Entries:    c.lru.Len(),
		MaxEntries: c.lru.MaxEntries,
		TTL:        c.ttl,
		BypassMode: c.bypassMode,
	}
}
