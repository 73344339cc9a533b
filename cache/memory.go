package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value   string
	expires time.Time // zero for entries that never expire
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// InMemoryCache is a concurrency-safe cache with optional expiry.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewInMemoryCache creates a cache whose entries expire after ttl.
// A ttl of zero or less keeps entries forever.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &InMemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get implements TranslationCache. Expired entries are dropped on access.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if e.expired(time.Now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expired(time.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set implements TranslationCache.
func (c *InMemoryCache) Set(key string, value string) error {
	e := memoryEntry{value: value}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Entries implements ExportableCache. Expired entries are skipped.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	out := make(map[string]string, len(c.entries))
	for key, e := range c.entries {
		if e.expired(now) {
			continue
		}
		out[key] = e.value
	}
	return out, nil
}

var _ ExportableCache = (*InMemoryCache)(nil)
