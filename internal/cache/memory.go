package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryClient is an in-process LRU cache with per-entry expiry.
type MemoryClient struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryClient creates a cache holding at most maxEntries values.
func NewMemoryClient(maxEntries int) (*MemoryClient, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryClient{entries: entries, now: time.Now}, nil
}

// Get retrieves a value from cache.
func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value. The least recently used entry is evicted when full.
func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache.
func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// DeleteByPrefix removes all keys with the given prefix.
func (c *MemoryClient) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryClient) Len() int {
	return c.entries.Len()
}

// Close is a no-op for the memory cache.
func (c *MemoryClient) Close() error {
	c.entries.Purge()
	return nil
}

var (
	_ Client = (*MemoryClient)(nil)
	_ Client = (*RedisClient)(nil)
)
