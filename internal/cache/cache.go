// SPDX-License-Identifier: MIT

// Package cache stores validation results keyed by spec content digest,
// with TTL support and interchangeable memory, Redis and Badger backends.
package cache

import (
	"sync"
	"time"
)

// Result is the cached outcome of validating one spec document. Expanded is
// only populated once the expansion endpoint has processed the same digest;
// both endpoints share the entry.
type Result struct {
	Digest    string    `json:"digest"`
	Valid     bool      `json:"valid"`
	Errors    []string  `json:"errors,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Expanded  []byte    `json:"expanded,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Cache provides thread-safe result caching with expiration support.
type Cache interface {
	// Get retrieves a result from the cache. Returns false if not found or expired.
	Get(key string) (Result, bool)
	// Set stores a result in the cache with the specified TTL.
	Set(key string, value Result, ttl time.Duration)
	// Delete removes a result from the cache.
	Delete(key string)
	// Clear removes all results from the cache.
	Clear()
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases backend resources.
	Close() error
}

// Stats holds cache performance metrics.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

// entry represents a cached result with expiration time.
type entry struct {
	result     Result
	expiration time.Time
}

// isExpired checks if the entry has expired.
func (e *entry) isExpired() bool {
	return time.Now().After(e.expiration)
}

// memoryCache is an in-memory implementation of Cache.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   Stats
	janitor *janitor
}

// NewMemoryCache creates a new in-memory cache with automatic cleanup.
// The cleanupInterval determines how often expired entries are removed;
// zero disables the background janitor.
func NewMemoryCache(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}

	return c
}

// Get retrieves a result from the cache.
func (c *memoryCache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.isExpired() {
		c.stats.Misses++
		return Result{}, false
	}

	c.stats.Hits++
	return e.result, true
}

// Set stores a result in the cache.
func (c *memoryCache) Set(key string, value Result, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		result:     value,
		expiration: time.Now().Add(ttl),
	}
	c.stats.Sets++
}

// Delete removes a result from the cache.
func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all results from the cache.
func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stats returns cache statistics.
func (c *memoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// deleteExpired removes all expired entries from the cache.
// Returns the number of entries deleted.
func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.entries {
		if entry.isExpired() {
			delete(c.entries, key)
			count++
		}
	}

	c.stats.Evictions += int64(count)
	return count
}

// Close stops the background cleanup goroutine.
func (c *memoryCache) Close() error {
	if c.janitor != nil {
		c.janitor.stopOnce.Do(func() { close(c.janitor.stop) })
	}
	return nil
}

// janitor performs periodic cleanup of expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// run starts the cleanup loop.
func (j *janitor) run(c *memoryCache) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

// noOpCache is a cache that does nothing (useful for disabling caching).
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return &noOpCache{}
}

func (c *noOpCache) Get(key string) (Result, bool)                 { return Result{}, false }
func (c *noOpCache) Set(key string, value Result, ttl time.Duration) {}
func (c *noOpCache) Delete(key string)                             {}
func (c *noOpCache) Clear()                                        {}
func (c *noOpCache) Stats() Stats                                  { return Stats{} }
func (c *noOpCache) Close() error                                  { return nil }
