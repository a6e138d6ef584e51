// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func result(digest string, valid bool) Result {
	return Result{
		Digest:    digest,
		Valid:     valid,
		CheckedAt: time.Now().UTC(),
	}
}

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache(0) // No cleanup for this test

	cache.Set("sha256:aaa", result("sha256:aaa", true), 5*time.Minute)

	val, ok := cache.Get("sha256:aaa")
	require.True(t, ok, "expected to find cached result")
	assert.Equal(t, "sha256:aaa", val.Digest)
	assert.True(t, val.Valid)

	_, ok = cache.Get("sha256:missing")
	assert.False(t, ok, "expected not to find missing key")
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(0)

	cache.Set("shortlived", result("shortlived", false), 50*time.Millisecond)

	val, ok := cache.Get("shortlived")
	require.True(t, ok)
	assert.False(t, val.Valid)

	time.Sleep(100 * time.Millisecond)

	_, ok = cache.Get("shortlived")
	assert.False(t, ok, "expected entry to be expired")
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(0)

	cache.Set("key1", result("key1", true), 5*time.Minute)

	_, ok := cache.Get("key1")
	require.True(t, ok)

	cache.Delete("key1")

	_, ok = cache.Get("key1")
	assert.False(t, ok)
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(0)

	cache.Set("key1", result("key1", true), 5*time.Minute)
	cache.Set("key2", result("key2", true), 5*time.Minute)
	cache.Set("key3", result("key3", false), 5*time.Minute)

	stats := cache.Stats()
	assert.Equal(t, 3, stats.CurrentSize)

	cache.Clear()

	stats = cache.Stats()
	assert.Equal(t, 0, stats.CurrentSize)

	_, ok := cache.Get("key1")
	assert.False(t, ok)
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(0)

	cache.Set("key1", result("key1", true), 5*time.Minute)
	cache.Set("key2", result("key2", true), 5*time.Minute)

	cache.Get("key1")        // Hit
	cache.Get("key1")        // Hit
	cache.Get("nonexistent") // Miss

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, 2, stats.CurrentSize)
}

func TestMemoryCache_Janitor(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cache := NewMemoryCache(50 * time.Millisecond)
	defer func() { require.NoError(t, cache.Close()) }()

	cache.Set("key1", result("key1", true), 30*time.Millisecond)
	cache.Set("key2", result("key2", true), 30*time.Millisecond)
	cache.Set("longLived", result("longLived", true), 10*time.Second)

	time.Sleep(150 * time.Millisecond)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.CurrentSize, "janitor should have removed expired entries")
	assert.Greater(t, stats.Evictions, int64(0), "evictions should have occurred")

	_, ok := cache.Get("longLived")
	assert.True(t, ok, "long-lived entry should still exist")
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cache := NewMemoryCache(time.Minute)
	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())
}

func TestMemoryCache_ConcurrentAccess(_ *testing.T) {
	cache := NewMemoryCache(0)
	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			cache.Set("key", result("key", i%2 == 0), 5*time.Minute)
			time.Sleep(1 * time.Millisecond)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			cache.Get("key")
			time.Sleep(1 * time.Millisecond)
		}
		done <- true
	}()

	<-done
	<-done
}

func TestNoOpCache(t *testing.T) {
	cache := NewNoOpCache()

	cache.Set("key", result("key", true), 5*time.Minute)

	_, ok := cache.Get("key")
	assert.False(t, ok, "NoOpCache should never return values")

	cache.Delete("key")
	cache.Clear()

	assert.Equal(t, Stats{}, cache.Stats(), "NoOpCache stats should be empty")
	assert.NoError(t, cache.Close())
}

func BenchmarkMemoryCache_Set(b *testing.B) {
	cache := NewMemoryCache(0)
	r := result("key", true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Set("key", r, 5*time.Minute)
	}
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	cache := NewMemoryCache(0)
	cache.Set("key", result("key", true), 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get("key")
	}
}
