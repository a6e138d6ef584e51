// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/airrkit/airrspec/internal/resilience"
)

// RedisCache is a Redis-backed implementation of Cache. Results are stored
// as JSON; Redis owns expiry. A breaker guards every round trip so a dead
// Redis degrades to fast misses instead of a per-request dial timeout.
type RedisCache struct {
	client  *redis.Client
	breaker *resilience.Breaker
	logger  zerolog.Logger
	stats   struct {
		hits      atomic.Int64
		misses    atomic.Int64
		sets      atomic.Int64
		evictions atomic.Int64
	}
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// NewRedisCache creates a new Redis-backed cache. The connection is verified
// with a ping before the cache is returned.
func NewRedisCache(config RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis cache")

	return &RedisCache{
		client:  client,
		breaker: resilience.NewBreaker("redis_cache", 3, 15*time.Second),
		logger:  logger,
	}, nil
}

// Get retrieves a result from Redis cache.
func (c *RedisCache) Get(key string) (Result, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var val []byte
	err := c.breaker.Do(func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy answer.
			return nil
		}
		if err != nil {
			return err
		}
		val = b
		return nil
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrOpen) {
			c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		c.stats.misses.Add(1)
		return Result{}, false
	}
	if val == nil {
		c.stats.misses.Add(1)
		return Result{}, false
	}

	var result Result
	if err := json.Unmarshal(val, &result); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("json unmarshal failed")
		c.stats.misses.Add(1)
		return Result{}, false
	}

	c.stats.hits.Add(1)
	return result, true
}

// Set stores a result in Redis cache with TTL.
func (c *RedisCache) Set(key string, value Result, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("json marshal failed")
		return
	}

	err = c.breaker.Do(func() error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrOpen) {
			c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
		}
		return
	}

	c.stats.sets.Add(1)
}

// Delete removes a result from Redis cache.
func (c *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.breaker.Do(func() error {
		return c.client.Del(ctx, key).Err()
	})
	if err != nil && !errors.Is(err, resilience.ErrOpen) {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

// Clear removes all results from the cache (flushes current DB).
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.breaker.Do(func() error {
		return c.client.FlushDB(ctx).Err()
	})
	if err != nil && !errors.Is(err, resilience.ErrOpen) {
		c.logger.Warn().Err(err).Msg("redis flush failed")
	}
}

// Stats returns cache statistics. The local counters always answer; the
// entry count reads 0 while the backend is unreachable.
func (c *RedisCache) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var size int64
	err := c.breaker.Do(func() error {
		n, err := c.client.DBSize(ctx).Result()
		size = n
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrOpen) {
			c.logger.Warn().Err(err).Msg("redis dbsize failed")
		}
		size = 0
	}

	return Stats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Sets:        c.stats.sets.Load(),
		Evictions:   c.stats.evictions.Load(),
		CurrentSize: int(size),
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// HealthCheck checks if Redis is available. It bypasses the breaker:
// readiness must reflect the backend itself, not the breaker's memory of it.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// BreakerState exposes the guard's position for diagnostics.
func (c *RedisCache) BreakerState() resilience.State {
	return c.breaker.State()
}
