// SPDX-License-Identifier: MIT

package cache

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config selects and configures a cache backend.
type Config struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BadgerDir     string
}

// memoryCleanupInterval is how often the in-memory backend sweeps expired
// entries. Redis and Badger expire server-side.
const memoryCleanupInterval = time.Minute

// New builds the cache backend named by cfg.Backend.
func New(cfg Config, logger zerolog.Logger) (Cache, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryCache(memoryCleanupInterval), nil
	case BackendRedis:
		return NewRedisCache(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	case BackendBadger:
		return NewBadgerCache(cfg.BadgerDir, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
