// SPDX-License-Identifier: MIT

// Package ratelimit provides keyed token-bucket limiters for pacing
// repeated work per identity, such as rescans per library root.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var throttledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "airrspec",
		Name:      "ratelimit_throttled_total",
		Help:      "Total operations delayed or rejected by a keyed limiter",
	},
	[]string{"limiter"},
)

// Config holds the bucket shape shared by every key.
type Config struct {
	// Name labels the limiter in metrics.
	Name string

	// Rate is the sustained refill rate per key.
	Rate rate.Limit

	// Burst is the bucket depth per key.
	Burst int

	// CleanupInterval drops idle per-key buckets. Zero disables cleanup.
	CleanupInterval time.Duration
}

// Keyed manages one token bucket per key.
type Keyed struct {
	config Config

	mu          sync.Mutex
	buckets     map[string]*rate.Limiter
	lastCleanup time.Time
}

// NewKeyed creates a keyed limiter with the given bucket shape.
func NewKeyed(config Config) *Keyed {
	return &Keyed{
		config:      config,
		buckets:     make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether one event for key may proceed now.
func (k *Keyed) Allow(key string) bool {
	// Sweep before touching the bucket so the current key survives.
	k.maybeCleanup()

	allowed := k.bucket(key).Allow()
	if !allowed {
		throttledTotal.WithLabelValues(k.config.Name).Inc()
	}

	return allowed
}

// Wait blocks until one event for key may proceed or ctx ends. A wait that
// had to block counts as throttled.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.maybeCleanup()

	r := k.bucket(key).Reserve()
	if !r.OK() {
		return fmt.Errorf("ratelimit %s: burst %d cannot admit request for key %q", k.config.Name, k.config.Burst, key)
	}

	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	throttledTotal.WithLabelValues(k.config.Name).Inc()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// bucket returns the limiter for a key, creating it on first use.
func (k *Keyed) bucket(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	limiter, exists := k.buckets[key]
	if !exists {
		limiter = rate.NewLimiter(k.config.Rate, k.config.Burst)
		k.buckets[key] = limiter
	}

	return limiter
}

// maybeCleanup clears all buckets once the cleanup interval has passed.
// Wholesale reset, no per-key idle tracking; keep the interval large
// relative to the refill rate.
func (k *Keyed) maybeCleanup() {
	if k.config.CleanupInterval <= 0 {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if time.Since(k.lastCleanup) < k.config.CleanupInterval {
		return
	}

	k.buckets = make(map[string]*rate.Limiter)
	k.lastCleanup = time.Now()
}
