// SPDX-License-Identifier: MIT

// Package resilience keeps optional backends from dragging the daemon down
// with them. A Breaker fails fast once a backend has proven unhealthy and
// lets traffic probe it again after a cooldown.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/airrkit/airrspec/internal/metrics"
)

// ErrOpen reports a call rejected without running because the breaker is open.
var ErrOpen = errors.New("breaker open")

// State names the breaker's position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// clock abstracts time for the cooldown tests.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Breaker is a mutex-guarded failure counter with three states. Closed lets
// calls through; threshold consecutive failures open it; once the cooldown
// has passed, calls flow again half-open, where the first failure reopens
// and the first success closes.
type Breaker struct {
	mu        sync.Mutex
	name      string
	state     State
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	clock     clock
}

// Option adjusts a Breaker at construction.
type Option func(*Breaker)

// WithClock substitutes the time source, for tests.
func WithClock(c clock) Option {
	return func(b *Breaker) { b.clock = c }
}

// NewBreaker creates a closed breaker. A threshold at or below zero defaults
// to 3 failures, a cooldown at or below zero to 30 seconds.
func NewBreaker(name string, threshold int, cooldown time.Duration, opts ...Option) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	b := &Breaker{
		name:      name,
		state:     StateClosed,
		threshold: threshold,
		cooldown:  cooldown,
		clock:     realClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	metrics.SetBreakerState(b.name, string(b.state))
	return b
}

// Do runs fn unless the breaker is open, recording the outcome. An open
// breaker returns ErrOpen without calling fn.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	if err := fn(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.clock.Now().Sub(b.openedAt) > b.cooldown {
			b.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen {
		metrics.RecordBreakerTrip(b.name, "probe_failed")
		b.transitionTo(StateOpen)
		return
	}
	if b.state == StateClosed && b.failures >= b.threshold {
		metrics.RecordBreakerTrip(b.name, "threshold_exceeded")
		b.transitionTo(StateOpen)
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != StateClosed {
		b.transitionTo(StateClosed)
	}
}

// transitionTo must be called with the lock held.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}
	b.state = next
	if next == StateOpen {
		b.openedAt = b.clock.Now()
	}
	metrics.SetBreakerState(b.name, string(next))
}
