// SPDX-License-Identifier: MIT

// Package audit emits a structured who/what/when trail for operations an
// operator may need to reconstruct later: index rescans and rejected API
// credentials. Entries ride the normal log stream tagged log_type=audit so
// collectors can route them into separate retention.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/airrkit/airrspec/internal/log"
)

// EventType names an audit event.
type EventType string

const (
	EventScanStart   EventType = "scan.start"
	EventScanSuccess EventType = "scan.success"
	EventScanError   EventType = "scan.error"

	EventAuthFailure EventType = "auth.failure"
	EventAuthMissing EventType = "auth.missing"
)

// Event is one audit entry. Actor answers WHO: an API client, the filesystem
// watcher, startup, or "system" when nobody claimed the action.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Actor      string
	Action     string
	Resource   string
	Result     string
	RemoteAddr string
	Details    map[string]string
}

// Logger writes audit events.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger on the shared log stream.
func NewLogger() *Logger {
	return &Logger{
		logger: log.WithComponent("audit").With().Str("log_type", "audit").Logger(),
	}
}

// Log writes one event. A zero timestamp is filled with the current time.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	entry := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	if event.RemoteAddr != "" {
		entry.Str("remote_addr", event.RemoteAddr)
	}
	for k, v := range event.Details {
		entry.Str(k, v)
	}

	entry.Msg("audit event")
}

// ScanStart records the beginning of a library rescan.
func (l *Logger) ScanStart(actor, rootID string) {
	l.Log(Event{
		Type:     EventScanStart,
		Actor:    actor,
		Action:   "started library scan",
		Resource: rootID,
		Result:   "started",
	})
}

// ScanComplete records a finished rescan with its headline numbers.
func (l *Logger) ScanComplete(actor, rootID, status string, scanned int, duration time.Duration) {
	l.Log(Event{
		Type:     EventScanSuccess,
		Actor:    actor,
		Action:   "completed library scan",
		Resource: rootID,
		Result:   status,
		Details: map[string]string{
			"scanned":     strconv.Itoa(scanned),
			"duration_ms": strconv.FormatInt(duration.Milliseconds(), 10),
		},
	})
}

// ScanError records a rescan that did not finish.
func (l *Logger) ScanError(actor, rootID, reason string) {
	l.Log(Event{
		Type:     EventScanError,
		Actor:    actor,
		Action:   "library scan failed",
		Resource: rootID,
		Result:   "failure",
		Details:  map[string]string{"error": reason},
	})
}

// AuthFailure records a request that presented a wrong credential.
func (l *Logger) AuthFailure(remoteAddr, resource, reason string) {
	l.Log(Event{
		Type:       EventAuthFailure,
		Actor:      remoteAddr,
		Action:     "authentication failed",
		Resource:   resource,
		Result:     "denied",
		RemoteAddr: remoteAddr,
		Details:    map[string]string{"reason": reason},
	})
}

// AuthMissing records a request that presented no credential at all.
func (l *Logger) AuthMissing(remoteAddr, resource string) {
	l.Log(Event{
		Type:       EventAuthMissing,
		Actor:      remoteAddr,
		Action:     "request without credentials",
		Resource:   resource,
		Result:     "denied",
		RemoteAddr: remoteAddr,
	})
}

type actorKey struct{}

// WithActor marks the context with who initiated the surrounding operation.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the marked actor, or "system".
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
