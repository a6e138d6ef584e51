// SPDX-License-Identifier: MIT

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

// carriers lists the IDs that travel in contexts and the log field each one
// lands in. Enrichment walks this table, so adding an ID is one line.
var carriers = []struct {
	key   ctxKey
	field string
}{
	{"request_id", FieldRequestID},
	{"scan_id", FieldScanID},
}

func withValue(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func valueFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithRequestID stores the HTTP request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, "request_id", id)
}

// RequestIDFromContext extracts the request ID, or "" if absent.
func RequestIDFromContext(ctx context.Context) string {
	return valueFrom(ctx, "request_id")
}

// ContextWithScanID stores the library scan ID in the context.
func ContextWithScanID(ctx context.Context, id string) context.Context {
	return withValue(ctx, "scan_id", id)
}

// ScanIDFromContext extracts the scan ID, or "" if absent.
func ScanIDFromContext(ctx context.Context) string {
	return valueFrom(ctx, "scan_id")
}

// WithContext enriches the supplied logger with every carried ID present in
// ctx. A context without IDs returns the logger unchanged.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	builder := logger.With()
	added := false
	for _, c := range carriers {
		if v := valueFrom(ctx, c.key); v != "" {
			builder = builder.Str(c.field, v)
			added = true
		}
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext returns a logger annotated with the component
// name and enriched with the IDs carried in ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := FromContext(ctx)
	return WithContext(ctx, l.With().Str(FieldComponent, component).Logger())
}

// FromContext returns the context's logger, or the base logger when the
// context carries none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := Base()
		return &l
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		b := Base()
		return &b
	}
	return l
}
