// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation scope for spans and metrics emitted by this package.
const scopeName = "airrspec"

// StartSpan starts a child span on the globally installed tracer provider.
// The provider is looked up per call, never cached at init time, so tests
// and late configuration can swap it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(scopeName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EmitValidationObs records one validation pass on the current span and the
// validation counter.
func EmitValidationObs(ctx context.Context, digest, outcome string, errorCount, warningCount int) {
	span := trace.SpanFromContext(ctx)
	meter := otel.GetMeterProvider().Meter(scopeName)

	total, _ := meter.Int64Counter("airrspec_validation_total",
		metric.WithDescription("Total validation passes"))
	total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))

	attrs := append(SpecAttributes(digest, ""),
		ValidationAttributes(outcome, errorCount, warningCount)...)
	span.SetAttributes(attrs...)
}

// EmitExpansionObs records one expansion pass on the current span and the
// expansion counter.
func EmitExpansionObs(ctx context.Context, digest, outcome string, changeCount int) {
	span := trace.SpanFromContext(ctx)
	meter := otel.GetMeterProvider().Meter(scopeName)

	total, _ := meter.Int64Counter("airrspec_expansion_total",
		metric.WithDescription("Total expansion passes"))
	total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))

	attrs := append(SpecAttributes(digest, ""),
		ExpansionAttributes(outcome, changeCount)...)
	span.SetAttributes(attrs...)
}

// EmitScanObs records one finished library scan on the current span and the
// scan counter. Root IDs go on the span only, not the counter.
func EmitScanObs(ctx context.Context, rootID, status string, itemCount int) {
	span := trace.SpanFromContext(ctx)
	meter := otel.GetMeterProvider().Meter(scopeName)

	total, _ := meter.Int64Counter("airrspec_library_scan_total",
		metric.WithDescription("Total library scans"))
	total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))

	span.SetAttributes(ScanAttributes(rootID, status, itemCount)...)
}
