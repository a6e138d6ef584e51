// SPDX-License-Identifier: MIT

package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used across the daemon.
const (
	SpecDigestKey   = "airrspec.spec.digest"
	SpecPathKey     = "airrspec.spec.path"
	OutcomeKey      = "airrspec.outcome"
	ErrorCountKey   = "airrspec.error_count"
	WarningCountKey = "airrspec.warning_count"
	ChangeCountKey  = "airrspec.expand.changes"
	LibraryRootKey  = "airrspec.library.root"
	ScanStatusKey   = "airrspec.library.scan_status"
	ItemCountKey    = "airrspec.library.items"
	ErrorKey        = "error"
	ErrorTypeKey    = "error.type"
)

// SpecAttributes describes one parsed document. Empty fields are omitted.
func SpecAttributes(digest, path string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if digest != "" {
		attrs = append(attrs, attribute.String(SpecDigestKey, digest))
	}
	if path != "" {
		attrs = append(attrs, attribute.String(SpecPathKey, path))
	}
	return attrs
}

// ValidationAttributes describes the result of one validation pass.
func ValidationAttributes(outcome string, errorCount, warningCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(OutcomeKey, outcome),
		attribute.Int(ErrorCountKey, errorCount),
		attribute.Int(WarningCountKey, warningCount),
	}
}

// ExpansionAttributes describes the result of one expansion pass.
func ExpansionAttributes(outcome string, changeCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(OutcomeKey, outcome),
		attribute.Int(ChangeCountKey, changeCount),
	}
}

// ScanAttributes describes one library scan.
func ScanAttributes(rootID, status string, itemCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(LibraryRootKey, rootID),
		attribute.String(ScanStatusKey, status),
		attribute.Int(ItemCountKey, itemCount),
	}
}

// ErrorAttributes marks a span as failed with a coarse classification.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(ErrorKey, err != nil),
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String(ErrorTypeKey, errorType))
	}
	return attrs
}
