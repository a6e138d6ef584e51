// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldScanID    = "scan_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Document fields
	FieldSpecID   = "spec_id"
	FieldRootID   = "root_id"
	FieldPath     = "path"
	FieldChecksum = "checksum"

	// Outcome fields
	FieldOutcome   = "outcome"
	FieldErrorCode = "error_code"
)
