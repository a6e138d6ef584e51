// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/airrkit/airrspec/internal/log"
)

// APIError pairs a stable machine-readable code with a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common API error definitions.
var (
	ErrUnauthorized = &APIError{
		Code:    "UNAUTHORIZED",
		Message: "Authentication required",
	}

	ErrSpecParseFailed = &APIError{
		Code:    "SPEC_PARSE_FAILED",
		Message: "Spec document could not be parsed",
	}
	ErrSpecTooLarge = &APIError{
		Code:    "SPEC_TOO_LARGE",
		Message: "Spec document exceeds the configured size limit",
	}
	ErrExpansionFailed = &APIError{
		Code:    "EXPANSION_FAILED",
		Message: "Spec document could not be expanded",
	}

	ErrItemNotFound = &APIError{
		Code:    "ITEM_NOT_FOUND",
		Message: "Library item not found",
	}
	ErrLibraryScanRunning = &APIError{
		Code:    "LIBRARY_SCAN_RUNNING",
		Message: "Library scan already in progress, retry later",
	}
	ErrLibraryRootNotFound = &APIError{
		Code:    "LIBRARY_ROOT_NOT_FOUND",
		Message: "Library root not found",
	}
	ErrLibraryScanFailed = &APIError{
		Code:    "LIBRARY_SCAN_FAILED",
		Message: "Library scan failed",
	}

	ErrInternalServer = &APIError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "An internal error occurred",
	}
)

// RespondError sends a structured error response via writeProblem.
//   - title: APIError.Message (human)
//   - code:  APIError.Code (machine)
//   - type:  prefixed lowercase code for URI reference
func RespondError(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *APIError, details ...any) {
	var d any
	if len(details) > 0 {
		d = details[0]
	}

	problemType := "error/" + strings.ToLower(apiErr.Code)

	extra := make(map[string]any)
	if d != nil {
		extra["details"] = d
	}

	writeProblem(w, r, statusCode, problemType, apiErr.Message, apiErr.Code, "", extra)
}

// writeJSON writes a JSON response with the given status code. Headers are
// already sent if encoding fails, so the failure is only logged.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Error().
			Err(err).
			Int("status", code).
			Msg("failed to encode JSON response")
	}
}
