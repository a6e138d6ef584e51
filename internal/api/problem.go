// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/airrkit/airrspec/internal/log"
)

// jsonKeyRequestID is the problem-document field carrying the request ID.
const jsonKeyRequestID = "requestId"

// writeProblem writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: machine identifier (e.g. "error/spec_parse_failed")
//   - title: human-readable short label
//   - code: stable machine-readable short code (e.g. "SPEC_PARSE_FAILED")
//   - detail: human-readable explanation of the specific failure
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	reqID := ""
	if r != nil {
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":           problemType,
		"title":          title,
		"status":         status,
		"code":           code,
		jsonKeyRequestID: reqID,
	}

	if detail != "" {
		res["detail"] = detail
	}
	if r != nil {
		if instance := r.URL.EscapedPath(); instance != "" {
			res["instance"] = instance
		}
	}

	// Extensions must not shadow reserved RFC 7807 keys.
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", jsonKeyRequestID:
			logger := log.Base()
			logger.Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.Base()
		logger.Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}
