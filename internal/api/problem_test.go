// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrkit/airrspec/internal/log"
)

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestWriteProblem_Shape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "req-123"))
	rr := httptest.NewRecorder()

	writeProblem(rr, req, http.StatusBadRequest, "error/spec_parse_failed", "Spec document could not be parsed", "SPEC_PARSE_FAILED", "line 4: mapping values are not allowed", nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeProblem(t, rr)
	assert.Equal(t, "error/spec_parse_failed", body["type"])
	assert.Equal(t, "Spec document could not be parsed", body["title"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, "SPEC_PARSE_FAILED", body["code"])
	assert.Equal(t, "line 4: mapping values are not allowed", body["detail"])
	assert.Equal(t, "/v1/validate", body["instance"])
	assert.Equal(t, "req-123", body["requestId"])
	assert.Equal(t, "req-123", rr.Header().Get(HeaderRequestID))
}

func TestWriteProblem_OmitsEmptyDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/library", nil)
	rr := httptest.NewRecorder()

	writeProblem(rr, req, http.StatusUnauthorized, "error/unauthorized", "Authentication required", "UNAUTHORIZED", "", nil)

	body := decodeProblem(t, rr)
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}

func TestWriteProblem_ReservedExtrasIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/library", nil)
	rr := httptest.NewRecorder()

	writeProblem(rr, req, http.StatusNotFound, "error/item_not_found", "Library item not found", "ITEM_NOT_FOUND", "", map[string]any{
		"status": 200,
		"type":   "spoofed",
		"digest": "abc123",
	})

	body := decodeProblem(t, rr)
	assert.Equal(t, float64(http.StatusNotFound), body["status"], "extras must not shadow the real status")
	assert.Equal(t, "error/item_not_found", body["type"])
	assert.Equal(t, "abc123", body["digest"], "non-reserved extras pass through")
}

func TestWriteProblem_NilRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set(HeaderRequestID, "hdr-id")

	writeProblem(rr, nil, http.StatusInternalServerError, "error/internal_server_error", "An internal error occurred", "INTERNAL_SERVER_ERROR", "", nil)

	body := decodeProblem(t, rr)
	assert.Equal(t, "hdr-id", body["requestId"], "falls back to the response header ID")
	_, hasInstance := body["instance"]
	assert.False(t, hasInstance)
}

func TestRespondError_DerivesTypeFromCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/expand", nil)
	rr := httptest.NewRecorder()

	RespondError(rr, req, http.StatusUnprocessableEntity, ErrExpansionFailed)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeProblem(t, rr)
	assert.Equal(t, "error/expansion_failed", body["type"])
	assert.Equal(t, ErrExpansionFailed.Message, body["title"])
	assert.Equal(t, "EXPANSION_FAILED", body["code"])
}

func TestRespondError_AttachesDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/expand", nil)
	rr := httptest.NewRecorder()

	RespondError(rr, req, http.StatusBadRequest, ErrSpecParseFailed, "yaml: unknown anchor")

	body := decodeProblem(t, rr)
	assert.Equal(t, "yaml: unknown anchor", body["details"])
}

func TestAPIError_ImplementsError(t *testing.T) {
	var err error = ErrItemNotFound
	assert.Equal(t, ErrItemNotFound.Message, err.Error())
}
