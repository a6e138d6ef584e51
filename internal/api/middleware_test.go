// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/log"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated request IDs are UUIDs")
}

func TestRequestID_PassesThroughCallerID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "caller-supplied-id")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "caller-supplied-id", seen)
	assert.Equal(t, "caller-supplied-id", rr.Header().Get(HeaderRequestID))
}

func TestRecoverer_ConvertsPanicTo500(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotEmpty(t, body["requestId"])
}

func TestRecoverer_LeavesNormalRequestsAlone(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRateLimit_RejectsBurst(t *testing.T) {
	_, h := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.API.RateLimit = 2
	})

	// httptest gives every request the same RemoteAddr, so the per-IP
	// limiter sees one client.
	for i := 0; i < 2; i++ {
		rr := doRequest(t, h, http.MethodGet, "/v1/library/roots", "")
		require.Equal(t, http.StatusOK, rr.Code, "request %d within the limit", i+1)
	}

	rr := doRequest(t, h, http.MethodGet, "/v1/library/roots", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
}

func TestRateLimit_DoesNotCoverProbes(t *testing.T) {
	_, h := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.API.RateLimit = 1
	})

	for i := 0; i < 5; i++ {
		rr := doRequest(t, h, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestMaxBody_CapsV1Requests(t *testing.T) {
	_, h := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.API.MaxBodyBytes = 16
	})

	rr := doRequest(t, h, http.MethodPost, "/v1/validate", validSpecYAML)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
