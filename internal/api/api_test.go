// SPDX-License-Identifier: MIT

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/airrkit/airrspec/internal/cache"
	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/health"
	"github.com/airrkit/airrspec/internal/library"
)

const testToken = "test-token"

const validSpecYAML = `definitions:
  datasets:
    d1:
      format: AIRR
      params:
        path: data/
        metadata_file: data/metadata.csv
  encodings:
    e1:
      KmerFrequency:
        k: 3
  ml_methods:
    m1: LogisticRegression
  reports:
    rep1: SequenceLengthDistribution
instructions:
  inst1:
    type: TrainMLModel
    dataset: d1
    labels: [signal_disease]
    settings:
      - encoding: e1
        ml_method: m1
    assessment:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: balanced_accuracy
    metrics: [accuracy]
    reports: [rep1]
`

const invalidSpecYAML = `definitions:
  datasets:
    d1:
      format: AIRR
      params:
        path: data/
        metadata_file: data/metadata.csv
instructions: {}
`

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		Version:    "test",
		DataDir:    t.TempDir(),
		LogLevel:   "error",
		LogService: "airrspec",
		API: config.APIConfig{
			ListenAddr:      ":0",
			Token:           testToken,
			RateLimitWindow: time.Minute,
			MaxBodyBytes:    1 << 20,
		},
		Cache: config.CacheConfig{
			Backend: config.CacheBackendMemory,
			TTL:     time.Minute,
		},
	}
}

// newTestServer wires a Server over a real sqlite-backed library service.
// mutate may adjust the config before wiring; roots are the library
// directories to index.
func newTestServer(t *testing.T, mutate func(*config.AppConfig), roots ...string) (*Server, http.Handler) {
	t.Helper()

	cfg := testConfig(t)
	cfg.Library.Roots = roots
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := library.NewStore(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := library.NewService(library.RootsFromPaths(cfg.Library.Roots), store, 1)

	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	hm := health.NewManager(cfg.Version)

	srv := NewServer(config.Snapshot{App: cfg}, cfg.Version, svc, c, hm)
	return srv, srv.Handler()
}

func writeSpecFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// doRequest performs an authenticated request against the full handler.
func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := newAuthedRequest(t, method, target, body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func newAuthedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestHandler_HealthEndpointsUnauthenticated(t *testing.T) {
	_, h := newTestServer(t, nil)

	for _, target := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, "GET %s", target)
	}
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, func(cfg *config.AppConfig) {
		cfg.Metrics.Enabled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "airrspec_")
}

func TestHandler_MetricsDisabled(t *testing.T) {
	_, h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_VersionHeader(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := doRequest(t, h, http.MethodGet, "/v1/library/roots", "")

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, APIVersion, rr.Header().Get("X-API-Version"))
}
