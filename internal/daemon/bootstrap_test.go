// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/log"
)

func TestMain(m *testing.M) {
	log.Configure(log.Config{Level: "error", Output: io.Discard, Service: "test"})
	os.Exit(m.Run())
}

const bootstrapSpecYAML = `definitions:
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
`

// bootstrapConfig builds a snapshot with one library root holding a single
// spec, a memory cache and rate limiting off so no limiter sweeper runs.
func bootstrapConfig(t *testing.T, addr string) config.Snapshot {
	t.Helper()

	dataDir := t.TempDir()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "spec.yaml"), []byte(bootstrapSpecYAML), 0o600); err != nil {
		t.Fatalf("write spec fixture: %v", err)
	}

	return config.Snapshot{App: config.AppConfig{
		Version:    "test",
		DataDir:    dataDir,
		LogLevel:   "error",
		LogService: "airrspec-test",
		API: config.APIConfig{
			ListenAddr:    addr,
			AuthAnonymous: true,
			MaxBodyBytes:  1 << 20,
		},
		Server: config.ServerConfig{
			ReadHeaderTimeout: 1 * time.Second,
			ReadTimeout:       2 * time.Second,
			WriteTimeout:      2 * time.Second,
			IdleTimeout:       10 * time.Second,
			ShutdownTimeout:   2 * time.Second,
		},
		Library: config.LibraryConfig{
			Roots:       []string{root},
			DBPath:      filepath.Join(dataDir, "library.db"),
			ScanWorkers: 2,
		},
		Cache: config.CacheConfig{
			Backend: config.CacheBackendMemory,
			TTL:     time.Minute,
		},
	}}
}

func TestBootstrap_RunAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	addr := reserveListenAddr(t)
	snap := bootstrapConfig(t, addr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Bootstrap(ctx, snap)
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Run(ctx)
	}()

	if err := waitForListen(addr, 5*time.Second); err != nil {
		t.Fatalf("server did not start listening: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err = http.Get("http://" + addr + "/v1/library/roots")
	if err != nil {
		t.Fatalf("GET /v1/library/roots failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /v1/library/roots status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestBootstrap_FailsWhenDataDirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	snap := bootstrapConfig(t, "127.0.0.1:0")
	snap.App.DataDir = blocker

	_, err := Bootstrap(context.Background(), snap)
	if err == nil {
		t.Fatal("Bootstrap() expected error for unusable data dir, got nil")
	}
	if !contains(err.Error(), "startup checks") {
		t.Errorf("Bootstrap() error = %v, want startup checks failure", err)
	}
}

func TestApp_RunRequiresManager(t *testing.T) {
	app := NewApp(log.WithComponent("test"), nil, nil, nil)

	err := app.Run(context.Background())
	if !errors.Is(err, ErrMissingManager) {
		t.Errorf("Run() error = %v, want %v", err, ErrMissingManager)
	}
}
