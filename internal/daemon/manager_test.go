// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/log"
)

// contains is a helper to check if a string contains a substring
func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func testAppConfig(addr string) config.AppConfig {
	return config.AppConfig{
		API: config.APIConfig{ListenAddr: addr},
		Server: config.ServerConfig{
			ReadHeaderTimeout: 1 * time.Second,
			ReadTimeout:       1 * time.Second,
			WriteTimeout:      1 * time.Second,
			IdleTimeout:       10 * time.Second,
			ShutdownTimeout:   2 * time.Second,
		},
	}
}

func TestNewManager_ValidDeps(t *testing.T) {
	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig("127.0.0.1:0"),
		APIHandler: http.NotFoundHandler(),
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if mgr == nil {
		t.Fatal("NewManager() returned nil manager")
	}
}

func TestNewManager_MissingLogger(t *testing.T) {
	deps := Deps{
		Logger:     zerolog.Nop(), // Disabled logger
		Config:     testAppConfig("127.0.0.1:0"),
		APIHandler: http.NotFoundHandler(),
	}

	_, err := NewManager(deps)
	if !errors.Is(err, ErrMissingLogger) {
		t.Errorf("NewManager() error = %v, want %v", err, ErrMissingLogger)
	}
}

func TestNewManager_MissingAPIHandler(t *testing.T) {
	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig("127.0.0.1:0"),
		APIHandler: nil,
	}

	_, err := NewManager(deps)
	if !errors.Is(err, ErrMissingAPIHandler) {
		t.Errorf("NewManager() error = %v, want %v", err, ErrMissingAPIHandler)
	}
}

func TestManager_StartStop_OK(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := reserveListenAddr(t)
	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig(addr),
		APIHandler: handler,
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	if err := waitForListen(addr, 2*time.Second); err != nil {
		t.Fatalf("server did not start listening: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// Trigger shutdown
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func TestManager_HooksRunInReverseOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	addr := reserveListenAddr(t)
	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig(addr),
		APIHandler: http.NotFoundHandler(),
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	if err := waitForListen(addr, 2*time.Second); err != nil {
		t.Fatalf("server did not start listening: %v", err)
	}
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("hooks executed = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("hook[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestManager_ReportsHookFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	addr := reserveListenAddr(t)
	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig(addr),
		APIHandler: http.NotFoundHandler(),
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	hookErr := errors.New("flush failed")
	ranAfterFailure := false
	mgr.RegisterShutdownHook("store", func(context.Context) error {
		ranAfterFailure = true
		return nil
	})
	mgr.RegisterShutdownHook("cache", func(context.Context) error {
		return hookErr
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	if err := waitForListen(addr, 2*time.Second); err != nil {
		t.Fatalf("server did not start listening: %v", err)
	}
	cancel()

	select {
	case err := <-errChan:
		if !errors.Is(err, hookErr) {
			t.Errorf("Start() error = %v, want wrapped %v", err, hookErr)
		}
		if !contains(err.Error(), "hook cache") {
			t.Errorf("Start() error = %v, want hook name in message", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	// A failing hook must not prevent later hooks from running.
	if !ranAfterFailure {
		t.Error("hook registered before the failing one did not run")
	}
}

func TestManager_Shutdown_TimesOut(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	// Handler that holds its request open until released.
	requestStarted := make(chan struct{})
	releaseHandler := make(chan struct{})
	handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-requestStarted:
		default:
			close(requestStarted)
		}
		select {
		case <-r.Context().Done():
		case <-releaseHandler:
		}
	})

	addr := reserveListenAddr(t)
	cfg := testAppConfig(addr)
	cfg.Server.ShutdownTimeout = 100 * time.Millisecond
	cfg.Server.WriteTimeout = 5 * time.Second

	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     cfg,
		APIHandler: handler,
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()

	if err := waitForListen(addr, 2*time.Second); err != nil {
		t.Fatalf("server did not start listening: %v", err)
	}

	requestDone := make(chan struct{})
	go func() {
		defer close(requestDone)
		client := &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		}
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+addr, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil {
			_ = resp.Body.Close()
		}
	}()

	select {
	case <-requestStarted:
		// Request is in-flight; shutdown should now hit timeout path.
	case <-time.After(2 * time.Second):
		t.Fatal("expected in-flight request before shutdown")
	}

	cancel()

	select {
	case err := <-errChan:
		if err == nil {
			t.Fatal("expected shutdown timeout error, got nil")
		}
		if !contains(err.Error(), "shutdown errors") && !contains(err.Error(), "context deadline exceeded") {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	close(releaseHandler)

	select {
	case <-requestDone:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked request did not terminate after shutdown")
	}
}

func TestManager_Shutdown_NotStarted(t *testing.T) {
	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig("127.0.0.1:0"),
		APIHandler: http.NotFoundHandler(),
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	err = mgr.Shutdown(context.Background())
	if !errors.Is(err, ErrManagerNotStarted) {
		t.Errorf("Shutdown() error = %v, want %v", err, ErrManagerNotStarted)
	}
}

func TestManager_PropagatesListenErrors(t *testing.T) {
	// Occupy a port so the manager's bind fails.
	testServer := httptest.NewServer(http.NotFoundHandler())
	defer testServer.Close()

	addr := testServer.Listener.Addr().String()

	deps := Deps{
		Logger:     log.WithComponent("test"),
		Config:     testAppConfig(addr),
		APIHandler: http.NotFoundHandler(),
	}

	mgr, err := NewManager(deps)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = mgr.Start(ctx)
	if err == nil {
		t.Error("Start() expected error for port conflict, got nil")
	}
}
