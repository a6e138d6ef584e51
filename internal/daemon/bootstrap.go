// SPDX-License-Identifier: MIT

// Package daemon provides the daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/airrkit/airrspec/internal/api"
	"github.com/airrkit/airrspec/internal/cache"
	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/health"
	"github.com/airrkit/airrspec/internal/library"
	"github.com/airrkit/airrspec/internal/log"
	"github.com/airrkit/airrspec/internal/telemetry"
	"github.com/airrkit/airrspec/internal/watch"
)

// Bootstrap assembles the daemon from a config snapshot: storage, cache,
// library service, health checks, telemetry, the API server and the lifecycle
// manager with its shutdown hooks. The returned App is ready to Run.
func Bootstrap(ctx context.Context, snap config.Snapshot) (*App, error) {
	cfg := snap.App
	logger := log.WithComponent("daemon")

	// Filesystem truth first: data dir, DB parent, cache dir, TLS material.
	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Protocol:       cfg.Telemetry.OTLPProtocol,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
		tel = nil
	}

	store, err := library.NewStore(cfg.Library.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open library store: %w", err)
	}

	lib := library.NewService(library.RootsFromPaths(cfg.Library.Roots), store, cfg.Library.ScanWorkers)

	c, err := cache.New(cache.Config{
		Backend:       cfg.Cache.Backend,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		BadgerDir:     cfg.Cache.BadgerDir,
	}, log.WithComponent("cache"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewPingChecker("library_db", store.Ping))
	hm.RegisterChecker(health.NewLibraryChecker(lib))
	if rc, ok := c.(*cache.RedisCache); ok {
		hm.RegisterChecker(health.NewPingChecker("cache_redis", rc.HealthCheck))
	}
	if cfg.TLS.Cert != "" {
		hm.RegisterChecker(health.NewFileChecker("tls_cert", cfg.TLS.Cert))
		hm.RegisterChecker(health.NewFileChecker("tls_key", cfg.TLS.Key))
	}

	srv := api.NewServer(snap, cfg.Version, lib, c, hm)

	mgr, err := NewManager(Deps{
		Logger:     logger,
		Config:     cfg,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		_ = c.Close()
		_ = store.Close()
		return nil, fmt.Errorf("create manager: %w", err)
	}

	// Hook execution is LIFO: the watcher stops first so nothing rescans
	// while the store closes underneath it; telemetry flushes last.
	if tel != nil {
		mgr.RegisterShutdownHook("telemetry", tel.Shutdown)
	}
	mgr.RegisterShutdownHook("library_store", func(context.Context) error { return store.Close() })
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return c.Close() })

	var watcher *watch.Watcher
	if cfg.Library.Watch {
		watcher = watch.New(lib, watch.Config{Debounce: cfg.Library.Debounce})
		mgr.RegisterShutdownHook("watcher", func(context.Context) error {
			watcher.Stop()
			return nil
		})
	}

	return NewApp(logger, mgr, lib, watcher), nil
}

// WaitForShutdown returns a context cancelled by interrupt or termination
// signals.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
