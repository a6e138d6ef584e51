// SPDX-License-Identifier: MIT

package daemon

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/airrkit/airrspec/internal/audit"
	"github.com/airrkit/airrspec/internal/library"
	"github.com/airrkit/airrspec/internal/watch"
)

// App owns the long-lived runtime subsystems (library watcher, startup scan)
// and delegates server management to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
	library *library.Service
	watcher *watch.Watcher
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, lib *library.Service, watcher *watch.Watcher) *App {
	return &App{
		logger:  logger,
		manager: manager,
		library: lib,
		watcher: watcher,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Watcher is best-effort: startup should not fail when inotify is
	// unavailable, since manual rescans still work.
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "watch.start_failed").Msg("failed to start library watcher")
		}
	}

	// Initial scan runs in the background so a large tree never delays
	// serving; endpoints scan never-scanned roots on demand anyway.
	if a.library != nil {
		g.Go(func() error {
			if err := a.library.ScanAll(audit.WithActor(ctx, "startup")); err != nil {
				a.logger.Warn().
					Err(err).
					Str("event", "library.startup_scan_failed").
					Msg("startup scan finished with errors")
			}
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
