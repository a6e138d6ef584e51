// SPDX-License-Identifier: MIT

// Package watch rescans library roots when spec files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/airrkit/airrspec/internal/audit"
	"github.com/airrkit/airrspec/internal/library"
	"github.com/airrkit/airrspec/internal/log"
	"github.com/airrkit/airrspec/internal/ratelimit"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultMinInterval = 10 * time.Second
)

// Config controls how filesystem events are coalesced into rescans.
type Config struct {
	// Debounce is the quiet window after the last event before a rescan.
	Debounce time.Duration

	// MinInterval is the floor between consecutive rescans of one root.
	MinInterval time.Duration
}

// Watcher triggers library rescans from filesystem events. Events are
// debounced per root and paced by a keyed rate limiter. The rescan itself
// re-walks the whole root, so a missed or re-ordered event cannot lose
// state; it only delays it to the next trigger.
type Watcher struct {
	library  *library.Service
	debounce time.Duration
	limiter  *ratelimit.Keyed
	logger   zerolog.Logger

	fsw    *fsnotify.Watcher
	roots  []watchRoot
	cancel context.CancelFunc

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool

	wg sync.WaitGroup
}

type watchRoot struct {
	cfg  library.RootConfig
	path string // resolved root path
}

// New creates a watcher for the service's configured roots.
func New(lib *library.Service, cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}

	return &Watcher{
		library:  lib,
		debounce: cfg.Debounce,
		limiter: ratelimit.NewKeyed(ratelimit.Config{
			Name:  "watch_rescan",
			Rate:  rate.Every(cfg.MinInterval),
			Burst: 1,
		}),
		logger: log.WithComponent("watch"),
		timers: make(map[string]*time.Timer),
	}
}

// Start registers every root directory tree with fsnotify and runs the
// event loop until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.fsw = fsw

	ctx, w.cancel = context.WithCancel(ctx)

	for _, cfg := range w.library.GetConfigs() {
		resolved, err := filepath.EvalSymlinks(cfg.Path)
		if err != nil {
			w.logger.Warn().
				Err(err).
				Str(log.FieldRootID, cfg.ID).
				Str(log.FieldPath, cfg.Path).
				Msg("library root not watchable")
			continue
		}
		root := watchRoot{cfg: cfg, path: filepath.Clean(resolved)}
		w.roots = append(w.roots, root)
		w.addTree(root, root.path)
	}

	w.logger.Info().
		Int("roots", len(w.roots)).
		Dur("debounce", w.debounce).
		Msg("watching library roots")

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop cancels pending rescans, closes the notifier, and waits for the
// event loop and any in-flight rescan to return.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}

	w.mu.Lock()
	w.stopped = true
	for rootID, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, rootID)
	}
	w.mu.Unlock()

	if w.fsw != nil {
		_ = w.fsw.Close()
	}

	w.wg.Wait()
}

// addTree watches dir and every directory below it, skipping dot
// directories and honoring the root's depth limit. fsnotify watches are
// not recursive, so each directory is added individually.
func (w *Watcher) addTree(root watchRoot, dir string) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn().Err(err).Str(log.FieldPath, path).Msg("watch registration error")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root.path && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if root.cfg.MaxDepth > 0 {
			rel, relErr := filepath.Rel(root.path, path)
			if relErr == nil && rel != "." && strings.Count(rel, string(os.PathSeparator)) >= root.cfg.MaxDepth {
				return fs.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn().Err(err).Str(log.FieldPath, path).Msg("failed to watch directory")
		}
		return nil
	})
	if walkErr != nil {
		w.logger.Warn().Err(walkErr).Str(log.FieldPath, dir).Msg("watch registration walk failed")
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("watch loop stopped")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// handleEvent maps one filesystem event onto the roots it touches and
// arms their debounce timers.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	path := filepath.Clean(event.Name)
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return
	}

	for _, root := range w.roots {
		if !under(root.path, path) {
			continue
		}

		relevant := false
		switch {
		case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
			// Gone from disk; could have been a spec file or a whole
			// directory. A rescan settles either case.
			relevant = true
		case isDir(path):
			if event.Has(fsnotify.Create) {
				w.addTree(root, path)
				relevant = true
			}
		case root.cfg.AllowsFile(base):
			relevant = true
		}

		if relevant {
			w.logger.Debug().
				Str(log.FieldRootID, root.cfg.ID).
				Str(log.FieldPath, path).
				Str("op", event.Op.String()).
				Msg("library root changed")
			w.schedule(ctx, root.cfg.ID)
		}
	}
}

// schedule arms or re-arms the debounce timer for a root.
func (w *Watcher) schedule(ctx context.Context, rootID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	if old, ok := w.timers[rootID]; ok && old.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	w.timers[rootID] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.rescan(ctx, rootID)
	})
}

// rescan waits for the pacing limiter, then triggers the scan. A scan
// already in flight means changes arrived mid-scan; the debounce is
// re-armed so they are picked up afterwards.
func (w *Watcher) rescan(ctx context.Context, rootID string) {
	if err := w.limiter.Wait(ctx, rootID); err != nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	err := w.library.TriggerScan(audit.WithActor(ctx, "watcher"), rootID)
	switch {
	case err == nil:
	case errors.Is(err, library.ErrScanRunning):
		w.schedule(ctx, rootID)
	default:
		w.logger.Error().
			Err(err).
			Str(log.FieldRootID, rootID).
			Msg("watch-triggered rescan failed")
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func under(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
