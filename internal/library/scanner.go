// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/airrkit/airrspec/internal/fsutil"
	"github.com/airrkit/airrspec/internal/log"
)

// Scanner walks library roots and indexes the spec files it finds.
type Scanner struct {
	store   *Store
	workers int
}

// NewScanner creates a scanner that reads and parses files with the given
// number of concurrent workers.
func NewScanner(store *Store, workers int) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{store: store, workers: workers}
}

// scanTask is one file selected by the walk, waiting to be read and parsed.
type scanTask struct {
	rel      string
	resolved string
	info     fs.FileInfo
}

// ScanRoot walks one root and reconciles the index with what is on disk.
// Files whose size and mtime match the stored row keep it untouched apart
// from the scan timestamp; changed and new files are re-read, digested and
// validated; rows for vanished files are removed. All writes happen in a
// single transaction.
func (sc *Scanner) ScanRoot(ctx context.Context, cfg RootConfig) (*ScanResult, error) {
	logger := log.WithComponentFromContext(ctx, "library")

	result := &ScanResult{
		RootID:      cfg.ID,
		Started:     time.Now().UTC(),
		FinalStatus: RootStatusOK,
	}

	rootResolved, err := fsutil.ResolveRoot(cfg.Path)
	if err != nil {
		return failScan(result, fmt.Errorf("resolve root: %w", err))
	}

	stamps, err := sc.store.GetItemStamps(ctx, cfg.ID)
	if err != nil {
		return failScan(result, fmt.Errorf("load item stamps: %w", err))
	}

	scanTime := time.Now().UTC()

	tasks, fresh, err := sc.collect(ctx, logger, cfg, rootResolved, stamps, result)
	if err != nil {
		return failScan(result, err)
	}

	items := make([]Item, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.workers)
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = sc.index(cfg.ID, t, scanTime)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failScan(result, fmt.Errorf("index files: %w", err))
	}

	tx, err := sc.store.BeginTx(ctx)
	if err != nil {
		return failScan(result, fmt.Errorf("begin tx: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, rel := range fresh {
		if err := sc.store.TouchItem(ctx, tx, cfg.ID, rel, scanTime); err != nil {
			result.ErrorCount++
			logScanError(logger, cfg.ID, "db", rel, err)
			continue
		}
		result.ItemsUnchanged++
	}

	for _, item := range items {
		if err := sc.store.UpsertItem(ctx, tx, item); err != nil {
			result.ErrorCount++
			logScanError(logger, cfg.ID, "db", item.RelPath, err)
			continue
		}
		if item.Status == ItemStatusUnreadable {
			result.ErrorCount++
		}
		if _, existed := stamps[item.RelPath]; existed {
			result.ItemsUpdated++
		} else {
			result.ItemsIndexed++
		}
	}

	removed, err := sc.store.DeleteStaleItems(ctx, tx, cfg.ID, scanTime)
	if err != nil {
		result.ErrorCount++
		logScanError(logger, cfg.ID, "db", "", err)
	} else {
		result.ItemsRemoved = int(removed)
	}

	result.TotalScanned = result.ItemsIndexed + result.ItemsUpdated + result.ItemsUnchanged
	if result.ErrorCount > 0 {
		result.FinalStatus = RootStatusDegraded
	}

	if err := tx.Commit(); err != nil {
		return failScan(result, fmt.Errorf("commit scan: %w", err))
	}
	committed = true

	result.Finished = time.Now().UTC()
	return result, nil
}

// failScan marks the result failed and returns it together with err.
func failScan(result *ScanResult, err error) (*ScanResult, error) {
	result.FinalStatus = RootStatusFailed
	result.LastError = err.Error()
	result.Finished = time.Now().UTC()
	return result, err
}

// collect walks the tree below root and partitions candidate files into
// tasks that need reading and rel paths whose stored rows are still fresh.
// Relative paths are normalized to NFC so files written on macOS and Linux
// index identically.
func (sc *Scanner) collect(ctx context.Context, logger zerolog.Logger, cfg RootConfig, root string, stamps map[string]ItemStamp, result *ScanResult) (tasks []scanTask, fresh []string, err error) {
	seen := make(map[string]struct{})

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			result.ErrorCount++
			logScanError(logger, cfg.ID, "walk", path, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			// Skip dot directories (.git and friends).
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && cfg.MaxDepth > 0 && strings.Count(rel, string(os.PathSeparator)) >= cfg.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if !cfg.AllowsFile(d.Name()) {
			return nil
		}

		fileResolved, rel, confineErr := fsutil.ConfineToRoot(root, path)
		if confineErr != nil {
			if errors.Is(confineErr, fsutil.ErrOutsideRoot) {
				logger.Warn().
					Str(log.FieldRootID, cfg.ID).
					Str(log.FieldPath, path).
					Msg("library scan: file resolves outside root, skipping")
				return nil
			}
			result.ErrorCount++
			logScanError(logger, cfg.ID, "resolve", path, confineErr)
			return nil
		}
		rel = norm.NFC.String(rel)

		if _, dup := seen[rel]; dup {
			return nil
		}
		seen[rel] = struct{}{}

		info, statErr := os.Stat(fileResolved)
		if statErr != nil {
			result.ErrorCount++
			logScanError(logger, cfg.ID, "stat", rel, statErr)
			return nil
		}

		// mod_time is stored at second precision, compare at the same grain
		modTime := info.ModTime().UTC().Truncate(time.Second)
		if st, ok := stamps[rel]; ok && st.SizeBytes == info.Size() && st.ModTime.Equal(modTime) {
			fresh = append(fresh, rel)
			return nil
		}

		tasks = append(tasks, scanTask{rel: rel, resolved: fileResolved, info: info})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", cfg.ID, err)
	}
	return tasks, fresh, nil
}

// index reads one file and produces its library row.
func (sc *Scanner) index(rootID string, t scanTask, scanTime time.Time) Item {
	item := Item{
		RootID:    rootID,
		RelPath:   t.rel,
		Filename:  filepath.Base(t.rel),
		SizeBytes: t.info.Size(),
		ModTime:   t.info.ModTime().UTC().Truncate(time.Second),
		ScanTime:  scanTime,
		Status:    ItemStatusOK,
	}

	data, err := os.ReadFile(t.resolved)
	if err != nil {
		item.Status = ItemStatusUnreadable
		item.FirstError = err.Error()
		return item
	}

	sum := sha256.Sum256(data)
	item.Digest = hex.EncodeToString(sum[:])

	ins := inspectSpec(data)
	item.Valid = ins.Valid
	item.Datasets = ins.Datasets
	item.Encodings = ins.Encodings
	item.MLMethods = ins.MLMethods
	item.Reports = ins.Reports
	item.Instructions = ins.Instructions
	item.Labels = ins.Labels
	item.WarningCount = ins.WarningCount
	item.FirstError = ins.FirstError
	return item
}

// logScanError records a per-file scan problem without aborting the walk.
func logScanError(logger zerolog.Logger, rootID, event, path string, err error) {
	logger.Warn().
		Str(log.FieldRootID, rootID).
		Str(log.FieldEvent, event).
		Str(log.FieldPath, path).
		Err(err).
		Msg("library scan error")
}
