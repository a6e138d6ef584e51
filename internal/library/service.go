// SPDX-License-Identifier: MIT

package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airrkit/airrspec/internal/audit"
	"github.com/airrkit/airrspec/internal/log"
	"github.com/airrkit/airrspec/internal/metrics"
	"github.com/airrkit/airrspec/internal/telemetry"
)

// Service provides business logic for library operations.
type Service struct {
	configs []RootConfig
	store   *Store
	scanner *Scanner
	logger  zerolog.Logger
	audit   *audit.Logger

	// One mutex per root; TryLock keeps concurrent scan requests from
	// piling up behind each other.
	activeScans sync.Map // map[string]*sync.Mutex
}

// NewService creates a new library service and registers the configured
// roots in the store.
func NewService(configs []RootConfig, store *Store, scanWorkers int) *Service {
	svc := &Service{
		configs: configs,
		store:   store,
		scanner: NewScanner(store, scanWorkers),
		logger:  log.WithComponent("library"),
		audit:   audit.NewLogger(),
	}

	ctx := context.Background()
	for _, cfg := range configs {
		if err := store.UpsertRoot(ctx, cfg.ID, cfg.Path); err != nil {
			svc.logger.Error().Err(err).Str(log.FieldRootID, cfg.ID).Msg("failed to initialize library root")
		}
	}

	return svc
}

// GetRoots returns all library roots with current status. Never blocks on
// a running scan.
func (s *Service) GetRoots(ctx context.Context) ([]Root, error) {
	return s.store.GetRoots(ctx)
}

// GetRootItems returns paginated items for a library root. A root that has
// never been scanned is scanned first; if a scan is already running the
// caller gets ErrScanRunning and should retry.
func (s *Service) GetRootItems(ctx context.Context, rootID string, limit, offset int) ([]Item, int, error) {
	root, err := s.store.GetRoot(ctx, rootID)
	if err != nil {
		return nil, 0, fmt.Errorf("get root: %w", err)
	}
	if root == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrRootNotFound, rootID)
	}

	if root.LastScanStatus == RootStatusRunning {
		return nil, 0, ErrScanRunning
	}

	if root.LastScanStatus == RootStatusNever {
		if err := s.TriggerScan(ctx, rootID); err != nil {
			if errors.Is(err, ErrScanRunning) {
				return nil, 0, err
			}
			return nil, 0, fmt.Errorf("trigger scan: %w", err)
		}
	}

	return s.store.GetItems(ctx, rootID, limit, offset)
}

// ListItems returns paginated items across all roots.
func (s *Service) ListItems(ctx context.Context, limit, offset int) ([]Item, int, error) {
	return s.store.ListItems(ctx, limit, offset)
}

// GetItemByDigest returns the indexed item whose content digest matches,
// or nil when no file with that digest is known.
func (s *Service) GetItemByDigest(ctx context.Context, digest string) (*Item, error) {
	return s.store.GetItemByDigest(ctx, digest)
}

// CountItems returns the total and valid item counts across all roots.
func (s *Service) CountItems(ctx context.Context) (total, valid int, err error) {
	return s.store.CountItems(ctx)
}

// TriggerScan runs a scan for one root. Returns ErrScanRunning when a scan
// for that root is already in progress.
func (s *Service) TriggerScan(ctx context.Context, rootID string) error {
	var cfg *RootConfig
	for i := range s.configs {
		if s.configs[i].ID == rootID {
			cfg = &s.configs[i]
			break
		}
	}
	if cfg == nil {
		return fmt.Errorf("%w: %s", ErrRootNotFound, rootID)
	}

	mu, _ := s.activeScans.LoadOrStore(rootID, &sync.Mutex{})
	scanMu := mu.(*sync.Mutex)
	if !scanMu.TryLock() {
		return ErrScanRunning
	}
	defer scanMu.Unlock()

	ctx = log.ContextWithScanID(ctx, uuid.NewString())
	logger := log.WithComponentFromContext(ctx, "library")

	ctx, span := telemetry.StartSpan(ctx, "airrspec.library.scan")
	defer span.End()

	actor := audit.ActorFromContext(ctx)
	s.audit.ScanStart(actor, rootID)

	if err := s.store.UpdateRootScanStatus(ctx, rootID, RootStatusRunning, time.Now().UTC(), 0); err != nil {
		return fmt.Errorf("mark scan running: %w", err)
	}

	result, scanErr := s.scanner.ScanRoot(ctx, *cfg)
	if scanErr != nil {
		logger.Error().
			Err(scanErr).
			Str(log.FieldRootID, rootID).
			Int("errors", result.ErrorCount).
			Msg("library scan failed")
		s.audit.ScanError(actor, rootID, scanErr.Error())
	}

	if err := s.store.UpdateRootScanStatus(ctx, rootID, result.FinalStatus, result.Finished, result.TotalScanned); err != nil {
		return fmt.Errorf("update scan status: %w", err)
	}

	duration := result.Finished.Sub(result.Started)
	if scanErr == nil {
		s.audit.ScanComplete(actor, rootID, result.FinalStatus.String(), result.TotalScanned, duration)
	}
	metrics.RecordLibraryScan(result.FinalStatus.String(), duration.Seconds())
	telemetry.EmitScanObs(ctx, rootID, result.FinalStatus.String(), result.TotalScanned)
	if total, valid, err := s.store.CountItems(ctx); err == nil {
		metrics.RecordLibraryItems(total, valid)
	}

	logger.Info().
		Str(log.FieldRootID, rootID).
		Str("status", result.FinalStatus.String()).
		Int("scanned", result.TotalScanned).
		Int("indexed", result.ItemsIndexed).
		Int("updated", result.ItemsUpdated).
		Int("unchanged", result.ItemsUnchanged).
		Int("removed", result.ItemsRemoved).
		Int("errors", result.ErrorCount).
		Dur("duration", duration).
		Msg("library scan complete")

	return scanErr
}

// ScanAll scans every configured root in sequence. Roots that are already
// being scanned are skipped; other failures are collected and joined.
func (s *Service) ScanAll(ctx context.Context) error {
	var errs []error
	for _, cfg := range s.configs {
		if err := s.TriggerScan(ctx, cfg.ID); err != nil {
			if errors.Is(err, ErrScanRunning) {
				continue
			}
			errs = append(errs, fmt.Errorf("scan %s: %w", cfg.ID, err))
		}
	}
	return errors.Join(errs...)
}

// GetStore returns the underlying persistence store.
func (s *Service) GetStore() *Store {
	return s.store
}

// GetConfigs returns the root configurations.
func (s *Service) GetConfigs() []RootConfig {
	return s.configs
}

var (
	// ErrRootNotFound signals that a requested library root does not exist.
	ErrRootNotFound = errors.New("root not found")
	// ErrScanRunning is returned when a scan is already in progress.
	ErrScanRunning = errors.New("scan already running")
)
