// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks verifies the environment before the daemon starts
// serving. Configuration syntax is already covered by config.Validate;
// these checks touch the filesystem.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	// 2. Environment Checks
	if err := checkEnvironment(logger, cfg); err != nil {
		return fmt.Errorf("environment check failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	// The daemon owns the data directory; create it if missing.
	if err := os.MkdirAll(path, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(path)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", path).
			Msg("data directory is under temp; the spec library index may be lost on reboot")
	}

	return nil
}

// checkEnvironment verifies filesystem state the daemon depends on.
func checkEnvironment(logger zerolog.Logger, cfg config.AppConfig) error {
	// a. Library database location (loader derives the path; ensure the
	// parent directory exists before sqlite opens the file)
	if cfg.Library.DBPath != "" {
		dbDir := filepath.Dir(cfg.Library.DBPath)
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return fmt.Errorf("failed to ensure library database directory %s: %w", dbDir, err)
		}
		logger.Info().Str("path", cfg.Library.DBPath).Msg("✓ Library database location is ready")
	}

	// b. Cache directory (badger backend only)
	if cfg.Cache.Backend == config.CacheBackendBadger {
		if err := os.MkdirAll(cfg.Cache.BadgerDir, 0750); err != nil {
			return fmt.Errorf("failed to ensure cache directory %s: %w", cfg.Cache.BadgerDir, err)
		}
		logger.Info().Str("path", cfg.Cache.BadgerDir).Msg("✓ Cache directory is ready")
	}

	// c. TLS Config (Readable)
	if cfg.TLS.Cert != "" || cfg.TLS.Key != "" {
		if err := checkFileReadable(cfg.TLS.Cert); err != nil {
			return fmt.Errorf("TLS Cert error: %w", err)
		}
		if err := checkFileReadable(cfg.TLS.Key); err != nil {
			return fmt.Errorf("TLS Key error: %w", err)
		}
		logger.Info().Msg("✓ TLS configuration is valid")
	}

	// d. Library Roots (missing roots warn; the scanner marks them failed
	// rather than keeping the daemon down)
	present := 0
	for _, root := range cfg.Library.Roots {
		info, err := os.Stat(root)
		switch {
		case err != nil:
			logger.Warn().Str("path", root).Msg("library root does not exist; scans will report it failed")
		case !info.IsDir():
			logger.Warn().Str("path", root).Msg("library root is not a directory; scans will report it failed")
		default:
			present++
		}
	}
	if len(cfg.Library.Roots) > 0 {
		logger.Info().
			Int("count", len(cfg.Library.Roots)).
			Int("present", present).
			Msg("✓ Library roots checked")
	}

	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
