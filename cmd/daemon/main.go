// SPDX-License-Identifier: MIT

// daemon runs the airrspec HTTP service: validation and expansion endpoints,
// the spec library index, health probes and Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/airrkit/airrspec/internal/config"
	"github.com/airrkit/airrspec/internal/daemon"
	"github.com/airrkit/airrspec/internal/log"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the real config is loaded.
	log.Configure(log.Config{
		Level:   "info",
		Service: "airrspec",
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := daemon.WaitForShutdown()
	defer stop()

	// Config file: explicit via --config, otherwise ${AIRRSPEC_DATA}/config.yaml
	// when present.
	explicit := strings.TrimSpace(*configPath)
	effective := explicit
	if effective == "" {
		dataDir := strings.TrimSpace(config.ParseString("AIRRSPEC_DATA", "/tmp/airrspec"))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effective = autoPath
		}
	}

	loader := config.NewLoader(effective, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effective).
			Msg("failed to load configuration")
	}

	// Re-configure the logger with the effective settings.
	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	switch {
	case explicit != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", explicit).
			Msg("loaded configuration from file")
	case effective != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file(auto)").
			Str("path", effective).
			Msg("loaded configuration from file")
	default:
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	snap := config.BuildSnapshot(cfg)

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.API.ListenAddr).
		Msg("starting airrspec")
	logKeyConfig(logger, snap)

	app, err := daemon.Bootstrap(ctx, snap)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "bootstrap.failed").
			Msg("failed to assemble daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
	}

	logger.Info().Msg("server exiting")
}

// logKeyConfig summarizes the operator-relevant settings at startup.
func logKeyConfig(logger zerolog.Logger, snap config.Snapshot) {
	cfg := snap.App

	roots := "(none)"
	if len(cfg.Library.Roots) > 0 {
		roots = strings.Join(cfg.Library.Roots, ", ")
	}
	logger.Info().Msgf("→ Library roots: %s", roots)
	logger.Info().Msgf("→ Library index: %s (watch: %v, workers: %d)", cfg.Library.DBPath, cfg.Library.Watch, cfg.Library.ScanWorkers)
	logger.Info().Msgf("→ Cache: %s (ttl: %s)", cfg.Cache.Backend, cfg.Cache.TTL)

	switch {
	case cfg.API.Token != "":
		logger.Info().Msg("→ API token: configured")
	case cfg.API.AuthAnonymous:
		logger.Warn().
			Str("security", "weak").
			Msg("→ API auth: anonymous access enabled")
	default:
		logger.Warn().
			Str("security", "locked").
			Msg("→ API token: NOT configured. /v1 requests will be rejected until AIRRSPEC_API_TOKEN or api.authAnonymous is set.")
	}

	if cfg.TLS.Cert != "" && cfg.TLS.Key != "" {
		logger.Info().Msgf("→ TLS: enabled (cert: %s, key: %s)", cfg.TLS.Cert, cfg.TLS.Key)
	}
	if cfg.Metrics.Enabled {
		logger.Info().Msg("→ Metrics: /metrics enabled")
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		logger.Info().Msgf("→ Tracing: OTLP %s via %s", cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.OTLPProtocol)
	}
	if snap.Runtime.ExpandEnvVars {
		logger.Warn().Msg("→ Env expansion: specs may read the daemon's environment (AIRRSPEC_EXPAND_ENV=true)")
	}
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
}
