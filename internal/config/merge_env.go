// SPDX-License-Identifier: MIT

package config

import "strings"

// mergeEnvConfig merges environment variables into AppConfig.
// ENV variables have the highest precedence.
// Uses consistent ParseBool/ParseInt/ParseDuration helpers from env.go.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	l.mergeEnvCore(cfg)
	l.mergeEnvAPI(cfg)
	l.mergeEnvServer(cfg)
	l.mergeEnvLibrary(cfg)
	l.mergeEnvCache(cfg)
	l.mergeEnvTLS(cfg)
	l.mergeEnvMetrics(cfg)
	l.mergeEnvTelemetry(cfg)
}

func (l *Loader) mergeEnvCore(cfg *AppConfig) {
	cfg.DataDir = l.envString("AIRRSPEC_DATA", cfg.DataDir)
	cfg.LogLevel = l.envString("AIRRSPEC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("AIRRSPEC_LOG_SERVICE", cfg.LogService)
}

func (l *Loader) mergeEnvAPI(cfg *AppConfig) {
	cfg.API.ListenAddr = l.envString("AIRRSPEC_LISTEN", cfg.API.ListenAddr)
	if v := l.envString("AIRRSPEC_API_TOKEN", ""); v != "" {
		cfg.API.Token = v
	}
	cfg.API.AuthAnonymous = l.envBool("AIRRSPEC_AUTH_ANONYMOUS", cfg.API.AuthAnonymous)
	cfg.API.RateLimit = l.envInt("AIRRSPEC_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.RateLimitWindow = l.envDuration("AIRRSPEC_RATE_LIMIT_WINDOW", cfg.API.RateLimitWindow)
	cfg.API.MaxBodyBytes = int64(l.envInt("AIRRSPEC_MAX_BODY_BYTES", int(cfg.API.MaxBodyBytes)))
}

func (l *Loader) mergeEnvServer(cfg *AppConfig) {
	cfg.Server.ReadHeaderTimeout = l.envDuration("AIRRSPEC_READ_HEADER_TIMEOUT", cfg.Server.ReadHeaderTimeout)
	cfg.Server.ReadTimeout = l.envDuration("AIRRSPEC_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration("AIRRSPEC_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration("AIRRSPEC_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = l.envDuration("AIRRSPEC_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
}

func (l *Loader) mergeEnvLibrary(cfg *AppConfig) {
	// Roots: comma-separated list
	if v := strings.TrimSpace(l.envString("AIRRSPEC_LIBRARY_ROOTS", "")); v != "" {
		cfg.Library.Roots = splitList(v)
	}
	cfg.Library.DBPath = l.envString("AIRRSPEC_LIBRARY_DB", cfg.Library.DBPath)
	cfg.Library.Watch = l.envBool("AIRRSPEC_LIBRARY_WATCH", cfg.Library.Watch)
	cfg.Library.ScanWorkers = l.envInt("AIRRSPEC_SCAN_WORKERS", cfg.Library.ScanWorkers)
	cfg.Library.Debounce = l.envDuration("AIRRSPEC_WATCH_DEBOUNCE", cfg.Library.Debounce)
}

func (l *Loader) mergeEnvCache(cfg *AppConfig) {
	cfg.Cache.Backend = l.envString("AIRRSPEC_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("AIRRSPEC_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("AIRRSPEC_REDIS_ADDR", cfg.Cache.RedisAddr)
	if v := l.envString("AIRRSPEC_REDIS_PASSWORD", ""); v != "" {
		cfg.Cache.RedisPassword = v
	}
	cfg.Cache.RedisDB = l.envInt("AIRRSPEC_REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.BadgerDir = l.envString("AIRRSPEC_BADGER_DIR", cfg.Cache.BadgerDir)
}

func (l *Loader) mergeEnvTLS(cfg *AppConfig) {
	cfg.TLS.Cert = l.envString("AIRRSPEC_TLS_CERT", cfg.TLS.Cert)
	cfg.TLS.Key = l.envString("AIRRSPEC_TLS_KEY", cfg.TLS.Key)
}

func (l *Loader) mergeEnvMetrics(cfg *AppConfig) {
	cfg.Metrics.Enabled = l.envBool("AIRRSPEC_METRICS_ENABLED", cfg.Metrics.Enabled)
}

func (l *Loader) mergeEnvTelemetry(cfg *AppConfig) {
	cfg.Telemetry.OTLPEndpoint = l.envString("AIRRSPEC_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPProtocol = l.envString("AIRRSPEC_OTLP_PROTOCOL", cfg.Telemetry.OTLPProtocol)
	cfg.Telemetry.SampleRatio = l.envFloat("AIRRSPEC_TRACE_SAMPLE_RATIO", cfg.Telemetry.SampleRatio)
}
