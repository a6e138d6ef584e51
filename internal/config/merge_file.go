// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"
)

// mergeFileConfig merges file configuration into AppConfig. File values only
// override defaults when actually present; pointer fields distinguish an
// explicit zero from an absent key.
func (l *Loader) mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	l.mergeFileCore(dst, src)
	if err := l.mergeFileAPI(dst, src); err != nil {
		return err
	}
	if err := l.mergeFileServer(dst, src); err != nil {
		return err
	}
	if err := l.mergeFileLibrary(dst, src); err != nil {
		return err
	}
	if err := l.mergeFileCache(dst, src); err != nil {
		return err
	}
	l.mergeFileTLS(dst, src)
	l.mergeFileMetrics(dst, src)
	l.mergeFileTelemetry(dst, src)
	return nil
}

func (l *Loader) mergeFileCore(dst *AppConfig, src *FileConfig) {
	if src.DataDir != "" {
		dst.DataDir = expandEnv(src.DataDir)
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		dst.LogService = src.LogService
	}
}

func (l *Loader) mergeFileAPI(dst *AppConfig, src *FileConfig) error {
	if src.API.ListenAddr != "" {
		dst.API.ListenAddr = src.API.ListenAddr
	}
	if src.API.Token != "" {
		dst.API.Token = src.API.Token
	}
	if src.API.AuthAnonymous != nil {
		dst.API.AuthAnonymous = *src.API.AuthAnonymous
	}
	if src.API.RateLimit != nil {
		dst.API.RateLimit = *src.API.RateLimit
	}
	if src.API.RateLimitWindow != "" {
		d, err := parseFileDuration("api.rateLimitWindow", src.API.RateLimitWindow)
		if err != nil {
			return err
		}
		dst.API.RateLimitWindow = d
	}
	if src.API.MaxBodyBytes != nil {
		dst.API.MaxBodyBytes = *src.API.MaxBodyBytes
	}
	return nil
}

func (l *Loader) mergeFileServer(dst *AppConfig, src *FileConfig) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.readHeaderTimeout", src.Server.ReadHeaderTimeout, &dst.Server.ReadHeaderTimeout},
		{"server.readTimeout", src.Server.ReadTimeout, &dst.Server.ReadTimeout},
		{"server.writeTimeout", src.Server.WriteTimeout, &dst.Server.WriteTimeout},
		{"server.idleTimeout", src.Server.IdleTimeout, &dst.Server.IdleTimeout},
		{"server.shutdownTimeout", src.Server.ShutdownTimeout, &dst.Server.ShutdownTimeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := parseFileDuration(f.name, f.raw)
		if err != nil {
			return err
		}
		*f.dst = d
	}
	return nil
}

func (l *Loader) mergeFileLibrary(dst *AppConfig, src *FileConfig) error {
	if len(src.Library.Roots) > 0 {
		roots := make([]string, 0, len(src.Library.Roots))
		for _, r := range src.Library.Roots {
			roots = append(roots, expandEnv(r))
		}
		dst.Library.Roots = roots
	}
	if src.Library.DBPath != "" {
		dst.Library.DBPath = expandEnv(src.Library.DBPath)
	}
	if src.Library.Watch != nil {
		dst.Library.Watch = *src.Library.Watch
	}
	if src.Library.ScanWorkers != nil {
		dst.Library.ScanWorkers = *src.Library.ScanWorkers
	}
	if src.Library.Debounce != "" {
		d, err := parseFileDuration("library.debounce", src.Library.Debounce)
		if err != nil {
			return err
		}
		dst.Library.Debounce = d
	}
	return nil
}

func (l *Loader) mergeFileCache(dst *AppConfig, src *FileConfig) error {
	if src.Cache.Backend != "" {
		dst.Cache.Backend = src.Cache.Backend
	}
	if src.Cache.TTL != "" {
		d, err := parseFileDuration("cache.ttl", src.Cache.TTL)
		if err != nil {
			return err
		}
		dst.Cache.TTL = d
	}
	if src.Cache.RedisAddr != "" {
		dst.Cache.RedisAddr = src.Cache.RedisAddr
	}
	if src.Cache.RedisPassword != "" {
		dst.Cache.RedisPassword = src.Cache.RedisPassword
	}
	if src.Cache.RedisDB != nil {
		dst.Cache.RedisDB = *src.Cache.RedisDB
	}
	if src.Cache.BadgerDir != "" {
		dst.Cache.BadgerDir = expandEnv(src.Cache.BadgerDir)
	}
	return nil
}

func (l *Loader) mergeFileTLS(dst *AppConfig, src *FileConfig) {
	if src.TLS.Cert != "" {
		dst.TLS.Cert = expandEnv(src.TLS.Cert)
	}
	if src.TLS.Key != "" {
		dst.TLS.Key = expandEnv(src.TLS.Key)
	}
}

func (l *Loader) mergeFileMetrics(dst *AppConfig, src *FileConfig) {
	if src.Metrics.Enabled != nil {
		dst.Metrics.Enabled = *src.Metrics.Enabled
	}
}

func (l *Loader) mergeFileTelemetry(dst *AppConfig, src *FileConfig) {
	if src.Telemetry.OTLPEndpoint != "" {
		dst.Telemetry.OTLPEndpoint = src.Telemetry.OTLPEndpoint
	}
	if src.Telemetry.OTLPProtocol != "" {
		dst.Telemetry.OTLPProtocol = src.Telemetry.OTLPProtocol
	}
	if src.Telemetry.SampleRatio != nil {
		dst.Telemetry.SampleRatio = *src.Telemetry.SampleRatio
	}
}

func parseFileDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	return d, nil
}
