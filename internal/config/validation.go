// SPDX-License-Identifier: MIT

package config

import (
	"net"
	"strconv"
	"strings"

	"github.com/airrkit/airrspec/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	validateListenAddr(v, "API.ListenAddr", cfg.API.ListenAddr)

	v.OneOf("LogLevel", strings.ToLower(cfg.LogLevel), []string{
		"trace", "debug", "info", "warn", "error", "fatal", "panic",
	})

	v.Directory("DataDir", cfg.DataDir, false)

	v.NonNegative("API.RateLimit", cfg.API.RateLimit)
	if cfg.API.RateLimit > 0 && cfg.API.RateLimitWindow <= 0 {
		v.AddError("API.RateLimitWindow", "must be positive when rate limiting is enabled", cfg.API.RateLimitWindow.String())
	}
	if cfg.API.MaxBodyBytes <= 0 {
		v.AddError("API.MaxBodyBytes", "must be positive", strconv.FormatInt(cfg.API.MaxBodyBytes, 10))
	}

	for _, f := range []struct {
		name string
		val  int64
	}{
		{"Server.ReadHeaderTimeout", int64(cfg.Server.ReadHeaderTimeout)},
		{"Server.ReadTimeout", int64(cfg.Server.ReadTimeout)},
		{"Server.WriteTimeout", int64(cfg.Server.WriteTimeout)},
		{"Server.IdleTimeout", int64(cfg.Server.IdleTimeout)},
	} {
		if f.val < 0 {
			v.AddError(f.name, "must not be negative", strconv.FormatInt(f.val, 10))
		}
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		v.AddError("Server.ShutdownTimeout", "must be positive", cfg.Server.ShutdownTimeout.String())
	}

	for _, root := range cfg.Library.Roots {
		if strings.TrimSpace(root) == "" {
			v.AddError("Library.Roots", "root must not be blank", root)
			continue
		}
		v.PathSyntax("Library.Roots", root)
	}
	v.PathSyntax("Library.DBPath", cfg.Library.DBPath)
	v.Positive("Library.ScanWorkers", cfg.Library.ScanWorkers)
	if cfg.Library.Watch && len(cfg.Library.Roots) == 0 {
		v.AddError("Library.Watch", "watch requires at least one library root", "")
	}
	if cfg.Library.Watch && cfg.Library.Debounce <= 0 {
		v.AddError("Library.Debounce", "must be positive when watch is enabled", cfg.Library.Debounce.String())
	}

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{
		CacheBackendMemory, CacheBackendRedis, CacheBackendBadger,
	})
	if cfg.Cache.TTL <= 0 {
		v.AddError("Cache.TTL", "must be positive", cfg.Cache.TTL.String())
	}
	switch cfg.Cache.Backend {
	case CacheBackendRedis:
		validateHostPort(v, "Cache.RedisAddr", cfg.Cache.RedisAddr)
		v.NonNegative("Cache.RedisDB", cfg.Cache.RedisDB)
	case CacheBackendBadger:
		v.PathSyntax("Cache.BadgerDir", cfg.Cache.BadgerDir)
	}

	// TLS is all-or-nothing: a cert without a key (or vice versa) cannot serve.
	certSet := strings.TrimSpace(cfg.TLS.Cert) != ""
	keySet := strings.TrimSpace(cfg.TLS.Key) != ""
	if certSet != keySet {
		v.AddError("TLS", "cert and key must be set together", "")
	}
	if certSet {
		v.PathSyntax("TLS.Cert", cfg.TLS.Cert)
	}
	if keySet {
		v.PathSyntax("TLS.Key", cfg.TLS.Key)
	}

	if cfg.Telemetry.OTLPEndpoint != "" {
		v.OneOf("Telemetry.OTLPProtocol", cfg.Telemetry.OTLPProtocol, []string{
			OTLPProtocolGRPC, OTLPProtocolHTTP,
		})
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		v.AddError("Telemetry.SampleRatio", "must be between 0 and 1", strconv.FormatFloat(r, 'g', -1, 64))
	}

	return v.Err()
}

// validateListenAddr accepts ":8088" and "host:8088" forms.
func validateListenAddr(v *validate.Validator, field, addr string) {
	if strings.TrimSpace(addr) == "" {
		v.AddError(field, "must not be empty", addr)
		return
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError(field, "must be host:port or :port", addr)
		return
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		v.AddError(field, "port must be numeric", addr)
		return
	}
	v.Port(field, p)
}

// validateHostPort requires an explicit host, unlike a listen address.
func validateHostPort(v *validate.Validator, field, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		v.AddError(field, "must be host:port", addr)
		return
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		v.AddError(field, "port must be numeric", addr)
		return
	}
	v.Port(field, p)
}
