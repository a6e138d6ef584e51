// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// ConfigEntry defines a single configuration option's metadata. The registry
// is the source of truth for defaults and for the ENV surface: every
// AppConfig leaf field must be registered here.
type ConfigEntry struct {
	Path      string // user-facing YAML path (e.g. "api.listenAddr")
	Env       string // environment variable (e.g. "AIRRSPEC_LISTEN"), empty if none
	FieldPath string // AppConfig field path (e.g. "API.ListenAddr")
	Default   any    // default value, nil if the zero value stands
}

// Registry manages the configuration surface inventory.
type Registry struct {
	ByPath  map[string]ConfigEntry
	ByField map[string]ConfigEntry
	ByEnv   map[string]ConfigEntry
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the global configuration registry.
// It returns an error if the registry contains duplicates or is otherwise invalid.
// Thread-safe via sync.Once.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry()
	})
	return globalRegistry, globalRegistryErr
}

func buildRegistry() (*Registry, error) {
	r := &Registry{
		ByPath:  make(map[string]ConfigEntry),
		ByField: make(map[string]ConfigEntry),
		ByEnv:   make(map[string]ConfigEntry),
	}

	entries := []ConfigEntry{
		// --- CORE ---
		{Path: "version", FieldPath: "Version"},
		{Path: "dataDir", Env: "AIRRSPEC_DATA", FieldPath: "DataDir", Default: "/tmp/airrspec"},
		{Path: "logLevel", Env: "AIRRSPEC_LOG_LEVEL", FieldPath: "LogLevel", Default: "info"},
		{Path: "logService", Env: "AIRRSPEC_LOG_SERVICE", FieldPath: "LogService", Default: "airrspec"},

		// --- API ---
		{Path: "api.listenAddr", Env: "AIRRSPEC_LISTEN", FieldPath: "API.ListenAddr", Default: ":8088"},
		{Path: "api.token", Env: "AIRRSPEC_API_TOKEN", FieldPath: "API.Token"},
		{Path: "api.authAnonymous", Env: "AIRRSPEC_AUTH_ANONYMOUS", FieldPath: "API.AuthAnonymous", Default: false},
		{Path: "api.rateLimit", Env: "AIRRSPEC_RATE_LIMIT", FieldPath: "API.RateLimit", Default: 100},
		{Path: "api.rateLimitWindow", Env: "AIRRSPEC_RATE_LIMIT_WINDOW", FieldPath: "API.RateLimitWindow", Default: time.Minute},
		{Path: "api.maxBodyBytes", Env: "AIRRSPEC_MAX_BODY_BYTES", FieldPath: "API.MaxBodyBytes", Default: int64(1 << 20)},

		// --- SERVER ---
		{Path: "server.readHeaderTimeout", Env: "AIRRSPEC_READ_HEADER_TIMEOUT", FieldPath: "Server.ReadHeaderTimeout", Default: 5 * time.Second},
		{Path: "server.readTimeout", Env: "AIRRSPEC_READ_TIMEOUT", FieldPath: "Server.ReadTimeout", Default: 30 * time.Second},
		{Path: "server.writeTimeout", Env: "AIRRSPEC_WRITE_TIMEOUT", FieldPath: "Server.WriteTimeout", Default: 30 * time.Second},
		{Path: "server.idleTimeout", Env: "AIRRSPEC_IDLE_TIMEOUT", FieldPath: "Server.IdleTimeout", Default: 120 * time.Second},
		{Path: "server.shutdownTimeout", Env: "AIRRSPEC_SHUTDOWN_TIMEOUT", FieldPath: "Server.ShutdownTimeout", Default: 10 * time.Second},

		// --- LIBRARY ---
		{Path: "library.roots", Env: "AIRRSPEC_LIBRARY_ROOTS", FieldPath: "Library.Roots"},
		{Path: "library.dbPath", Env: "AIRRSPEC_LIBRARY_DB", FieldPath: "Library.DBPath"},
		{Path: "library.watch", Env: "AIRRSPEC_LIBRARY_WATCH", FieldPath: "Library.Watch", Default: false},
		{Path: "library.scanWorkers", Env: "AIRRSPEC_SCAN_WORKERS", FieldPath: "Library.ScanWorkers", Default: 4},
		{Path: "library.debounce", Env: "AIRRSPEC_WATCH_DEBOUNCE", FieldPath: "Library.Debounce", Default: 500 * time.Millisecond},

		// --- CACHE ---
		{Path: "cache.backend", Env: "AIRRSPEC_CACHE_BACKEND", FieldPath: "Cache.Backend", Default: CacheBackendMemory},
		{Path: "cache.ttl", Env: "AIRRSPEC_CACHE_TTL", FieldPath: "Cache.TTL", Default: 15 * time.Minute},
		{Path: "cache.redisAddr", Env: "AIRRSPEC_REDIS_ADDR", FieldPath: "Cache.RedisAddr", Default: "localhost:6379"},
		{Path: "cache.redisPassword", Env: "AIRRSPEC_REDIS_PASSWORD", FieldPath: "Cache.RedisPassword"},
		{Path: "cache.redisDB", Env: "AIRRSPEC_REDIS_DB", FieldPath: "Cache.RedisDB", Default: 0},
		{Path: "cache.badgerDir", Env: "AIRRSPEC_BADGER_DIR", FieldPath: "Cache.BadgerDir"},

		// --- TLS ---
		{Path: "tls.cert", Env: "AIRRSPEC_TLS_CERT", FieldPath: "TLS.Cert"},
		{Path: "tls.key", Env: "AIRRSPEC_TLS_KEY", FieldPath: "TLS.Key"},

		// --- METRICS ---
		{Path: "metrics.enabled", Env: "AIRRSPEC_METRICS_ENABLED", FieldPath: "Metrics.Enabled", Default: true},

		// --- TELEMETRY ---
		{Path: "telemetry.otlpEndpoint", Env: "AIRRSPEC_OTLP_ENDPOINT", FieldPath: "Telemetry.OTLPEndpoint"},
		{Path: "telemetry.otlpProtocol", Env: "AIRRSPEC_OTLP_PROTOCOL", FieldPath: "Telemetry.OTLPProtocol", Default: OTLPProtocolGRPC},
		{Path: "telemetry.sampleRatio", Env: "AIRRSPEC_TRACE_SAMPLE_RATIO", FieldPath: "Telemetry.SampleRatio", Default: 1.0},
	}

	for _, e := range entries {
		if e.Path == "" || e.FieldPath == "" {
			return nil, fmt.Errorf("registry entry missing path or field path: %+v", e)
		}
		if _, dup := r.ByPath[e.Path]; dup {
			return nil, fmt.Errorf("duplicate registry path %q", e.Path)
		}
		if _, dup := r.ByField[e.FieldPath]; dup {
			return nil, fmt.Errorf("duplicate registry field path %q", e.FieldPath)
		}
		r.ByPath[e.Path] = e
		r.ByField[e.FieldPath] = e
		if e.Env != "" {
			if _, dup := r.ByEnv[e.Env]; dup {
				return nil, fmt.Errorf("duplicate registry env key %q", e.Env)
			}
			r.ByEnv[e.Env] = e
		}
	}

	return r, nil
}

// ValidateFieldCoverage verifies that every exported leaf field of AppConfig
// is registered. It guards against config fields that silently bypass the
// defaults/ENV machinery.
func (r *Registry) ValidateFieldCoverage(cfg AppConfig) error {
	t := reflect.TypeOf(cfg)
	return r.validateStruct("", t)
}

func (r *Registry) validateStruct(prefix string, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if prefix != "" {
			fieldPath = prefix + "." + f.Name
		}

		fieldType := f.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		// If it's a nested struct (and not a primitive-like type), recurse
		if fieldType.Kind() == reflect.Struct && !isSimpleStruct(fieldType) {
			if err := r.validateStruct(fieldPath, fieldType); err != nil {
				return err
			}
			continue
		}

		if _, ok := r.ByField[fieldPath]; !ok {
			return fmt.Errorf("field %q is not registered in the config registry", fieldPath)
		}
	}
	return nil
}

// ApplyDefaults applies registered default values to the given AppConfig.
// Returns an error if any default cannot be set (indicates registry misconfiguration).
func (r *Registry) ApplyDefaults(cfg *AppConfig) error {
	v := reflect.ValueOf(cfg).Elem()
	for _, entry := range r.ByField {
		if entry.Default == nil {
			continue
		}
		if err := setField(v, entry.FieldPath, entry.Default); err != nil {
			return fmt.Errorf("failed to set default for %s: %w", entry.FieldPath, err)
		}
	}
	return nil
}

func setField(v reflect.Value, fieldPath string, value any) error {
	parts := strings.Split(fieldPath, ".")
	curr := v
	for i, p := range parts {
		if curr.Kind() == reflect.Ptr {
			if curr.IsNil() {
				curr.Set(reflect.New(curr.Type().Elem()))
			}
			curr = curr.Elem()
		}

		f := curr.FieldByName(p)
		if !f.IsValid() {
			return fmt.Errorf("field %s not found", p)
		}

		if i == len(parts)-1 {
			val := reflect.ValueOf(value)
			if f.Type() != val.Type() {
				if !val.Type().ConvertibleTo(f.Type()) {
					return fmt.Errorf("type mismatch for %s: expected %v, got %v", fieldPath, f.Type(), val.Type())
				}
				f.Set(val.Convert(f.Type()))
			} else {
				f.Set(val)
			}
			return nil
		}
		curr = f
	}
	return nil
}

func isSimpleStruct(t reflect.Type) bool {
	// Types treated as leaves even though they are structs.
	path := t.PkgPath()
	name := t.Name()
	return path == "time" && (name == "Duration" || name == "Time")
}
