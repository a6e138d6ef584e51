// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"
)

// Cache backend names accepted by cache.backend / AIRRSPEC_CACHE_BACKEND.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
)

// OTLP transport protocols accepted by telemetry.otlpProtocol.
const (
	OTLPProtocolGRPC = "grpc"
	OTLPProtocolHTTP = "http"
)

// AppConfig is the effective, validated daemon configuration after the
// defaults < file < environment merge.
type AppConfig struct {
	Version    string
	DataDir    string
	LogLevel   string
	LogService string

	API       APIConfig
	Server    ServerConfig
	Library   LibraryConfig
	Cache     CacheConfig
	TLS       TLSConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

// APIConfig holds the HTTP API surface settings.
type APIConfig struct {
	ListenAddr      string
	Token           string
	AuthAnonymous   bool // required to serve /v1 without a token
	RateLimit       int  // requests per window, 0 disables limiting
	RateLimitWindow time.Duration
	MaxBodyBytes    int64
}

// ServerConfig holds http.Server timeouts.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// LibraryConfig holds the spec library settings: which directories are
// scanned for spec files, where the index database lives, and whether the
// daemon watches the roots for changes.
type LibraryConfig struct {
	Roots       []string
	DBPath      string // empty: derived as <dataDir>/library.db
	Watch       bool
	ScanWorkers int
	Debounce    time.Duration // quiet window before a watch-triggered rescan
}

// CacheConfig selects and configures the validation result cache.
type CacheConfig struct {
	Backend       string // memory | redis | badger
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BadgerDir     string // empty: derived as <dataDir>/cache
}

// TLSConfig holds optional TLS material for the API listener.
type TLSConfig struct {
	Cert string
	Key  string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// TelemetryConfig configures OTLP trace export. Export is disabled until an
// endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string
	OTLPProtocol string // grpc | http
	SampleRatio  float64
}

// String implements fmt.Stringer to provide a redacted string representation
// of the config. This ensures that sensitive fields are not leaked in logs
// when printing the config struct.
func (c AppConfig) String() string {
	return fmt.Sprintf("%+v", MaskSecrets(c))
}

// FileConfig represents the YAML configuration structure. Optional scalar
// fields use pointers so an explicit zero/false in the file survives the
// merge; durations are strings parsed with time.ParseDuration.
type FileConfig struct {
	Version    string `yaml:"version,omitempty"`
	DataDir    string `yaml:"dataDir,omitempty"`
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	API       APIFileConfig       `yaml:"api,omitempty"`
	Server    ServerFileConfig    `yaml:"server,omitempty"`
	Library   LibraryFileConfig   `yaml:"library,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	TLS       TLSFileConfig       `yaml:"tls,omitempty"`
	Metrics   MetricsFileConfig   `yaml:"metrics,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

// APIFileConfig mirrors APIConfig for the YAML file.
type APIFileConfig struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	Token           string `yaml:"token,omitempty"`
	AuthAnonymous   *bool  `yaml:"authAnonymous,omitempty"`
	RateLimit       *int   `yaml:"rateLimit,omitempty"`
	RateLimitWindow string `yaml:"rateLimitWindow,omitempty"` // e.g. "1m"
	MaxBodyBytes    *int64 `yaml:"maxBodyBytes,omitempty"`
}

// ServerFileConfig mirrors ServerConfig for the YAML file.
type ServerFileConfig struct {
	ReadHeaderTimeout string `yaml:"readHeaderTimeout,omitempty"` // e.g. "5s"
	ReadTimeout       string `yaml:"readTimeout,omitempty"`
	WriteTimeout      string `yaml:"writeTimeout,omitempty"`
	IdleTimeout       string `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout   string `yaml:"shutdownTimeout,omitempty"`
}

// LibraryFileConfig mirrors LibraryConfig for the YAML file.
type LibraryFileConfig struct {
	Roots       []string `yaml:"roots,omitempty"`
	DBPath      string   `yaml:"dbPath,omitempty"`
	Watch       *bool    `yaml:"watch,omitempty"`
	ScanWorkers *int     `yaml:"scanWorkers,omitempty"`
	Debounce    string   `yaml:"debounce,omitempty"` // e.g. "500ms"
}

// CacheFileConfig mirrors CacheConfig for the YAML file.
type CacheFileConfig struct {
	Backend       string `yaml:"backend,omitempty"`
	TTL           string `yaml:"ttl,omitempty"` // e.g. "15m"
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       *int   `yaml:"redisDB,omitempty"`
	BadgerDir     string `yaml:"badgerDir,omitempty"`
}

// TLSFileConfig mirrors TLSConfig for the YAML file.
type TLSFileConfig struct {
	Cert string `yaml:"cert,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

// MetricsFileConfig mirrors MetricsConfig for the YAML file.
type MetricsFileConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// TelemetryFileConfig mirrors TelemetryConfig for the YAML file.
type TelemetryFileConfig struct {
	OTLPEndpoint string   `yaml:"otlpEndpoint,omitempty"`
	OTLPProtocol string   `yaml:"otlpProtocol,omitempty"`
	SampleRatio  *float64 `yaml:"sampleRatio,omitempty"`
}
