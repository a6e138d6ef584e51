// SPDX-License-Identifier: MIT

// Package config loads and validates the daemon configuration with the
// precedence defaults < file < environment (AIRRSPEC_* keys).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airrkit/airrspec/internal/log"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

// parseStringWithLogger reads an environment variable with custom logger.
func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password"):
			// For sensitive vars, just log that it was set
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		case value == "":
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		default:
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	logger.Debug().
		Str("key", key).
		Str("default", defaultValue).
		Str("source", "default").
		Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// Invalid values fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Int("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Int("default", defaultValue).
			Msg("invalid integer value, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Int("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

// ParseBool reads a boolean from environment variable or returns default value.
// Accepts "true", "1", "yes" as true and "false", "0", "no" as false.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Bool("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		logger.Debug().
			Str("key", key).
			Bool("value", true).
			Str("source", "environment").
			Msg("using environment variable")
		return true
	case "false", "0", "no":
		logger.Debug().
			Str("key", key).
			Bool("value", false).
			Str("source", "environment").
			Msg("using environment variable")
		return false
	default:
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Bool("default", defaultValue).
			Msg("invalid boolean value, using default")
		return defaultValue
	}
}

// ParseDuration reads a duration from environment variable or returns default value.
// Accepts Go duration strings such as "500ms", "10s" or "1m".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Dur("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Dur("default", defaultValue).
			Msg("invalid duration value, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Dur("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

// ParseFloat reads a float from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Float64("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Float64("default", defaultValue).
			Msg("invalid float value, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Float64("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

// expandEnv expands ${VAR} and $VAR references in file-sourced values such
// as dataDir. Values from the environment itself are never expanded.
func expandEnv(value string) string {
	return os.ExpandEnv(value)
}
