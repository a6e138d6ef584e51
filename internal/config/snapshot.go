// SPDX-License-Identifier: MIT

package config

// Snapshot is the immutable, effective runtime configuration for airrspec.
// It combines the validated AppConfig with additional runtime settings
// sourced from ENV only.
type Snapshot struct {
	App     AppConfig
	Runtime RuntimeSnapshot
}

// RuntimeSnapshot carries env-only toggles that do not participate in file
// merging or validation.
type RuntimeSnapshot struct {
	// ExpandEnvVars makes server-side parsing resolve ${VAR} references in
	// spec values from the daemon's own environment. Off by default: a spec
	// submitted over the API should not see the server's environment unless
	// the operator opts in.
	ExpandEnvVars bool
}

// runtimeEnvKeys are consumed by BuildSnapshot and are intentionally absent
// from the config registry.
var runtimeEnvKeys = map[string]struct{}{
	"AIRRSPEC_EXPAND_ENV": {},
}

// BuildSnapshot builds an effective, immutable runtime snapshot from an
// already validated AppConfig.
func BuildSnapshot(app AppConfig) Snapshot {
	rt := RuntimeSnapshot{
		ExpandEnvVars: ParseBool("AIRRSPEC_EXPAND_ENV", false),
	}
	return Snapshot{App: app, Runtime: rt}
}
