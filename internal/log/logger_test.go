// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestConfigureAttachesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "airrspec-test", Version: "v1.2.3"})

	logger := WithComponent("loader")
	logger.Info().Str(FieldEvent, "spec.parsed").Msg("parsed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["service"] != "airrspec-test" {
		t.Errorf("expected service airrspec-test, got %v", entry["service"])
	}
	if entry["version"] != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %v", entry["version"])
	}
	if entry["component"] != "loader" {
		t.Errorf("expected component loader, got %v", entry["component"])
	}
	if entry["event"] != "spec.parsed" {
		t.Errorf("expected event spec.parsed, got %v", entry["event"])
	}
}

func TestConfigureReconfigures(t *testing.T) {
	var first bytes.Buffer
	Configure(Config{Output: &first, Service: "pre-config"})

	var second bytes.Buffer
	Configure(Config{Output: &second, Service: "post-config"})

	logger := Base()
	logger.Info().Msg("after reload")

	if first.Len() != 0 {
		t.Errorf("expected no output on replaced writer, got %q", first.String())
	}
	if second.Len() == 0 {
		t.Fatal("expected output on active writer")
	}
	var entry map[string]any
	if err := json.Unmarshal(second.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["service"] != "post-config" {
		t.Errorf("expected reconfigured service name, got %v", entry["service"])
	}
}

func TestDeriveAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})

	l := Derive(func(ctx *zerolog.Context) {
		*ctx = ctx.Str(FieldRootID, "workspace")
	})
	l.Info().Msg("derived")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["root_id"] != "workspace" {
		t.Errorf("expected root_id workspace, got %v", entry["root_id"])
	}
}
