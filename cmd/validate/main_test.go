// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quickstartPath = "../../internal/spec/testdata/quickstart.yaml"

const invalidSpec = `definitions:
  datasets:
    d1:
      format: AIRR
      params:
        path: data/
        metadata_file: data/metadata.csv
instructions: {}
`

const warningSpec = `definitions:
  datasets:
    d1:
      format: AIRR
      params:
        path: data/
        metadata_file: data/metadata.csv
  encodings:
    e1:
      KmerFrequency:
        k: 3
  ml_methods:
    m1: LogisticRegression
instructions:
  inst1:
    type: TrainMLModel
    dataset: d1
    labels: [signal_disease]
    settings:
      - encoding: e1
        ml_method: m1
    assessment:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: precision
    metrics: [accuracy]
`

func writeTempSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp spec: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (exit int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	exit = run(args, &out, &errOut)
	return exit, out.String(), errOut.String()
}

func TestRun_ValidSpec(t *testing.T) {
	exit, stdout, stderr := runCLI(t, quickstartPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stdout, "is valid") {
		t.Errorf("stdout = %q, want success message", stdout)
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	path := writeTempSpec(t, invalidSpec)

	exit, _, stderr := runCLI(t, path)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stderr, "Validation error in "+path) {
		t.Errorf("stderr = %q, want validation error header", stderr)
	}
	if !strings.Contains(stderr, "instructions") {
		t.Errorf("stderr = %q, want field name in error listing", stderr)
	}
}

func TestRun_ParseError(t *testing.T) {
	path := writeTempSpec(t, "definitions: [unclosed")

	exit, _, stderr := runCLI(t, path)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stderr, "Error in "+path) {
		t.Errorf("stderr = %q, want parse error header", stderr)
	}
}

func TestRun_MissingFile(t *testing.T) {
	exit, _, stderr := runCLI(t, filepath.Join(t.TempDir(), "absent.yaml"))
	if exit != 1 {
		t.Fatalf("exit = %d, want 1\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stderr, "Error in") {
		t.Errorf("stderr = %q, want error header", stderr)
	}
}

func TestRun_NoFiles(t *testing.T) {
	exit, _, stderr := runCLI(t)
	if exit != 2 {
		t.Fatalf("exit = %d, want 2", exit)
	}
	if !strings.Contains(stderr, "at least one spec file is required") {
		t.Errorf("stderr = %q, want usage error", stderr)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	exit, _, _ := runCLI(t, "-no-such-flag")
	if exit != 2 {
		t.Fatalf("exit = %d, want 2", exit)
	}
}

func TestRun_MixedFilesKeepArgumentOrder(t *testing.T) {
	bad := writeTempSpec(t, invalidSpec)

	exit, stdout, stderr := runCLI(t, "-jobs", "2", quickstartPath, bad)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1", exit)
	}
	if !strings.Contains(stdout, quickstartPath) {
		t.Errorf("stdout = %q, want the valid file reported", stdout)
	}
	if !strings.Contains(stderr, bad) {
		t.Errorf("stderr = %q, want the invalid file reported", stderr)
	}
}

func TestRun_QuietSuppressesSuccess(t *testing.T) {
	exit, stdout, _ := runCLI(t, "-q", quickstartPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0", exit)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty with -q", stdout)
	}
}

func TestRun_WarningsGoToStderr(t *testing.T) {
	path := writeTempSpec(t, warningSpec)

	exit, stdout, stderr := runCLI(t, path)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0 (warnings are not errors)\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stdout, "is valid") {
		t.Errorf("stdout = %q, want success message", stdout)
	}
	if !strings.Contains(stderr, "warning:") || !strings.Contains(stderr, "optimization_metric") {
		t.Errorf("stderr = %q, want optimization metric warning", stderr)
	}
}

func TestRun_Version(t *testing.T) {
	exit, stdout, _ := runCLI(t, "-version")
	if exit != 0 {
		t.Fatalf("exit = %d, want 0", exit)
	}
	if strings.TrimSpace(stdout) == "" {
		t.Error("version output is empty")
	}
}
