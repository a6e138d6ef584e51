// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	quickstartPath = "../../internal/spec/testdata/quickstart.yaml"
	expandedPath   = "../../internal/spec/testdata/quickstart_expanded.yaml"
)

func runCLI(t *testing.T, args ...string) (exit int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	exit = run(args, &out, &errOut)
	return exit, out.String(), errOut.String()
}

func writeTempSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_IdenticalFiles(t *testing.T) {
	exit, stdout, stderr := runCLI(t, quickstartPath, quickstartPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stdout, "equivalent") {
		t.Errorf("stdout = %q, want equivalence message", stdout)
	}
}

func TestRun_ReorderedKeysAreEquivalent(t *testing.T) {
	a := writeTempSpec(t, `definitions:
  datasets:
    d1:
      format: AIRR
      params:
        path: data/
instructions: {}
`)
	b := writeTempSpec(t, `instructions: {}
definitions:
  datasets:
    d1:
      params:
        path: data/
      format: AIRR
`)

	exit, _, stderr := runCLI(t, "-q", a, b)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0 for reordered keys\nstderr:\n%s", exit, stderr)
	}
}

func TestRun_DifferentFiles(t *testing.T) {
	exit, stdout, _ := runCLI(t, quickstartPath, expandedPath)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1", exit)
	}
	if !strings.Contains(stdout, "+ ") {
		t.Errorf("stdout = %q, want added-field lines", stdout)
	}
}

func TestRun_ExpandMakesDefaultsEquivalent(t *testing.T) {
	// Unexpanded vs expanded differ textually but mean the same analysis.
	exit, stdout, stderr := runCLI(t, "-expand", quickstartPath, expandedPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0 with -expand\nstdout:\n%s\nstderr:\n%s", exit, stdout, stderr)
	}
}

func TestRun_QuietSuppressesListing(t *testing.T) {
	exit, stdout, _ := runCLI(t, "-q", quickstartPath, expandedPath)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1", exit)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty with -q", stdout)
	}
}

func TestRun_ParseErrorIsTrouble(t *testing.T) {
	broken := writeTempSpec(t, "definitions: [unclosed")

	exit, _, stderr := runCLI(t, broken, quickstartPath)
	if exit != 2 {
		t.Fatalf("exit = %d, want 2", exit)
	}
	if !strings.Contains(stderr, "Error in "+broken) {
		t.Errorf("stderr = %q, want parse error header", stderr)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no files", nil},
		{"one file", []string{quickstartPath}},
		{"three files", []string{quickstartPath, quickstartPath, quickstartPath}},
		{"unknown flag", []string{"-no-such-flag", quickstartPath, quickstartPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if exit, _, _ := runCLI(t, tt.args...); exit != 2 {
				t.Errorf("exit = %d, want 2", exit)
			}
		})
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
