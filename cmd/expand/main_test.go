// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/airrkit/airrspec/internal/spec"
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

func TestRun_ExpandToStdout(t *testing.T) {
	exit, stdout, stderr := runCLI(t, quickstartPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0\nstderr:\n%s", exit, stderr)
	}

	got, err := spec.Parse([]byte(stdout))
	if err != nil {
		t.Fatalf("stdout is not parseable YAML: %v", err)
	}
	want, err := spec.ParseFile(expandedPath)
	if err != nil {
		t.Fatal(err)
	}
	if d := spec.Diff(got, want); !d.Empty() {
		for _, c := range d.Changes {
			t.Errorf("stdout expansion differs from golden: %s", c)
		}
	}
}

func TestRun_ExpandToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "expanded.yaml")

	exit, stdout, stderr := runCLI(t, "-o", outPath, quickstartPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stdout, "wrote "+outPath) {
		t.Errorf("stdout = %q, want write confirmation", stdout)
	}

	got, err := spec.ParseFile(outPath)
	if err != nil {
		t.Fatalf("output file is not parseable: %v", err)
	}
	want, err := spec.ParseFile(expandedPath)
	if err != nil {
		t.Fatal(err)
	}
	if d := spec.Diff(got, want); !d.Empty() {
		for _, c := range d.Changes {
			t.Errorf("written expansion differs from golden: %s", c)
		}
	}
}

func TestRun_CheckUpToDate(t *testing.T) {
	exit, stdout, stderr := runCLI(t, "-check", expandedPath, quickstartPath)
	if exit != 0 {
		t.Fatalf("exit = %d, want 0\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stdout, "is up to date") {
		t.Errorf("stdout = %q, want up-to-date confirmation", stdout)
	}
}

func TestRun_CheckDetectsDrift(t *testing.T) {
	// The unexpanded document stands in for a stale expanded copy.
	exit, _, stderr := runCLI(t, "-check", quickstartPath, quickstartPath)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1\nstderr:\n%s", exit, stderr)
	}
	if !strings.Contains(stderr, "out of date") {
		t.Errorf("stderr = %q, want drift report", stderr)
	}
	if !strings.Contains(stderr, "+ ") {
		t.Errorf("stderr = %q, want added-field lines in the listing", stderr)
	}
}

func TestRun_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("definitions: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	exit, _, stderr := runCLI(t, path)
	if exit != 1 {
		t.Fatalf("exit = %d, want 1", exit)
	}
	if !strings.Contains(stderr, "Error in "+path) {
		t.Errorf("stderr = %q, want parse error header", stderr)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no files", nil},
		{"two files", []string{quickstartPath, quickstartPath}},
		{"output and check together", []string{"-o", "x.yaml", "-check", expandedPath, quickstartPath}},
		{"unknown flag", []string{"-no-such-flag", quickstartPath}},
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
