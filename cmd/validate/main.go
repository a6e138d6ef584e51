// SPDX-License-Identifier: MIT

// validate is a CLI tool to validate immuneML-style analysis specifications.
//
// Usage:
//
//	validate spec.yaml
//	validate -jobs 8 specs/*.yaml
//
// Exit codes:
//   - 0: All specifications are valid
//   - 1: At least one specification is invalid (parse or validation error)
//   - 2: Usage error (no files given)
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/airrkit/airrspec/internal/spec"
	"github.com/airrkit/airrspec/internal/validate"
)

var Version = "dev"

// fileResult holds the outcome of validating one file so output stays in
// argument order regardless of which worker finished first.
type fileResult struct {
	path     string
	warnings []spec.Warning
	err      error
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		jobs        int
		expandEnv   bool
		quiet       bool
		showVersion bool
	)
	fs.IntVar(&jobs, "jobs", runtime.GOMAXPROCS(0), "number of files validated in parallel")
	fs.BoolVar(&expandEnv, "expand-env", false, "resolve ${VAR} references from the environment before validating")
	fs.BoolVar(&quiet, "q", false, "suppress per-file success output")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  validate [flags] <spec.yaml> [more.yaml ...]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Fprintln(stdout, Version)
		return 0
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(stderr, "Error: at least one spec file is required")
		fmt.Fprintln(stderr, "")
		fs.Usage()
		return 2
	}
	if jobs < 1 {
		jobs = 1
	}

	var opts []spec.ParseOption
	if expandEnv {
		opts = append(opts, spec.WithEnvExpansion())
	}

	results := make([]fileResult, len(files))
	g := new(errgroup.Group)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			results[i] = validateFile(path, opts)
			return nil
		})
	}
	_ = g.Wait()

	exit := 0
	for _, res := range results {
		if res.err != nil {
			printFailure(stderr, res.path, res.err)
			exit = 1
			continue
		}
		for _, w := range res.warnings {
			fmt.Fprintf(stderr, "warning: %s: %s\n", res.path, w)
		}
		if !quiet {
			fmt.Fprintf(stdout, "✓ %s is valid\n", res.path)
		}
	}
	return exit
}

func validateFile(path string, opts []spec.ParseOption) fileResult {
	doc, err := spec.ParseFile(path, opts...)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	warns, err := spec.Validate(doc)
	return fileResult{path: path, warnings: warns, err: err}
}

// printFailure renders one failed file. Accumulated validation errors are
// listed one per line; anything else prints as a single wrapped error.
func printFailure(stderr io.Writer, path string, err error) {
	var verr validate.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(stderr, "Validation error in %s:\n", path)
		for _, e := range verr.Errors() {
			fmt.Fprintf(stderr, "  %s: %s\n", e.Field, e.Message)
		}
		return
	}
	fmt.Fprintf(stderr, "Error in %s:\n  %v\n", path, err)
}
