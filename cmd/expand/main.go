// SPDX-License-Identifier: MIT

// expand is a CLI tool that fills an analysis specification with the
// registry defaults, producing the fully explicit document the daemon and
// the validator reason about.
//
// Usage:
//
//	expand spec.yaml                  # expanded document on stdout
//	expand -o spec_full.yaml spec.yaml
//	expand -check spec_full.yaml spec.yaml
//
// -check compares the expansion against an already expanded file and fails
// when they drift, so an expanded copy kept in version control stays honest.
//
// Exit codes:
//   - 0: Expanded successfully (or -check found no drift)
//   - 1: Parse/expansion error, or -check found differences
//   - 2: Usage error
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/airrkit/airrspec/internal/spec"
)

var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		outPath     string
		checkPath   string
		expandEnv   bool
		showVersion bool
	)
	fs.StringVar(&outPath, "o", "", "write the expanded document to this file (atomic) instead of stdout")
	fs.StringVar(&checkPath, "check", "", "compare the expansion against this file and report drift")
	fs.BoolVar(&expandEnv, "expand-env", false, "resolve ${VAR} references from the environment before expanding")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  expand [flags] <spec.yaml>")
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

	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one spec file is required")
		fmt.Fprintln(stderr, "")
		fs.Usage()
		return 2
	}
	if outPath != "" && checkPath != "" {
		fmt.Fprintln(stderr, "Error: -o and -check are mutually exclusive")
		return 2
	}
	path := fs.Arg(0)

	var opts []spec.ParseOption
	if expandEnv {
		opts = append(opts, spec.WithEnvExpansion())
	}

	doc, err := spec.ParseFile(path, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error in %s:\n  %v\n", path, err)
		return 1
	}

	expanded, err := spec.Expand(doc)
	if err != nil {
		fmt.Fprintf(stderr, "Expansion error in %s:\n  %v\n", path, err)
		return 1
	}

	if checkPath != "" {
		return check(stdout, stderr, expanded, checkPath)
	}

	if outPath != "" {
		if err := spec.WriteFile(context.Background(), outPath, expanded); err != nil {
			fmt.Fprintf(stderr, "Error writing %s:\n  %v\n", outPath, err)
			return 1
		}
		fmt.Fprintf(stdout, "✓ wrote %s\n", outPath)
		return 0
	}

	data, err := expanded.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "Error rendering %s:\n  %v\n", path, err)
		return 1
	}
	_, _ = stdout.Write(data)
	return 0
}

// check compares the freshly expanded document against an expanded file kept
// on disk and lists every difference.
func check(stdout, stderr io.Writer, expanded *spec.Document, checkPath string) int {
	onDisk, err := spec.ParseFile(checkPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error in %s:\n  %v\n", checkPath, err)
		return 1
	}

	diff := spec.Diff(onDisk, expanded)
	if diff.Empty() {
		fmt.Fprintf(stdout, "✓ %s is up to date\n", checkPath)
		return 0
	}

	fmt.Fprintf(stderr, "%s is out of date (%d differences):\n", checkPath, len(diff.Changes))
	for _, c := range diff.Changes {
		fmt.Fprintf(stderr, "  %s\n", c)
	}
	return 1
}
