// SPDX-License-Identifier: MIT

// diff is a CLI tool that compares two analysis specifications
// structurally: key order, comments and scalar spelling do not count as
// differences. With -expand both documents are filled with registry
// defaults first, which answers whether two specs mean the same analysis
// even when one spells out defaults the other omits.
//
// Usage:
//
//	diff a.yaml b.yaml
//	diff -expand a.yaml b.yaml
//
// Exit codes follow diff(1):
//   - 0: Specifications are equivalent
//   - 1: Specifications differ
//   - 2: Usage or parse error
package main

import (
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
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		expand      bool
		expandEnv   bool
		quiet       bool
		showVersion bool
	)
	fs.BoolVar(&expand, "expand", false, "fill both documents with registry defaults before comparing")
	fs.BoolVar(&expandEnv, "expand-env", false, "resolve ${VAR} references from the environment while parsing")
	fs.BoolVar(&quiet, "q", false, "report only via exit status")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  diff [flags] <a.yaml> <b.yaml>")
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

	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "Error: exactly two spec files are required")
		fmt.Fprintln(stderr, "")
		fs.Usage()
		return 2
	}

	var opts []spec.ParseOption
	if expandEnv {
		opts = append(opts, spec.WithEnvExpansion())
	}

	docA, err := load(fs.Arg(0), expand, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error in %s:\n  %v\n", fs.Arg(0), err)
		return 2
	}
	docB, err := load(fs.Arg(1), expand, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error in %s:\n  %v\n", fs.Arg(1), err)
		return 2
	}

	summary := spec.Diff(docA, docB)
	if summary.Empty() {
		if !quiet {
			fmt.Fprintln(stdout, "✓ specifications are equivalent")
		}
		return 0
	}

	if !quiet {
		for _, c := range summary.Changes {
			fmt.Fprintln(stdout, c)
		}
	}
	return 1
}

func load(path string, expand bool, opts []spec.ParseOption) (*spec.Document, error) {
	doc, err := spec.ParseFile(path, opts...)
	if err != nil {
		return nil, err
	}
	if !expand {
		return doc, nil
	}
	return spec.Expand(doc)
}
