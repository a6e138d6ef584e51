// SPDX-License-Identifier: MIT

// specgen emits a skeleton analysis specification to start a new project
// from, and lists the component types the registry knows.
//
// Usage:
//
//	specgen                    # minimal skeleton on stdout
//	specgen -full              # skeleton with every default spelled out
//	specgen -o starter.yaml
//	specgen -list              # available component types per section
//
// The emitted skeleton passes validation as-is; only the dataset paths and
// label names need to be replaced with real ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/airrkit/airrspec/internal/spec"
)

var Version = "dev"

// skeleton is the minimal starter document. Kept as authored YAML rather
// than built from nodes so the emitted file reads like a hand-written spec.
const skeleton = `definitions:
  datasets:
    dataset_1:
      format: AIRR
      params:
        path: data/
        metadata_file: data/metadata.csv
  encodings:
    encoding_1:
      KmerFrequency:
        k: 3
  ml_methods:
    method_1: LogisticRegression
  reports:
    report_1: SequenceLengthDistribution
instructions:
  instruction_1:
    type: TrainMLModel
    dataset: dataset_1
    labels: [disease_status]
    settings:
      - encoding: encoding_1
        ml_method: method_1
    assessment:
      split_strategy: random
      split_count: 5
      training_percentage: 0.7
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: balanced_accuracy
    metrics: [accuracy, balanced_accuracy, auc]
    reports: [report_1]
output:
  format: HTML
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("specgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		full        bool
		outPath     string
		list        bool
		showVersion bool
	)
	fs.BoolVar(&full, "full", false, "spell out every registry default in the skeleton")
	fs.StringVar(&outPath, "o", "", "write the skeleton to this file (atomic) instead of stdout")
	fs.BoolVar(&list, "list", false, "list available component types per section and exit")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  specgen [flags]")
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
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "Error: specgen takes no positional arguments")
		fmt.Fprintln(stderr, "")
		fs.Usage()
		return 2
	}

	if list {
		if err := listComponents(stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	doc, err := spec.Parse([]byte(skeleton))
	if err != nil {
		fmt.Fprintf(stderr, "Error: internal skeleton does not parse: %v\n", err)
		return 1
	}
	if full {
		doc, err = spec.Expand(doc)
		if err != nil {
			fmt.Fprintf(stderr, "Error expanding skeleton: %v\n", err)
			return 1
		}
	}

	if outPath != "" {
		if err := spec.WriteFile(context.Background(), outPath, doc); err != nil {
			fmt.Fprintf(stderr, "Error writing %s:\n  %v\n", outPath, err)
			return 1
		}
		fmt.Fprintf(stdout, "✓ wrote %s\n", outPath)
		return 0
	}

	data, err := doc.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "Error rendering skeleton: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(data)
	return 0
}

// sections maps registry component kinds onto the definitions sections they
// populate, in document order.
var sections = []struct {
	kind  spec.ComponentKind
	title string
}{
	{spec.KindDatasetFormat, "dataset formats"},
	{spec.KindEncoding, "encodings"},
	{spec.KindMLMethod, "ml_methods"},
	{spec.KindReport, "reports"},
	{spec.KindPreprocessing, "preprocessing"},
}

func listComponents(stdout io.Writer) error {
	reg, err := spec.GetRegistry()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, sec := range sections {
		fmt.Fprintf(w, "%s:\n", sec.title)
		for _, typ := range reg.Types(sec.kind) {
			cs, _ := reg.Lookup(sec.kind, typ)
			fmt.Fprintf(w, "  %s\t%s\n", typ, cs.Doc)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
