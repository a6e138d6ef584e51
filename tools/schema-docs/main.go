// SPDX-License-Identifier: MIT

// schema-docs generates Markdown documentation from the component registry.
//
// Usage:
//
//	go run ./tools/schema-docs [output.md]
//
// Default output: docs/components.md
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/airrkit/airrspec/internal/spec"
)

var sections = []struct {
	Kind  spec.ComponentKind
	Title string
}{
	{spec.KindDatasetFormat, "Dataset formats"},
	{spec.KindEncoding, "Encodings"},
	{spec.KindMLMethod, "ML methods"},
	{spec.KindReport, "Reports"},
	{spec.KindPreprocessing, "Preprocessing"},
}

func main() {
	out := "docs/components.md"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	reg, err := spec.GetRegistry()
	check(err)

	buf := render(reg)

	check(os.MkdirAll(filepath.Dir(out), 0o755))
	check(os.WriteFile(out, buf.Bytes(), 0o644))
	fmt.Printf("generated %s (%d components)\n", out, len(reg.Specs))
}

func render(reg *spec.Registry) *bytes.Buffer {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, "# Component reference")
	fmt.Fprintln(buf, "> Generated by `go run ./tools/schema-docs`. Do not edit by hand.")
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, "## Overview")
	fmt.Fprintln(buf, "| Component | Kind | Parameters | Description |")
	fmt.Fprintln(buf, "|---|---|---:|---|")
	for _, sec := range sections {
		for _, typ := range reg.Types(sec.Kind) {
			cs, _ := reg.Lookup(sec.Kind, typ)
			fmt.Fprintf(buf, "| %s | %s | %d | %s |\n",
				mdCode(cs.Type), mdCode(string(cs.Kind)), len(cs.Params), mdSan(cs.Doc))
		}
	}
	fmt.Fprintln(buf)

	for _, sec := range sections {
		types := reg.Types(sec.Kind)
		if len(types) == 0 {
			continue
		}
		fmt.Fprintf(buf, "## %s\n\n", sec.Title)
		for _, typ := range types {
			cs, _ := reg.Lookup(sec.Kind, typ)
			renderComponent(buf, cs)
		}
	}
	return buf
}

func renderComponent(buf *bytes.Buffer, cs *spec.ComponentSpec) {
	fmt.Fprintf(buf, "### `%s`\n\n", cs.Type)
	if cs.Doc != "" {
		fmt.Fprintf(buf, "%s\n\n", mdSan(cs.Doc))
	}
	if len(cs.Params) == 0 {
		fmt.Fprintln(buf, "No parameters.")
		fmt.Fprintln(buf)
		return
	}
	fmt.Fprintln(buf, "| Parameter | Type | Default | Required | Allowed values | Description |")
	fmt.Fprintln(buf, "|---|---|---|:---:|---|---|")
	for _, p := range cs.Params {
		def := ""
		if d := formatDefault(p.Default); d != "" {
			def = mdCode(d)
		}
		allowed := strings.Join(wrapBackticks(p.Allowed), ", ")
		fmt.Fprintf(buf, "| %s | %s | %s | %s | %s | %s |\n",
			mdCode(p.Name), mdCode(string(p.Kind)), def, boolIcon(p.Required), allowed, mdSan(p.Doc))
	}
	fmt.Fprintln(buf)
}

// formatDefault renders a parameter default for a Markdown table cell.
// Strings that would not survive a table cell verbatim are quoted.
func formatDefault(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		if q := strconv.Quote(d); d == "" || q != `"`+d+`"` {
			return q
		}
		return d
	case bool:
		return strconv.FormatBool(d)
	case int:
		return strconv.Itoa(d)
	case float64:
		return strconv.FormatFloat(d, 'g', -1, 64)
	case []string:
		return "[" + strings.Join(d, ", ") + "]"
	case []int:
		parts := make([]string, len(d))
		for i, n := range d {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]string:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + d[k]
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(d)
	}
}

func mdSan(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}

func mdCode(s string) string {
	return "`" + s + "`"
}

func wrapBackticks(v []string) []string {
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = "`" + s + "`"
	}
	return out
}

func boolIcon(b bool) string {
	if b {
		return "✓"
	}
	return ""
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
