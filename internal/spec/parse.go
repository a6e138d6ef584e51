// SPDX-License-Identifier: MIT

package spec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseOption adjusts how a specification is parsed.
type ParseOption func(*parseConfig)

type parseConfig struct {
	expandEnv bool
}

// WithEnvExpansion enables ${VAR} substitution in string values of the typed
// view. The node tree is left untouched, so marshalling still reproduces the
// original text. Unset variables expand to the empty string.
func WithEnvExpansion() ParseOption {
	return func(c *parseConfig) {
		c.expandEnv = true
	}
}

// ParseFile reads and parses a specification from disk. Only .yaml and .yml
// files are accepted.
func ParseFile(path string, opts ...ParseOption) (*Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("%s: %w (want .yaml or .yml)", path, ErrUnsupportedExtension)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}
	doc, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a single-document YAML specification. Unknown fields,
// duplicate keys and trailing documents are rejected; key order, comments
// and scalar styles survive into the returned Document.
func Parse(data []byte, opts ...ParseOption) (*Document, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("parsing spec: %w", err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}

	body := root.Content
	if root.Kind != yaml.DocumentNode || len(body) == 0 || isNull(body[0]) {
		return nil, ErrEmptyDocument
	}
	if resolveAlias(body[0]).Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level is %s: %w", kindName(body[0].Kind), ErrNotMapping)
	}

	typed := &root
	if cfg.expandEnv {
		typed = cloneNode(&root)
		expandEnvValues(typed.Content[0])
	}

	var s Spec
	if err := typed.Decode(&s); err != nil {
		return nil, err
	}
	return &Document{root: &root, spec: &s}, nil
}

// expandEnvValues substitutes ${VAR} references in string scalar values.
// Keys and bare $VAR forms are never expanded.
func expandEnvValues(node *yaml.Node) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" {
			node.Value = expandEnvString(node.Value)
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			expandEnvValues(node.Content[i])
		}
	case yaml.SequenceNode:
		for _, child := range node.Content {
			expandEnvValues(child)
		}
	}
}

func expandEnvString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			b.WriteString(s)
			break
		}
		j := strings.Index(s[i:], "}")
		if j < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		b.WriteString(os.Getenv(s[i+2 : i+j]))
		s = s[i+j+1:]
	}
	return b.String()
}
