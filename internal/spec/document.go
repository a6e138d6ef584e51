// SPDX-License-Identifier: MIT

package spec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document pairs the raw YAML node tree of a specification with its typed
// view. The node tree keeps key order, comments and scalar styles, so a
// parse/marshal round trip reproduces the author's layout; the typed view is
// what validation and the rest of the code work against.
type Document struct {
	root *yaml.Node
	spec *Spec
}

// Spec returns the typed view of the document.
func (d *Document) Spec() *Spec {
	return d.spec
}

// Root returns the underlying document node. Callers must not mutate it;
// Clone first.
func (d *Document) Root() *yaml.Node {
	return d.root
}

// Clone returns a deep copy of the document. Anchors and aliases in the
// source are flattened into plain values in the copy.
func (d *Document) Clone() (*Document, error) {
	root := cloneNode(d.root)
	return documentFromNode(root)
}

// Marshal serializes the document back to YAML with two-space indentation,
// preserving the key order and comments of the node tree.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encoding spec: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding spec: %w", err)
	}
	return buf.Bytes(), nil
}

// documentFromNode builds a Document around an existing node tree,
// re-deriving the typed view from it.
func documentFromNode(root *yaml.Node) (*Document, error) {
	var s Spec
	if err := root.Decode(&s); err != nil {
		return nil, err
	}
	return &Document{root: root, spec: &s}, nil
}
