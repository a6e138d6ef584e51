// SPDX-License-Identifier: MIT

package spec

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChangeKind classifies one difference between two specifications.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeUpdated ChangeKind = "changed"
)

// Change describes one difference, addressed by a dot path into the YAML
// tree. Old and New hold scalar values where the difference is a scalar, or
// a shape placeholder like (mapping) otherwise.
type Change struct {
	Path string
	Kind ChangeKind
	Old  string
	New  string
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+ %s: %s", c.Path, c.New)
	case ChangeRemoved:
		return fmt.Sprintf("- %s: %s", c.Path, c.Old)
	default:
		return fmt.Sprintf("~ %s: %s -> %s", c.Path, c.Old, c.New)
	}
}

// ChangeSummary is the result of comparing two specifications.
type ChangeSummary struct {
	Changes []Change
}

// Empty reports whether the two specifications are semantically identical.
func (s ChangeSummary) Empty() bool {
	return len(s.Changes) == 0
}

// OnlyAdditions reports whether every difference is an added field. Holds
// for any input compared against its own expansion.
func (s ChangeSummary) OnlyAdditions() bool {
	for _, c := range s.Changes {
		if c.Kind != ChangeAdded {
			return false
		}
	}
	return true
}

// Diff compares two documents semantically: mapping key order, comments and
// scalar styles are ignored; sequences compare by position. Paths follow the
// first document's key order, with keys new in the second appended.
func Diff(a, b *Document) ChangeSummary {
	var s ChangeSummary
	s.compareNode("", a.Root().Content[0], b.Root().Content[0])
	return s
}

func (s *ChangeSummary) record(c Change) {
	s.Changes = append(s.Changes, c)
}

func (s *ChangeSummary) compareNode(path string, a, b *yaml.Node) {
	a, b = resolveAlias(a), resolveAlias(b)
	switch {
	case a.Kind == yaml.MappingNode && b.Kind == yaml.MappingNode:
		s.compareMapping(path, a, b)
	case a.Kind == yaml.SequenceNode && b.Kind == yaml.SequenceNode:
		s.compareSequence(path, a, b)
	case a.Kind == yaml.ScalarNode && b.Kind == yaml.ScalarNode:
		if !scalarEqual(a, b) {
			s.record(Change{Path: path, Kind: ChangeUpdated, Old: renderNode(a), New: renderNode(b)})
		}
	default:
		s.record(Change{Path: path, Kind: ChangeUpdated, Old: renderNode(a), New: renderNode(b)})
	}
}

func (s *ChangeSummary) compareMapping(path string, a, b *yaml.Node) {
	seen := make(map[string]bool, len(a.Content)/2)
	for i := 0; i+1 < len(a.Content); i += 2 {
		key := a.Content[i].Value
		seen[key] = true
		bv := mapValue(b, key)
		if bv == nil {
			s.record(Change{Path: joinPath(path, key), Kind: ChangeRemoved, Old: renderNode(a.Content[i+1])})
			continue
		}
		s.compareNode(joinPath(path, key), a.Content[i+1], bv)
	}
	for i := 0; i+1 < len(b.Content); i += 2 {
		key := b.Content[i].Value
		if seen[key] {
			continue
		}
		s.record(Change{Path: joinPath(path, key), Kind: ChangeAdded, New: renderNode(b.Content[i+1])})
	}
}

func (s *ChangeSummary) compareSequence(path string, a, b *yaml.Node) {
	n := len(a.Content)
	if len(b.Content) < n {
		n = len(b.Content)
	}
	for i := 0; i < n; i++ {
		s.compareNode(fmt.Sprintf("%s[%d]", path, i), a.Content[i], b.Content[i])
	}
	for i := n; i < len(a.Content); i++ {
		s.record(Change{Path: fmt.Sprintf("%s[%d]", path, i), Kind: ChangeRemoved, Old: renderNode(a.Content[i])})
	}
	for i := n; i < len(b.Content); i++ {
		s.record(Change{Path: fmt.Sprintf("%s[%d]", path, i), Kind: ChangeAdded, New: renderNode(b.Content[i])})
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// scalarEqual compares scalars by meaning rather than spelling: 1 equals
// 1.0, True equals true, quoted and plain strings compare by content.
func scalarEqual(a, b *yaml.Node) bool {
	if isNumericTag(a.Tag) && isNumericTag(b.Tag) {
		fa, errA := strconv.ParseFloat(a.Value, 64)
		fb, errB := strconv.ParseFloat(b.Value, 64)
		if errA == nil && errB == nil {
			return fa == fb
		}
	}
	if a.Tag != b.Tag {
		return false
	}
	if a.Tag == "!!bool" {
		return strings.EqualFold(a.Value, b.Value)
	}
	return a.Value == b.Value
}

func isNumericTag(tag string) bool {
	return tag == "!!int" || tag == "!!float"
}

func renderNode(node *yaml.Node) string {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) {
			return "null"
		}
		return node.Value
	case yaml.MappingNode:
		return "(mapping)"
	case yaml.SequenceNode:
		return "(sequence)"
	default:
		return "(" + kindName(node.Kind) + ")"
	}
}
