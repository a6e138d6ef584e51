// SPDX-License-Identifier: MIT

package spec

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// sortedKeys returns the map's keys in ascending order, for deterministic
// iteration over identifier maps.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// kindName renders a yaml.Kind for error messages.
func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// resolveAlias follows alias nodes to their anchor target.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

// isNull reports whether the node is an explicit or implicit null scalar.
func isNull(node *yaml.Node) bool {
	node = resolveAlias(node)
	if node == nil {
		return true
	}
	return node.Kind == yaml.ScalarNode && (node.Tag == "!!null" || (node.Tag == "" && node.Value == ""))
}

// decodeMapping walks a mapping node pairwise, rejecting duplicate keys and
// delegating each entry to fn. The key node is passed through so callers can
// report precise line numbers.
func decodeMapping(node *yaml.Node, fn func(key, value *yaml.Node) error) error {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		line := 0
		kind := "nothing"
		if node != nil {
			line = node.Line
			kind = kindName(node.Kind)
		}
		return fmt.Errorf("line %d: %w, got %s", line, ErrNotMapping, kind)
	}
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		value := node.Content[i+1]
		if _, dup := seen[key.Value]; dup {
			return fmt.Errorf("line %d: %w %q", key.Line, ErrDuplicateKey, key.Value)
		}
		seen[key.Value] = struct{}{}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

// unknownField builds the strict-decode error for an unexpected key.
func unknownField(key *yaml.Node, section string) error {
	return fmt.Errorf("line %d: %w %q in %s", key.Line, ErrUnknownField, key.Value, section)
}

// mapValue returns the value node for key within a mapping node, or nil.
func mapValue(node *yaml.Node, key string) *yaml.Node {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// hasMapKey reports whether the mapping node contains the key.
func hasMapKey(node *yaml.Node, key string) bool {
	return mapValue(node, key) != nil
}

// scalarNode builds a scalar node with an explicit tag.
func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// strNode builds a string scalar node.
func strNode(value string) *yaml.Node {
	return scalarNode("!!str", value)
}

// intNode builds an integer scalar node.
func intNode(value int) *yaml.Node {
	return scalarNode("!!int", fmt.Sprintf("%d", value))
}

// boolNode builds a boolean scalar node.
func boolNode(value bool) *yaml.Node {
	return scalarNode("!!bool", fmt.Sprintf("%t", value))
}

// floatNode builds a float scalar node, keeping a fractional form so the
// emitted YAML stays visibly a float.
func floatNode(value float64) *yaml.Node {
	s := fmt.Sprintf("%g", value)
	if !containsAny(s, ".eE") {
		s += ".0"
	}
	return scalarNode("!!float", s)
}

func containsAny(s, chars string) bool {
	for _, c := range s {
		for _, want := range chars {
			if c == want {
				return true
			}
		}
	}
	return false
}

// emptyMapNode builds an empty block-style mapping node.
func emptyMapNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// seqNode builds a sequence node from the given children.
func seqNode(children ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: children}
}

// appendMapEntry appends key/value to the end of a mapping node.
func appendMapEntry(node *yaml.Node, key string, value *yaml.Node) {
	node.Content = append(node.Content, strNode(key), value)
}

// ensureMapValue returns the value node for key, appending an empty mapping
// entry if the key is absent. The mapping node must not be nil.
func ensureMapValue(node *yaml.Node, key string) *yaml.Node {
	if v := mapValue(node, key); v != nil {
		return resolveAlias(v)
	}
	value := emptyMapNode()
	appendMapEntry(node, key, value)
	return value
}

// valueForGo converts a plain Go value into a yaml.Node. Only the shapes the
// defaults registry produces are supported.
func valueForGo(v any) *yaml.Node {
	switch tv := v.(type) {
	case string:
		return strNode(tv)
	case bool:
		return boolNode(tv)
	case int:
		return intNode(tv)
	case float64:
		return floatNode(tv)
	case []string:
		children := make([]*yaml.Node, 0, len(tv))
		for _, s := range tv {
			children = append(children, strNode(s))
		}
		return seqNode(children...)
	case []int:
		children := make([]*yaml.Node, 0, len(tv))
		for _, i := range tv {
			children = append(children, intNode(i))
		}
		return seqNode(children...)
	case map[string]string:
		node := emptyMapNode()
		for _, key := range sortedKeys(tv) {
			appendMapEntry(node, key, strNode(tv[key]))
		}
		return node
	case nil:
		return scalarNode("!!null", "null")
	default:
		return strNode(fmt.Sprintf("%v", v))
	}
}

// cloneNode deep-copies a node tree. Anchors and aliases are flattened: the
// copy holds the resolved values, which is what expansion wants.
func cloneNode(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	node = resolveAlias(node)
	out := &yaml.Node{
		Kind:        node.Kind,
		Style:       node.Style,
		Tag:         node.Tag,
		Value:       node.Value,
		HeadComment: node.HeadComment,
		LineComment: node.LineComment,
		FootComment: node.FootComment,
	}
	if len(node.Content) > 0 {
		out.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			out.Content[i] = cloneNode(child)
		}
	}
	return out
}
