// SPDX-License-Identifier: MIT

package spec

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/airrkit/airrspec/internal/airr"
)

// Expand returns a copy of the document with every omitted default filled
// in: component parameters from the registry, model selection fields,
// instruction and split defaults, and the output block. Explicit values are
// never overwritten, even when they equal a default; appended defaults
// follow registry declaration order after the author's keys. The input
// document is not modified. Unknown component types keep their parameters
// untouched; reporting them is Validate's job. Expand is idempotent.
func Expand(doc *Document) (*Document, error) {
	reg, err := GetRegistry()
	if err != nil {
		return nil, err
	}

	root := cloneNode(doc.Root())
	body := root.Content[0]

	if defs := mapValue(body, "definitions"); defs != nil {
		if err := expandDefinitions(reg, defs); err != nil {
			return nil, err
		}
	}
	if instructions := mapValue(body, "instructions"); instructions != nil {
		if err := eachNamed(instructions, func(_ string, node *yaml.Node) error {
			expandInstruction(node)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	expandOutput(body)

	return documentFromNode(root)
}

func expandDefinitions(reg *Registry, defs *yaml.Node) error {
	return decodeMapping(defs, func(key, value *yaml.Node) error {
		switch key.Value {
		case "datasets":
			return eachNamed(value, func(_ string, node *yaml.Node) error {
				expandDataset(reg, node)
				return nil
			})
		case "encodings":
			return eachNamed(value, func(_ string, node *yaml.Node) error {
				expandComponent(reg, KindEncoding, node)
				return nil
			})
		case "ml_methods":
			return eachNamed(value, func(_ string, node *yaml.Node) error {
				expandComponent(reg, KindMLMethod, node)
				return nil
			})
		case "reports":
			return eachNamed(value, func(_ string, node *yaml.Node) error {
				expandComponent(reg, KindReport, node)
				return nil
			})
		case "preprocessing_sequences":
			return eachNamed(value, func(_ string, node *yaml.Node) error {
				expandPreprocessingSequence(reg, node)
				return nil
			})
		}
		return nil
	})
}

// eachNamed iterates the name -> node entries of a definitions or
// instructions section.
func eachNamed(section *yaml.Node, fn func(name string, node *yaml.Node) error) error {
	section = resolveAlias(section)
	if section.Kind != yaml.MappingNode {
		return nil
	}
	return decodeMapping(section, func(key, value *yaml.Node) error {
		return fn(key.Value, value)
	})
}

// asMapping resolves the node to a mapping, converting an explicit null into
// an empty map in place. Returns nil for any other shape.
func asMapping(node *yaml.Node) *yaml.Node {
	node = resolveAlias(node)
	if isNull(node) {
		*node = *emptyMapNode()
		return node
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func expandDataset(reg *Registry, node *yaml.Node) {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return
	}
	format := mapValue(node, "format")
	if format == nil {
		return
	}
	params := mapValue(node, "params")
	if params == nil {
		params = ensureMapValue(node, "params")
	}
	if params = asMapping(params); params == nil {
		return
	}
	applyParamDefaults(reg, KindDatasetFormat, format.Value, params)
}

// expandComponent normalizes a type-keyed component node and fills its
// parameter defaults. A bare scalar shorthand like "e1: KmerFrequency"
// becomes a one-key mapping with a full parameter block. For ML methods the
// model selection siblings are appended as well.
func expandComponent(reg *Registry, kind ComponentKind, node *yaml.Node) {
	node = resolveAlias(node)
	if node.Kind == yaml.ScalarNode && !isNull(node) {
		typ := node.Value
		*node = *emptyMapNode()
		appendMapEntry(node, typ, emptyMapNode())
	}
	if node.Kind != yaml.MappingNode {
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if kind == KindMLMethod && (key == "model_selection_cv" || key == "model_selection_n_folds") {
			continue
		}
		if params := asMapping(node.Content[i+1]); params != nil {
			applyParamDefaults(reg, kind, key, params)
		}
		break
	}

	if kind == KindMLMethod {
		if !hasMapKey(node, "model_selection_cv") {
			appendMapEntry(node, "model_selection_cv", boolNode(DefaultModelSelectionCV))
		}
		if !hasMapKey(node, "model_selection_n_folds") {
			appendMapEntry(node, "model_selection_n_folds", intNode(DefaultModelSelectionNFolds))
		}
	}
}

func expandPreprocessingSequence(reg *Registry, seq *yaml.Node) {
	seq = resolveAlias(seq)
	if seq.Kind != yaml.SequenceNode {
		return
	}
	for _, step := range seq.Content {
		step = resolveAlias(step)
		if step.Kind != yaml.MappingNode || len(step.Content) < 2 {
			continue
		}
		expandComponent(reg, KindPreprocessing, step.Content[1])
	}
}

func applyParamDefaults(reg *Registry, kind ComponentKind, typ string, params *yaml.Node) {
	cs, ok := reg.Lookup(kind, typ)
	if !ok {
		return
	}
	for _, p := range cs.Params {
		if p.Default == nil || hasMapKey(params, p.Name) {
			continue
		}
		appendMapEntry(params, p.Name, valueForGo(p.Default))
	}
}

func expandInstruction(node *yaml.Node) {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return
	}
	typ := mapValue(node, "type")
	if typ == nil || !strings.EqualFold(typ.Value, string(airr.InstructionTrainMLModel)) {
		return
	}

	if !hasMapKey(node, "strategy") {
		appendMapEntry(node, "strategy", strNode(DefaultStrategy))
	}
	expandSplitBlock(node, "assessment")
	expandSplitBlock(node, "selection")
	if !hasMapKey(node, "refit_optimal_model") {
		appendMapEntry(node, "refit_optimal_model", boolNode(DefaultRefitOptimalModel))
	}
	if !hasMapKey(node, "number_of_processes") {
		appendMapEntry(node, "number_of_processes", intNode(DefaultNumberOfProcesses))
	}
	if !hasMapKey(node, "reports") {
		appendMapEntry(node, "reports", seqNode())
	}
}

// expandSplitBlock fills an assessment or selection block, synthesizing the
// whole block when absent.
func expandSplitBlock(instr *yaml.Node, key string) {
	block := mapValue(instr, key)
	if block == nil {
		block = ensureMapValue(instr, key)
	}
	if block = asMapping(block); block == nil {
		return
	}

	if !hasMapKey(block, "split_strategy") {
		appendMapEntry(block, "split_strategy", strNode(DefaultSplitStrategy))
	}
	if !hasMapKey(block, "split_count") {
		appendMapEntry(block, "split_count", intNode(DefaultSplitCount))
	}
	if strat := mapValue(block, "split_strategy"); strat != nil {
		if st, err := airr.ParseSplitStrategy(strat.Value); err == nil &&
			st.RequiresTrainingPercentage() && !hasMapKey(block, "training_percentage") {
			appendMapEntry(block, "training_percentage", floatNode(DefaultTrainingPercentage))
		}
	}

	reports := mapValue(block, "reports")
	if reports == nil {
		reports = ensureMapValue(block, "reports")
	}
	if reports = asMapping(reports); reports == nil {
		return
	}
	if !hasMapKey(reports, "data_splits") {
		appendMapEntry(reports, "data_splits", seqNode())
	}
	if !hasMapKey(reports, "models") {
		appendMapEntry(reports, "models", seqNode())
	}
}

func expandOutput(body *yaml.Node) {
	out := mapValue(body, "output")
	if out == nil {
		out = ensureMapValue(body, "output")
	}
	if out = asMapping(out); out == nil {
		return
	}
	if !hasMapKey(out, "format") {
		appendMapEntry(out, "format", strNode(DefaultOutputFormat))
	}
}
