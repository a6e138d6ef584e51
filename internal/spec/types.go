// SPDX-License-Identifier: MIT

// Package spec implements parsing, validation, default expansion, comparison
// and serialization of declarative analysis specifications for adaptive
// immune receptor repertoire (AIRR) machine-learning pipelines. A
// specification names datasets, encodings, ML methods and reports under
// `definitions`, wires them together under `instructions`, and selects an
// `output` format. The package checks the wiring; it never touches the data
// the specification points at.
package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec is the typed view of a specification document.
type Spec struct {
	Definitions  *Definitions
	Instructions map[string]*Instruction
	Output       *Output
}

// UnmarshalYAML decodes the top level strictly: unknown keys are errors.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "definitions":
			s.Definitions = &Definitions{}
			return value.Decode(s.Definitions)
		case "instructions":
			s.Instructions = make(map[string]*Instruction)
			return decodeMapping(value, func(name, v *yaml.Node) error {
				inst := &Instruction{}
				if err := v.Decode(inst); err != nil {
					return fmt.Errorf("instruction %q: %w", name.Value, err)
				}
				s.Instructions[name.Value] = inst
				return nil
			})
		case "output":
			s.Output = &Output{}
			return value.Decode(s.Output)
		default:
			return unknownField(key, "top level")
		}
	})
}

// Definitions holds the reusable analysis components, each keyed by a
// user-chosen identifier. Motifs, Signals and Simulations are placeholder
// sections: they are accepted and carried as raw nodes (possibly empty) but
// nothing here interprets them.
type Definitions struct {
	Datasets               map[string]*Dataset
	Encodings              map[string]*Component
	MLMethods              map[string]*MLMethod
	Reports                map[string]*Component
	PreprocessingSequences map[string]PreprocessingSequence
	Motifs                 *yaml.Node
	Signals                *yaml.Node
	Simulations            *yaml.Node
}

// UnmarshalYAML decodes the definitions sections strictly.
func (d *Definitions) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "datasets":
			d.Datasets = make(map[string]*Dataset)
			return decodeNamed(value, "dataset", d.Datasets)
		case "encodings":
			d.Encodings = make(map[string]*Component)
			return decodeNamed(value, "encoding", d.Encodings)
		case "ml_methods":
			d.MLMethods = make(map[string]*MLMethod)
			return decodeNamed(value, "ml_method", d.MLMethods)
		case "reports":
			d.Reports = make(map[string]*Component)
			return decodeNamed(value, "report", d.Reports)
		case "preprocessing_sequences":
			d.PreprocessingSequences = make(map[string]PreprocessingSequence)
			return decodeMapping(value, func(name, v *yaml.Node) error {
				var seq PreprocessingSequence
				if err := v.Decode(&seq); err != nil {
					return fmt.Errorf("preprocessing_sequence %q: %w", name.Value, err)
				}
				d.PreprocessingSequences[name.Value] = seq
				return nil
			})
		case "motifs":
			d.Motifs = value
			return nil
		case "signals":
			d.Signals = value
			return nil
		case "simulations":
			d.Simulations = value
			return nil
		default:
			return unknownField(key, "definitions")
		}
	})
}

// decodeNamed decodes a mapping of user identifiers to component blocks into
// out, wrapping errors with the identifier.
func decodeNamed[T any](node *yaml.Node, what string, out map[string]*T) error {
	return decodeMapping(node, func(name, value *yaml.Node) error {
		item := new(T)
		if err := value.Decode(item); err != nil {
			return fmt.Errorf("%s %q: %w", what, name.Value, err)
		}
		out[name.Value] = item
		return nil
	})
}

// Dataset describes where and how repertoire data is imported. The import
// itself is out of scope; only the declaration is modelled.
type Dataset struct {
	Format string
	Params map[string]any
}

// datasetPathParams are the dataset params holding filesystem paths. Their
// typed-view values are normalized to forward slashes; the node tree keeps
// the author's spelling so the file round-trips unchanged.
var datasetPathParams = []string{"path", "metadata_file", "result_path"}

// UnmarshalYAML decodes a dataset block strictly.
func (d *Dataset) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "format":
			return value.Decode(&d.Format)
		case "params":
			if isNull(value) {
				d.Params = map[string]any{}
				return nil
			}
			if err := value.Decode(&d.Params); err != nil {
				return err
			}
			for _, name := range datasetPathParams {
				if s, ok := d.Params[name].(string); ok {
					d.Params[name] = strings.ReplaceAll(s, `\`, "/")
				}
			}
			return nil
		default:
			return unknownField(key, "dataset")
		}
	})
}

// Component is a type-keyed analysis component (encoding, report or
// preprocessing step): either the bare type name, or a single-key mapping
// from the type name to its parameters.
//
//	e1: KmerFrequency
//	e2:
//	  KmerFrequency:
//	    k: 4
type Component struct {
	Type   string
	Params map[string]any
}

// UnmarshalYAML accepts both component forms.
func (c *Component) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case node.Kind == yaml.ScalarNode && !isNull(node):
		c.Type = node.Value
		return nil
	case node.Kind == yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: component must name exactly one type, got %d keys", node.Line, len(node.Content)/2)
		}
		c.Type = node.Content[0].Value
		params := node.Content[1]
		if isNull(params) {
			c.Params = map[string]any{}
			return nil
		}
		if err := params.Decode(&c.Params); err != nil {
			return fmt.Errorf("%s params: %w", c.Type, err)
		}
		return nil
	default:
		return fmt.Errorf("line %d: component must be a type name or a single-key mapping, got %s", node.Line, kindName(node.Kind))
	}
}

// MLMethod is a type-keyed component with two optional siblings controlling
// internal model selection:
//
//	logistic:
//	  LogisticRegression:
//	    C: 0.05
//	  model_selection_cv: true
//	  model_selection_n_folds: 5
type MLMethod struct {
	Type                 string
	Params               map[string]any
	ModelSelectionCV     *bool
	ModelSelectionNFolds *int
}

// UnmarshalYAML accepts the bare type name or the mapping form above.
func (m *MLMethod) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind == yaml.ScalarNode && !isNull(node) {
		m.Type = node.Value
		return nil
	}
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "model_selection_cv":
			m.ModelSelectionCV = new(bool)
			return value.Decode(m.ModelSelectionCV)
		case "model_selection_n_folds":
			m.ModelSelectionNFolds = new(int)
			return value.Decode(m.ModelSelectionNFolds)
		default:
			if m.Type != "" {
				return fmt.Errorf("line %d: ml_method names two types (%q and %q)", key.Line, m.Type, key.Value)
			}
			m.Type = key.Value
			if isNull(value) {
				m.Params = map[string]any{}
				return nil
			}
			if err := value.Decode(&m.Params); err != nil {
				return fmt.Errorf("%s params: %w", m.Type, err)
			}
			return nil
		}
	})
}

// PreprocessingSequence is an ordered list of named preprocessing steps.
type PreprocessingSequence []PreprocessingStep

// PreprocessingStep is one entry of a preprocessing sequence: a single-key
// mapping from the step label to its type-keyed component.
type PreprocessingStep struct {
	Name string
	Component
}

// UnmarshalYAML decodes a preprocessing step.
func (p *PreprocessingStep) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: preprocessing step must be a single-key mapping naming the step", node.Line)
	}
	p.Name = node.Content[0].Value
	if err := node.Content[1].Decode(&p.Component); err != nil {
		return fmt.Errorf("step %q: %w", p.Name, err)
	}
	return nil
}

// Label names a metadata column an instruction predicts: either the bare
// column name or a single-key mapping carrying the positive class.
//
//	labels: [disease]
//	labels:
//	  - disease:
//	      positive_class: true
type Label struct {
	Name          string
	PositiveClass any
}

// UnmarshalYAML accepts both label forms.
func (l *Label) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case node.Kind == yaml.ScalarNode && !isNull(node):
		l.Name = node.Value
		return nil
	case node.Kind == yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: label must name exactly one column, got %d keys", node.Line, len(node.Content)/2)
		}
		l.Name = node.Content[0].Value
		opts := node.Content[1]
		if isNull(opts) {
			return nil
		}
		return decodeMapping(opts, func(key, value *yaml.Node) error {
			switch key.Value {
			case "positive_class":
				return value.Decode(&l.PositiveClass)
			default:
				return unknownField(key, fmt.Sprintf("label %q", l.Name))
			}
		})
	default:
		return fmt.Errorf("line %d: label must be a column name or a single-key mapping, got %s", node.Line, kindName(node.Kind))
	}
}

// Setting is one hyperparameter combination evaluated by the search: an
// encoding/ml_method pair with an optional preprocessing sequence, each named
// by reference into definitions.
type Setting struct {
	Preprocessing string
	Encoding      string
	MLMethod      string
}

// UnmarshalYAML decodes a settings entry strictly.
func (s *Setting) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "preprocessing":
			if isNull(value) {
				return nil
			}
			return value.Decode(&s.Preprocessing)
		case "encoding":
			return value.Decode(&s.Encoding)
		case "ml_method":
			return value.Decode(&s.MLMethod)
		default:
			return unknownField(key, "settings entry")
		}
	})
}

// SplitReports selects which reports run per split.
type SplitReports struct {
	DataSplits []string
	Models     []string
}

// UnmarshalYAML decodes a split reports block strictly.
func (r *SplitReports) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "data_splits":
			return value.Decode(&r.DataSplits)
		case "models":
			return value.Decode(&r.Models)
		default:
			return unknownField(key, "reports")
		}
	})
}

// SplitConfig configures one level of dataset splitting (assessment or
// selection). Optional numerics are pointers so expansion can distinguish
// absent from zero.
type SplitConfig struct {
	SplitStrategy      string
	SplitCount         *int
	TrainingPercentage *float64
	Reports            *SplitReports
}

// UnmarshalYAML decodes a split block strictly.
func (c *SplitConfig) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "split_strategy":
			return value.Decode(&c.SplitStrategy)
		case "split_count":
			c.SplitCount = new(int)
			return value.Decode(c.SplitCount)
		case "training_percentage":
			c.TrainingPercentage = new(float64)
			return value.Decode(c.TrainingPercentage)
		case "reports":
			c.Reports = &SplitReports{}
			if isNull(value) {
				return nil
			}
			return value.Decode(c.Reports)
		default:
			return unknownField(key, "split config")
		}
	})
}

// Instruction describes one run of the training pipeline over a dataset.
type Instruction struct {
	Type               string
	Dataset            string
	Labels             []Label
	Settings           []*Setting
	Assessment         *SplitConfig
	Selection          *SplitConfig
	Strategy           string
	Metrics            []string
	OptimizationMetric string
	RefitOptimalModel  *bool
	NumberOfProcesses  *int
	Reports            []string
}

// UnmarshalYAML decodes an instruction strictly.
func (in *Instruction) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "type":
			return value.Decode(&in.Type)
		case "dataset":
			return value.Decode(&in.Dataset)
		case "labels":
			return value.Decode(&in.Labels)
		case "settings":
			return value.Decode(&in.Settings)
		case "assessment":
			in.Assessment = &SplitConfig{}
			return value.Decode(in.Assessment)
		case "selection":
			in.Selection = &SplitConfig{}
			return value.Decode(in.Selection)
		case "strategy":
			return value.Decode(&in.Strategy)
		case "metrics":
			return value.Decode(&in.Metrics)
		case "optimization_metric":
			return value.Decode(&in.OptimizationMetric)
		case "refit_optimal_model":
			in.RefitOptimalModel = new(bool)
			return value.Decode(in.RefitOptimalModel)
		case "number_of_processes":
			in.NumberOfProcesses = new(int)
			return value.Decode(in.NumberOfProcesses)
		case "reports":
			return value.Decode(&in.Reports)
		default:
			return unknownField(key, "instruction")
		}
	})
}

// Output selects the result rendering.
type Output struct {
	Format string
}

// UnmarshalYAML decodes the output block strictly.
func (o *Output) UnmarshalYAML(node *yaml.Node) error {
	return decodeMapping(node, func(key, value *yaml.Node) error {
		switch key.Value {
		case "format":
			return value.Decode(&o.Format)
		default:
			return unknownField(key, "output")
		}
	})
}
