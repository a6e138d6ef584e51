// SPDX-License-Identifier: MIT

package spec

import (
	"fmt"
	"strings"

	"github.com/airrkit/airrspec/internal/airr"
	"github.com/airrkit/airrspec/internal/validate"
)

// Warning flags something suspicious that does not make a spec invalid.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

// Validate checks a parsed document against the component registry and the
// cross-reference rules. All problems are collected before returning; the
// error, when non-nil, unwraps to a validate.ValidationError carrying every
// one of them.
func Validate(doc *Document) ([]Warning, error) {
	return ValidateSpec(doc.Spec())
}

// ValidateSpec checks the typed view directly. See Validate.
func ValidateSpec(s *Spec) ([]Warning, error) {
	reg, err := GetRegistry()
	if err != nil {
		return nil, err
	}

	v := validate.New()
	var warns []Warning

	if s.Definitions == nil {
		v.AddError("definitions", "section is required", nil)
	} else {
		validateDefinitions(reg, v, s.Definitions)
	}

	if len(s.Instructions) == 0 {
		v.AddError("instructions", "at least one instruction is required", nil)
	}
	for _, name := range sortedKeys(s.Instructions) {
		validateInstruction(v, &warns, s.Definitions, name, s.Instructions[name])
	}

	if s.Output != nil && s.Output.Format != "" {
		if _, err := airr.ParseOutputFormat(s.Output.Format); err != nil {
			v.AddError("output.format", err.Error(), s.Output.Format)
		}
	}

	warns = append(warns, crossSectionDuplicates(s.Definitions)...)
	return warns, v.Err()
}

func validateDefinitions(reg *Registry, v *validate.Validator, defs *Definitions) {
	if len(defs.Datasets) == 0 {
		v.AddError("definitions.datasets", "at least one dataset is required", nil)
	}
	for _, name := range sortedKeys(defs.Datasets) {
		validateDataset(reg, v, "definitions.datasets."+name, defs.Datasets[name])
	}
	for _, name := range sortedKeys(defs.Encodings) {
		validateComponent(reg, v, KindEncoding, "definitions.encodings."+name, defs.Encodings[name])
	}
	for _, name := range sortedKeys(defs.MLMethods) {
		validateMLMethod(reg, v, "definitions.ml_methods."+name, defs.MLMethods[name])
	}
	for _, name := range sortedKeys(defs.Reports) {
		validateComponent(reg, v, KindReport, "definitions.reports."+name, defs.Reports[name])
	}
	for _, name := range sortedKeys(defs.PreprocessingSequences) {
		seq := defs.PreprocessingSequences[name]
		field := "definitions.preprocessing_sequences." + name
		if len(seq) == 0 {
			v.AddError(field, "sequence must contain at least one step", nil)
		}
		for i := range seq {
			validateComponent(reg, v, KindPreprocessing, field+"."+seq[i].Name, &seq[i].Component)
		}
	}
}

func validateDataset(reg *Registry, v *validate.Validator, field string, d *Dataset) {
	if strings.TrimSpace(d.Format) == "" {
		v.AddError(field+".format", "format is required", d.Format)
		return
	}
	cs, ok := reg.Lookup(KindDatasetFormat, d.Format)
	if !ok {
		v.AddError(field+".format",
			fmt.Sprintf("unknown format %q, known formats: %s",
				d.Format, strings.Join(reg.Types(KindDatasetFormat), ", ")),
			d.Format)
		return
	}
	validateParams(v, field+".params", cs, d.Params)

	// Repertoire datasets enumerate their files through a metadata file.
	if datasetIsRepertoire(cs, d.Params) {
		if _, set := d.Params["metadata_file"]; !set {
			v.AddError(field+".params.metadata_file",
				"metadata_file is required for repertoire datasets", nil)
		}
	}
}

func datasetIsRepertoire(cs *ComponentSpec, params map[string]any) bool {
	if b, ok := params["is_repertoire"].(bool); ok {
		return b
	}
	if p, ok := cs.Param("is_repertoire"); ok {
		if b, ok := p.Default.(bool); ok {
			return b
		}
	}
	return false
}

func validateComponent(reg *Registry, v *validate.Validator, kind ComponentKind, field string, c *Component) {
	if strings.TrimSpace(c.Type) == "" {
		v.AddError(field, "component type is required", c.Type)
		return
	}
	cs, ok := reg.Lookup(kind, c.Type)
	if !ok {
		v.AddError(field,
			fmt.Sprintf("unknown %s type %q, known types: %s",
				sectionNoun(kind), c.Type, strings.Join(reg.Types(kind), ", ")),
			c.Type)
		return
	}
	paramField := field + "." + cs.Type
	validateParams(v, paramField, cs, c.Params)
	checkComponentRules(v, paramField, cs, c.Params)
}

func validateMLMethod(reg *Registry, v *validate.Validator, field string, m *MLMethod) {
	validateComponent(reg, v, KindMLMethod, field, &Component{Type: m.Type, Params: m.Params})

	if m.ModelSelectionCV == nil || !*m.ModelSelectionCV {
		return
	}
	switch {
	case m.ModelSelectionNFolds == nil:
		v.AddError(field+".model_selection_n_folds",
			"required when model_selection_cv is true", nil)
	case *m.ModelSelectionNFolds < 2:
		v.AddError(field+".model_selection_n_folds",
			fmt.Sprintf("cross-validation needs at least 2 folds, got %d", *m.ModelSelectionNFolds),
			*m.ModelSelectionNFolds)
	}
}

// validateParams checks every supplied parameter against the component's
// schema and reports required parameters that are missing.
func validateParams(v *validate.Validator, field string, cs *ComponentSpec, params map[string]any) {
	for _, name := range sortedKeys(params) {
		p, ok := cs.Param(name)
		if !ok {
			known := make([]string, len(cs.Params))
			for i := range cs.Params {
				known[i] = cs.Params[i].Name
			}
			v.AddError(field+"."+name,
				fmt.Sprintf("unknown parameter for %s, known parameters: %s",
					cs.Type, strings.Join(known, ", ")),
				params[name])
			continue
		}
		checkParamValue(v, field+"."+name, p, params[name])
	}
	for i := range cs.Params {
		p := &cs.Params[i]
		if !p.Required {
			continue
		}
		if _, set := params[p.Name]; !set {
			v.AddError(field+"."+p.Name, "parameter is required", nil)
		}
	}
}

func checkParamValue(v *validate.Validator, field string, p *ParamSpec, value any) {
	switch p.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			v.AddError(field, fmt.Sprintf("expected a string, got %T", value), value)
			return
		}
		if len(p.Allowed) > 0 {
			oneOfFold(v, field, s, p.Allowed)
		}
	case KindPath:
		s, ok := value.(string)
		if !ok {
			v.AddError(field, fmt.Sprintf("expected a path string, got %T", value), value)
			return
		}
		v.PathSyntax(field, s)
	case KindBool:
		if _, ok := value.(bool); !ok {
			v.AddError(field, fmt.Sprintf("expected a boolean, got %T", value), value)
		}
	case KindInt:
		if _, ok := asInt(value); !ok {
			v.AddError(field, fmt.Sprintf("expected an integer, got %T", value), value)
		}
	case KindFloat:
		if _, ok := asFloat(value); !ok {
			v.AddError(field, fmt.Sprintf("expected a number, got %T", value), value)
		}
	case KindStringList:
		items, ok := value.([]any)
		if !ok {
			v.AddError(field, fmt.Sprintf("expected a list of strings, got %T", value), value)
			return
		}
		for i, item := range items {
			elem := fmt.Sprintf("%s[%d]", field, i)
			s, ok := item.(string)
			if !ok {
				v.AddError(elem, fmt.Sprintf("expected a string, got %T", item), item)
				continue
			}
			if len(p.Allowed) > 0 {
				oneOfFold(v, elem, s, p.Allowed)
			}
		}
	case KindIntList:
		items, ok := value.([]any)
		if !ok {
			v.AddError(field, fmt.Sprintf("expected a list of integers, got %T", value), value)
			return
		}
		for i, item := range items {
			if _, ok := asInt(item); !ok {
				v.AddError(fmt.Sprintf("%s[%d]", field, i),
					fmt.Sprintf("expected an integer, got %T", item), item)
			}
		}
	case KindStringMap:
		m, ok := value.(map[string]any)
		if !ok {
			v.AddError(field, fmt.Sprintf("expected a mapping of strings, got %T", value), value)
			return
		}
		for _, k := range sortedKeys(m) {
			if _, ok := m[k].(string); !ok {
				v.AddError(field+"."+k, fmt.Sprintf("expected a string value, got %T", m[k]), m[k])
			}
		}
	}
}

// checkComponentRules holds the per-type constraints that go beyond a
// parameter's shape.
func checkComponentRules(v *validate.Validator, field string, cs *ComponentSpec, params map[string]any) {
	switch cs.Type {
	case "KmerFrequency":
		if k, ok := intParam(params, "k"); ok {
			v.Positive(field+".k", k)
		}
		for _, name := range []string{"k_left", "k_right", "min_gap", "max_gap"} {
			if n, ok := intParam(params, name); ok {
				v.NonNegative(field+"."+name, n)
			}
		}
		if lo, ok := intParam(params, "min_gap"); ok {
			if hi, ok2 := intParam(params, "max_gap"); ok2 && hi < lo {
				v.AddError(field+".max_gap",
					fmt.Sprintf("max_gap must be at least min_gap, got %d < %d", hi, lo), hi)
			}
		}
	case "LogisticRegression":
		if c, ok := floatParam(params, "C"); ok && c <= 0 {
			v.AddError(field+".C", fmt.Sprintf("value must be positive, got %g", c), c)
		}
		if n, ok := intParam(params, "max_iter"); ok {
			v.Positive(field+".max_iter", n)
		}
	case "ClonesPerRepertoireFilter":
		lower, lok := intParam(params, "lower_limit")
		upper, uok := intParam(params, "upper_limit")
		if lok && lower < -1 {
			v.AddError(field+".lower_limit", "value must be -1 (disabled) or a clone count", lower)
		}
		if uok && upper < -1 {
			v.AddError(field+".upper_limit", "value must be -1 (disabled) or a clone count", upper)
		}
		if lok && uok && lower >= 0 && upper >= 0 && upper < lower {
			v.AddError(field+".upper_limit",
				fmt.Sprintf("upper_limit must be at least lower_limit, got %d < %d", upper, lower),
				upper)
		}
	case "CountPerSequenceFilter":
		if n, ok := intParam(params, "low_count_limit"); ok {
			v.NonNegative(field+".low_count_limit", n)
		}
	case "Coefficients":
		plots, _ := stringListParam(params, "coefs_to_plot")
		if containsFold(plots, "cutoff") && !listParamFilled(params, "cutoff") {
			v.AddError(field+".cutoff",
				"non-empty thresholds are required when coefs_to_plot includes cutoff", params["cutoff"])
		}
		if containsFold(plots, "n_largest") && listParamEmpty(params, "n_largest") {
			v.AddError(field+".n_largest",
				"counts cannot be empty when coefs_to_plot includes n_largest", params["n_largest"])
		}
	}
}

func validateInstruction(v *validate.Validator, warns *[]Warning, defs *Definitions, name string, in *Instruction) {
	field := "instructions." + name

	if _, err := airr.ParseInstructionType(in.Type); err != nil {
		v.AddError(field+".type", err.Error(), in.Type)
	}

	v.NotEmpty(field+".dataset", in.Dataset)
	if in.Dataset != "" && defs != nil {
		if _, ok := defs.Datasets[in.Dataset]; !ok {
			v.AddError(field+".dataset",
				fmt.Sprintf("references undefined dataset %q", in.Dataset), in.Dataset)
		}
	}

	if len(in.Labels) == 0 {
		v.AddError(field+".labels", "at least one label is required", nil)
	}
	for i, l := range in.Labels {
		if strings.TrimSpace(l.Name) == "" {
			v.AddError(fmt.Sprintf("%s.labels[%d]", field, i), "label cannot be empty", l.Name)
		}
	}

	if len(in.Settings) == 0 {
		v.AddError(field+".settings", "at least one setting is required", nil)
	}
	for i, st := range in.Settings {
		validateSetting(v, fmt.Sprintf("%s.settings[%d]", field, i), defs, st)
	}

	validateSplitConfig(v, field+".assessment", defs, in.Assessment)
	validateSplitConfig(v, field+".selection", defs, in.Selection)

	if in.Strategy != "" {
		if _, err := airr.ParseSearchStrategy(in.Strategy); err != nil {
			v.AddError(field+".strategy", err.Error(), in.Strategy)
		}
	}

	if len(in.Metrics) == 0 {
		v.AddError(field+".metrics", "at least one metric is required", nil)
	}
	for i, m := range in.Metrics {
		if _, err := airr.ParseMetric(m); err != nil {
			v.AddError(fmt.Sprintf("%s.metrics[%d]", field, i), err.Error(), m)
		}
	}

	v.NotEmpty(field+".optimization_metric", in.OptimizationMetric)
	if in.OptimizationMetric != "" {
		if _, err := airr.ParseMetric(in.OptimizationMetric); err != nil {
			v.AddError(field+".optimization_metric", err.Error(), in.OptimizationMetric)
		} else if !containsFold(in.Metrics, in.OptimizationMetric) {
			*warns = append(*warns, Warning{
				Field:   field + ".optimization_metric",
				Message: fmt.Sprintf("%q is not listed in metrics; it is still computed for optimization", in.OptimizationMetric),
			})
		}
	}

	if in.NumberOfProcesses != nil && *in.NumberOfProcesses < 1 {
		v.AddError(field+".number_of_processes",
			fmt.Sprintf("value must be at least 1, got %d", *in.NumberOfProcesses),
			*in.NumberOfProcesses)
	}

	for i, r := range in.Reports {
		checkReportRef(v, fmt.Sprintf("%s.reports[%d]", field, i), defs, r)
	}
}

func validateSetting(v *validate.Validator, field string, defs *Definitions, st *Setting) {
	if st == nil {
		v.AddError(field, "setting cannot be empty", nil)
		return
	}
	v.NotEmpty(field+".ml_method", st.MLMethod)
	if defs == nil {
		return
	}
	if st.MLMethod != "" {
		if _, ok := defs.MLMethods[st.MLMethod]; !ok {
			v.AddError(field+".ml_method",
				fmt.Sprintf("references undefined ml_method %q", st.MLMethod), st.MLMethod)
		}
	}
	if st.Encoding != "" {
		if _, ok := defs.Encodings[st.Encoding]; !ok {
			v.AddError(field+".encoding",
				fmt.Sprintf("references undefined encoding %q", st.Encoding), st.Encoding)
		}
	}
	if st.Preprocessing != "" {
		if _, ok := defs.PreprocessingSequences[st.Preprocessing]; !ok {
			v.AddError(field+".preprocessing",
				fmt.Sprintf("references undefined preprocessing sequence %q", st.Preprocessing), st.Preprocessing)
		}
	}
}

func validateSplitConfig(v *validate.Validator, field string, defs *Definitions, sc *SplitConfig) {
	if sc == nil {
		return
	}
	if sc.SplitStrategy != "" {
		if _, err := airr.ParseSplitStrategy(sc.SplitStrategy); err != nil {
			v.AddError(field+".split_strategy", err.Error(), sc.SplitStrategy)
		}
	}
	if sc.SplitCount != nil {
		v.Positive(field+".split_count", *sc.SplitCount)
	}
	if sc.TrainingPercentage != nil {
		v.Fraction(field+".training_percentage", *sc.TrainingPercentage)
	}
	if sc.Reports != nil {
		for i, r := range sc.Reports.DataSplits {
			checkReportRef(v, fmt.Sprintf("%s.reports.data_splits[%d]", field, i), defs, r)
		}
		for i, r := range sc.Reports.Models {
			checkReportRef(v, fmt.Sprintf("%s.reports.models[%d]", field, i), defs, r)
		}
	}
}

func checkReportRef(v *validate.Validator, field string, defs *Definitions, name string) {
	if strings.TrimSpace(name) == "" {
		v.AddError(field, "report reference cannot be empty", name)
		return
	}
	if defs == nil {
		return
	}
	if _, ok := defs.Reports[name]; !ok {
		v.AddError(field, fmt.Sprintf("references undefined report %q", name), name)
	}
}

// crossSectionDuplicates warns when the same identifier names components in
// different sections. References resolve within their own section, so this
// is legal but usually a copy-paste slip.
func crossSectionDuplicates(defs *Definitions) []Warning {
	if defs == nil {
		return nil
	}
	sections := []struct {
		name string
		keys []string
	}{
		{"datasets", sortedKeys(defs.Datasets)},
		{"encodings", sortedKeys(defs.Encodings)},
		{"ml_methods", sortedKeys(defs.MLMethods)},
		{"reports", sortedKeys(defs.Reports)},
		{"preprocessing_sequences", sortedKeys(defs.PreprocessingSequences)},
	}

	first := make(map[string]string)
	var warns []Warning
	for _, sec := range sections {
		for _, k := range sec.keys {
			if prev, ok := first[k]; ok {
				warns = append(warns, Warning{
					Field:   "definitions." + sec.name + "." + k,
					Message: fmt.Sprintf("identifier %q is also used in %s", k, prev),
				})
				continue
			}
			first[k] = sec.name
		}
	}
	return warns
}

func sectionNoun(kind ComponentKind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

func oneOfFold(v *validate.Validator, field, value string, allowed []string) {
	if containsFold(allowed, value) {
		return
	}
	v.AddError(field,
		fmt.Sprintf("value must be one of %v, got %q", allowed, value), value)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func intParam(params map[string]any, name string) (int, bool) {
	v, ok := params[name]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

func floatParam(params map[string]any, name string) (float64, bool) {
	v, ok := params[name]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

func stringListParam(params map[string]any, name string) ([]string, bool) {
	items, ok := params[name].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// listParamEmpty reports whether a list parameter is explicitly empty. An
// absent parameter is not empty; the registry default fills it later.
func listParamEmpty(params map[string]any, name string) bool {
	v, ok := params[name]
	if !ok {
		return false
	}
	items, ok := v.([]any)
	return ok && len(items) == 0
}

// listParamFilled reports whether a list parameter is present with at least
// one element.
func listParamFilled(params map[string]any, name string) bool {
	items, ok := params[name].([]any)
	return ok && len(items) > 0
}
