// SPDX-License-Identifier: MIT

package spec

import (
	"fmt"
	"strings"
	"sync"

	"github.com/airrkit/airrspec/internal/airr"
)

// ParamKind enumerates the value shapes a component parameter can take.
type ParamKind string

const (
	KindString     ParamKind = "string"
	KindBool       ParamKind = "bool"
	KindInt        ParamKind = "int"
	KindFloat      ParamKind = "float"
	KindPath       ParamKind = "path"
	KindStringList ParamKind = "string_list"
	KindIntList    ParamKind = "int_list"
	KindStringMap  ParamKind = "string_map"
)

// ParamSpec describes one parameter of a component type: its shape, default
// and, for enum-valued parameters, the allowed values. A nil Default with
// Required false means the parameter is optional and stays absent after
// expansion.
type ParamSpec struct {
	Name     string
	Kind     ParamKind
	Default  any
	Required bool
	Allowed  []string
	Doc      string
}

// ComponentKind names the definitions section a component type belongs to.
type ComponentKind string

const (
	KindDatasetFormat ComponentKind = "dataset_format"
	KindEncoding      ComponentKind = "encoding"
	KindMLMethod      ComponentKind = "ml_method"
	KindReport        ComponentKind = "report"
	KindPreprocessing ComponentKind = "preprocessing"
)

// ComponentSpec describes one component type: which section it lives in, its
// canonical name and its parameter schema in declaration order. Expansion
// appends missing defaults in exactly this order.
type ComponentSpec struct {
	Kind   ComponentKind
	Type   string
	Doc    string
	Params []ParamSpec
}

// Param returns the parameter spec with the given name, if any.
func (c *ComponentSpec) Param(name string) (*ParamSpec, bool) {
	for i := range c.Params {
		if c.Params[i].Name == name {
			return &c.Params[i], true
		}
	}
	return nil, false
}

// Method-level defaults applied outside the type-keyed parameter block.
const (
	DefaultModelSelectionCV     = false
	DefaultModelSelectionNFolds = -1
)

// Instruction-level defaults.
const (
	DefaultStrategy          = string(airr.SearchGridSearch)
	DefaultRefitOptimalModel = false
	DefaultNumberOfProcesses = 1
	DefaultOutputFormat      = string(airr.OutputHTML)
)

// Split-level defaults, used both to synthesize absent assessment/selection
// blocks and to fill gaps in present ones.
const (
	DefaultSplitStrategy      = string(airr.SplitRandom)
	DefaultSplitCount         = 1
	DefaultTrainingPercentage = 0.7
)

// Registry is the set of known component types, indexed for lookup. The
// canonical instance comes from GetRegistry.
type Registry struct {
	Specs []ComponentSpec

	byKey map[string]*ComponentSpec
}

func registryKey(kind ComponentKind, typ string) string {
	return string(kind) + "\x00" + strings.ToLower(typ)
}

// Lookup resolves a component type within a section, matching the type name
// case-insensitively. The returned spec carries the canonical spelling.
func (r *Registry) Lookup(kind ComponentKind, typ string) (*ComponentSpec, bool) {
	spec, ok := r.byKey[registryKey(kind, typ)]
	return spec, ok
}

// Types lists the canonical type names registered for a section, in
// declaration order.
func (r *Registry) Types(kind ComponentKind) []string {
	var out []string
	for i := range r.Specs {
		if r.Specs[i].Kind == kind {
			out = append(out, r.Specs[i].Type)
		}
	}
	return out
}

// Validate checks internal consistency: unique (kind, type) pairs, unique
// parameter names, defaults matching their declared kind, enum defaults
// inside the allowed set. Run by tests so schema drift fails fast.
func (r *Registry) Validate() error {
	seen := make(map[string]struct{}, len(r.Specs))
	for i := range r.Specs {
		cs := &r.Specs[i]
		key := registryKey(cs.Kind, cs.Type)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate component spec %s/%s", cs.Kind, cs.Type)
		}
		seen[key] = struct{}{}

		params := make(map[string]struct{}, len(cs.Params))
		for j := range cs.Params {
			p := &cs.Params[j]
			if _, dup := params[p.Name]; dup {
				return fmt.Errorf("%s/%s: duplicate param %q", cs.Kind, cs.Type, p.Name)
			}
			params[p.Name] = struct{}{}

			if p.Required && p.Default != nil {
				return fmt.Errorf("%s/%s: param %q is required but has a default", cs.Kind, cs.Type, p.Name)
			}
			if p.Default != nil {
				if err := checkDefaultKind(p.Kind, p.Default); err != nil {
					return fmt.Errorf("%s/%s: param %q: %w", cs.Kind, cs.Type, p.Name, err)
				}
			}
			if len(p.Allowed) > 0 {
				if err := checkAllowedDefault(p); err != nil {
					return fmt.Errorf("%s/%s: param %q: %w", cs.Kind, cs.Type, p.Name, err)
				}
			}
		}
	}
	return nil
}

func checkDefaultKind(kind ParamKind, def any) error {
	ok := false
	switch kind {
	case KindString, KindPath:
		_, ok = def.(string)
	case KindBool:
		_, ok = def.(bool)
	case KindInt:
		_, ok = def.(int)
	case KindFloat:
		_, ok = def.(float64)
	case KindStringList:
		_, ok = def.([]string)
	case KindIntList:
		_, ok = def.([]int)
	case KindStringMap:
		_, ok = def.(map[string]string)
	}
	if !ok {
		return fmt.Errorf("default %v (%T) does not match kind %s", def, def, kind)
	}
	return nil
}

func checkAllowedDefault(p *ParamSpec) error {
	inAllowed := func(v string) bool {
		for _, a := range p.Allowed {
			if strings.EqualFold(a, v) {
				return true
			}
		}
		return false
	}
	switch def := p.Default.(type) {
	case nil:
		return nil
	case string:
		if !inAllowed(def) {
			return fmt.Errorf("default %q not in allowed set %v", def, p.Allowed)
		}
	case []string:
		for _, v := range def {
			if !inAllowed(v) {
				return fmt.Errorf("default element %q not in allowed set %v", v, p.Allowed)
			}
		}
	}
	return nil
}

var (
	registryOnce sync.Once
	registry     *Registry
	registryErr  error
)

// GetRegistry returns the canonical component registry, building and
// validating it on first use.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		registry = buildRegistry()
		registryErr = registry.Validate()
	})
	return registry, registryErr
}

// airrColumnMapping maps AIRR rearrangement columns onto internal fields.
func airrColumnMapping() map[string]string {
	return map[string]string{
		"junction":        "sequences",
		"junction_aa":     "sequence_aas",
		"v_call":          "v_alleles",
		"j_call":          "j_alleles",
		"locus":           "chains",
		"duplicate_count": "counts",
		"sequence_id":     "sequence_identifiers",
	}
}

// igorColumnMapping maps IGoR output columns onto internal fields.
func igorColumnMapping() map[string]string {
	return map[string]string{
		"nt_CDR3":   "sequences",
		"seq_index": "sequence_identifiers",
	}
}

func buildRegistry() *Registry {
	r := &Registry{
		Specs: []ComponentSpec{
			{
				Kind: KindDatasetFormat,
				Type: "AIRR",
				Doc:  "Imports AIRR rearrangement TSV files, one per repertoire, listed by a metadata file.",
				Params: []ParamSpec{
					{Name: "path", Kind: KindPath, Required: true, Doc: "Directory holding the rearrangement files."},
					{Name: "metadata_file", Kind: KindPath, Doc: "CSV listing one repertoire file per row; required for repertoire datasets."},
					{Name: "is_repertoire", Kind: KindBool, Default: true, Doc: "Whether rows form repertoires (true) or a flat sequence set."},
					{Name: "separator", Kind: KindString, Default: "\t", Doc: "Column separator of the data files."},
					{Name: "region_type", Kind: KindString, Default: string(airr.RegionIMGTCDR3), Allowed: airr.RegionTypes(), Doc: "Receptor sequence region to extract."},
					{Name: "import_productive", Kind: KindBool, Default: true, Doc: "Import sequences flagged productive."},
					{Name: "import_with_stop_codon", Kind: KindBool, Default: false, Doc: "Import sequences containing stop codons."},
					{Name: "import_out_of_frame", Kind: KindBool, Default: false, Doc: "Import out-of-frame sequences."},
					{Name: "import_illegal_characters", Kind: KindBool, Default: false, Doc: "Import sequences with characters outside the alphabet."},
					{Name: "import_empty_nt_sequences", Kind: KindBool, Default: true, Doc: "Keep rows whose nucleotide sequence is empty."},
					{Name: "import_empty_aa_sequences", Kind: KindBool, Default: false, Doc: "Keep rows whose amino acid sequence is empty."},
					{Name: "column_mapping", Kind: KindStringMap, Default: airrColumnMapping(), Doc: "Source column to internal field mapping."},
					{Name: "result_path", Kind: KindPath, Doc: "Where the imported binary dataset is cached."},
				},
			},
			{
				Kind: KindDatasetFormat,
				Type: "IGoR",
				Doc:  "Imports IGoR generation output CSV files (no gene call or amino acid columns).",
				Params: []ParamSpec{
					{Name: "path", Kind: KindPath, Required: true, Doc: "Directory holding the IGoR output files."},
					{Name: "metadata_file", Kind: KindPath, Doc: "CSV listing one repertoire file per row; required for repertoire datasets."},
					{Name: "is_repertoire", Kind: KindBool, Default: true, Doc: "Whether rows form repertoires (true) or a flat sequence set."},
					{Name: "separator", Kind: KindString, Default: ",", Doc: "Column separator of the data files."},
					{Name: "region_type", Kind: KindString, Default: string(airr.RegionIMGTCDR3), Allowed: airr.RegionTypes(), Doc: "Receptor sequence region to extract."},
					{Name: "import_with_stop_codon", Kind: KindBool, Default: false, Doc: "Import sequences whose translation contains stop codons."},
					{Name: "import_out_of_frame", Kind: KindBool, Default: false, Doc: "Import sequences whose length is not a codon multiple."},
					{Name: "import_illegal_characters", Kind: KindBool, Default: false, Doc: "Import sequences with characters outside the alphabet."},
					{Name: "import_empty_nt_sequences", Kind: KindBool, Default: true, Doc: "Keep rows whose nucleotide sequence is empty."},
					{Name: "column_mapping", Kind: KindStringMap, Default: igorColumnMapping(), Doc: "Source column to internal field mapping."},
					{Name: "result_path", Kind: KindPath, Doc: "Where the imported binary dataset is cached."},
				},
			},
			{
				Kind: KindEncoding,
				Type: "KmerFrequency",
				Doc:  "Represents each example by normalized frequencies of its k-mer subsequences.",
				Params: []ParamSpec{
					{Name: "k", Kind: KindInt, Default: 3, Doc: "Subsequence length."},
					{Name: "k_left", Kind: KindInt, Default: 0, Doc: "Left k-mer length for gapped encodings."},
					{Name: "k_right", Kind: KindInt, Default: 0, Doc: "Right k-mer length for gapped encodings."},
					{Name: "min_gap", Kind: KindInt, Default: 0, Doc: "Minimum gap size for gapped encodings."},
					{Name: "max_gap", Kind: KindInt, Default: 0, Doc: "Maximum gap size for gapped encodings."},
					{Name: "sequence_encoding", Kind: KindString, Default: string(airr.EncodingContinuousKmer), Allowed: airr.SequenceEncodings(), Doc: "How sequences decompose into k-mers."},
					{Name: "reads", Kind: KindString, Default: "unique", Allowed: []string{"unique", "all"}, Doc: "Count each clone once (unique) or per duplicate (all)."},
					{Name: "normalization_type", Kind: KindString, Default: "relative_frequency", Allowed: []string{"relative_frequency", "l2", "none"}, Doc: "Normalization applied to the k-mer count vector."},
					{Name: "scale_to_unit_variance", Kind: KindBool, Default: true, Doc: "Scale the feature matrix to unit variance."},
					{Name: "scale_to_zero_mean", Kind: KindBool, Default: true, Doc: "Center the feature matrix to zero mean."},
				},
			},
			{
				Kind: KindMLMethod,
				Type: "LogisticRegression",
				Doc:  "Binary classifier with L1/L2 regularization over encoded repertoires.",
				Params: []ParamSpec{
					{Name: "C", Kind: KindFloat, Default: 1.0, Doc: "Inverse regularization strength."},
					{Name: "penalty", Kind: KindString, Default: "l1", Allowed: []string{"l1", "l2"}, Doc: "Regularization norm."},
					{Name: "max_iter", Kind: KindInt, Default: 1000, Doc: "Upper bound on solver iterations."},
					{Name: "class_weight", Kind: KindString, Default: "balanced", Allowed: []string{"balanced", "none"}, Doc: "Class weighting scheme."},
				},
			},
			{
				Kind: KindReport,
				Type: "Coefficients",
				Doc:  "Plots the largest trained model coefficients per setting.",
				Params: []ParamSpec{
					{Name: "coefs_to_plot", Kind: KindStringList, Default: []string{"n_largest"}, Allowed: []string{"all", "nonzero", "cutoff", "n_largest"}, Doc: "Which coefficient subsets to plot."},
					{Name: "cutoff", Kind: KindIntList, Doc: "Absolute-value thresholds, required when coefs_to_plot includes cutoff."},
					{Name: "n_largest", Kind: KindIntList, Default: []int{25}, Doc: "How many top coefficients to plot, used when coefs_to_plot includes n_largest."},
				},
			},
			{
				Kind: KindReport,
				Type: "MLSettingsPerformance",
				Doc:  "Tabulates per-setting performance over the search.",
				Params: []ParamSpec{
					{Name: "single_axis_labels", Kind: KindBool, Default: false, Doc: "Merge axis labels into a single label row."},
				},
			},
			{
				Kind: KindReport,
				Type: "SequenceLengthDistribution",
				Doc:  "Histograms sequence lengths across the dataset.",
				Params: []ParamSpec{
					{Name: "sequence_type", Kind: KindString, Default: string(airr.SequenceAminoAcid), Allowed: airr.SequenceTypes(), Doc: "Which sequence form to measure."},
				},
			},
			{
				Kind: KindPreprocessing,
				Type: "ClonesPerRepertoireFilter",
				Doc:  "Drops repertoires whose clone count falls outside the limits.",
				Params: []ParamSpec{
					{Name: "lower_limit", Kind: KindInt, Default: -1, Doc: "Minimum clone count; -1 disables the bound."},
					{Name: "upper_limit", Kind: KindInt, Default: -1, Doc: "Maximum clone count; -1 disables the bound."},
				},
			},
			{
				Kind: KindPreprocessing,
				Type: "CountPerSequenceFilter",
				Doc:  "Drops sequences whose duplicate count is below the limit.",
				Params: []ParamSpec{
					{Name: "low_count_limit", Kind: KindInt, Default: 1, Doc: "Minimum duplicate count to keep a sequence."},
					{Name: "remove_without_count", Kind: KindBool, Default: true, Doc: "Drop sequences lacking count information."},
					{Name: "remove_empty", Kind: KindBool, Default: false, Doc: "Drop repertoires left empty by filtering."},
				},
			},
		},
	}

	r.byKey = make(map[string]*ComponentSpec, len(r.Specs))
	for i := range r.Specs {
		r.byKey[registryKey(r.Specs[i].Kind, r.Specs[i].Type)] = &r.Specs[i]
	}
	return r
}
