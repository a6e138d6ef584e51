// SPDX-License-Identifier: MIT

package airr

import (
	"fmt"
	"strings"

	"github.com/airrkit/airrspec/internal/normalize"
)

// SplitStrategy names how a dataset is divided into training and test parts.
type SplitStrategy string

const (
	SplitRandom          SplitStrategy = "random"
	SplitKFold           SplitStrategy = "k_fold"
	SplitStratifiedKFold SplitStrategy = "stratified_k_fold"
	SplitLOOCV           SplitStrategy = "loocv"
	SplitManual          SplitStrategy = "manual"
)

// SplitStrategies lists all valid split strategy values.
func SplitStrategies() []string {
	return []string{
		string(SplitRandom),
		string(SplitKFold),
		string(SplitStratifiedKFold),
		string(SplitLOOCV),
		string(SplitManual),
	}
}

// IsValid checks if the split strategy is valid
func (s SplitStrategy) IsValid() bool {
	switch s {
	case SplitRandom, SplitKFold, SplitStratifiedKFold, SplitLOOCV, SplitManual:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (s SplitStrategy) String() string {
	return string(s)
}

// RequiresTrainingPercentage reports whether the strategy needs an explicit
// training fraction. Fold-based strategies derive the partition from the
// fold count instead.
func (s SplitStrategy) RequiresTrainingPercentage() bool {
	return s == SplitRandom
}

// ParseSplitStrategy parses a string into a SplitStrategy, ignoring case.
func ParseSplitStrategy(raw string) (SplitStrategy, error) {
	s := SplitStrategy(normalize.Token(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown split strategy %q (allowed: %s)", raw, strings.Join(SplitStrategies(), ", "))
	}
	return s, nil
}

// SearchStrategy names how the settings grid is explored when optimizing
// hyperparameter combinations.
type SearchStrategy string

// SearchGridSearch exhaustively evaluates every listed setting.
const SearchGridSearch SearchStrategy = "GridSearch"

// SearchStrategies lists all valid search strategy values.
func SearchStrategies() []string {
	return []string{string(SearchGridSearch)}
}

// IsValid checks if the search strategy is valid
func (s SearchStrategy) IsValid() bool {
	return s == SearchGridSearch
}

// String returns the string representation
func (s SearchStrategy) String() string {
	return string(s)
}

// ParseSearchStrategy parses a string into a SearchStrategy. The canonical
// CamelCase spelling is matched case-insensitively.
func ParseSearchStrategy(raw string) (SearchStrategy, error) {
	trimmed := normalize.Trim(raw)
	for _, known := range SearchStrategies() {
		if strings.EqualFold(trimmed, known) {
			return SearchStrategy(known), nil
		}
	}
	return "", fmt.Errorf("unknown search strategy %q (allowed: %s)", raw, strings.Join(SearchStrategies(), ", "))
}

// InstructionType names a supported instruction.
type InstructionType string

// InstructionTrainMLModel trains and selects ML models over a labelled dataset.
const InstructionTrainMLModel InstructionType = "TrainMLModel"

// InstructionTypes lists all valid instruction type values.
func InstructionTypes() []string {
	return []string{string(InstructionTrainMLModel)}
}

// IsValid checks if the instruction type is valid
func (t InstructionType) IsValid() bool {
	return t == InstructionTrainMLModel
}

// String returns the string representation
func (t InstructionType) String() string {
	return string(t)
}

// ParseInstructionType parses a string into an InstructionType.
func ParseInstructionType(raw string) (InstructionType, error) {
	trimmed := normalize.Trim(raw)
	for _, known := range InstructionTypes() {
		if strings.EqualFold(trimmed, known) {
			return InstructionType(known), nil
		}
	}
	return "", fmt.Errorf("unknown instruction type %q (allowed: %s)", raw, strings.Join(InstructionTypes(), ", "))
}

// OutputFormat names a supported result output format.
type OutputFormat string

// OutputHTML is the only rendering target the pipeline emits.
const OutputHTML OutputFormat = "HTML"

// OutputFormats lists all valid output format values.
func OutputFormats() []string {
	return []string{string(OutputHTML)}
}

// IsValid checks if the output format is valid
func (f OutputFormat) IsValid() bool {
	return f == OutputHTML
}

// String returns the string representation
func (f OutputFormat) String() string {
	return string(f)
}

// ParseOutputFormat parses a string into an OutputFormat, ignoring case.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	trimmed := normalize.Trim(raw)
	for _, known := range OutputFormats() {
		if strings.EqualFold(trimmed, known) {
			return OutputFormat(known), nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (allowed: %s)", raw, strings.Join(OutputFormats(), ", "))
}
