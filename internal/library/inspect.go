// SPDX-License-Identifier: MIT

package library

import (
	"errors"
	"sort"

	"github.com/airrkit/airrspec/internal/spec"
	"github.com/airrkit/airrspec/internal/validate"
)

// inspection summarizes what the indexer learned about one spec file.
type inspection struct {
	Valid        bool
	Datasets     int
	Encodings    int
	MLMethods    int
	Reports      int
	Instructions int
	Labels       []string
	WarningCount int
	FirstError   string
}

// inspectSpec parses and validates raw YAML and reduces the outcome to the
// columns the library stores. Parse and validation failures are recorded on
// the inspection rather than returned; an unparseable file is still an item.
func inspectSpec(data []byte) inspection {
	doc, err := spec.Parse(data)
	if err != nil {
		return inspection{FirstError: err.Error()}
	}

	s := doc.Spec()
	ins := inspection{Instructions: len(s.Instructions)}
	if s.Definitions != nil {
		ins.Datasets = len(s.Definitions.Datasets)
		ins.Encodings = len(s.Definitions.Encodings)
		ins.MLMethods = len(s.Definitions.MLMethods)
		ins.Reports = len(s.Definitions.Reports)
	}
	ins.Labels = labelNames(s)

	warns, err := spec.Validate(doc)
	ins.WarningCount = len(warns)
	if err != nil {
		ins.FirstError = firstValidationError(err)
		return ins
	}
	ins.Valid = true
	return ins
}

// labelNames collects the distinct label names referenced by instructions.
func labelNames(s *spec.Spec) []string {
	set := make(map[string]struct{})
	for _, in := range s.Instructions {
		for _, l := range in.Labels {
			set[l.Name] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// firstValidationError picks one representative message from a validation
// failure for the first_error column.
func firstValidationError(err error) string {
	var verr validate.ValidationError
	if errors.As(err, &verr) {
		if errs := verr.Errors(); len(errs) > 0 {
			return errs[0].Error()
		}
	}
	return err.Error()
}
