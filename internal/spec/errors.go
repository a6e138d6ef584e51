// SPDX-License-Identifier: MIT

package spec

import "errors"

var (
	// ErrUnknownField classifies strict parse failures caused by keys the
	// schema does not know. Use errors.Is(err, ErrUnknownField) instead of
	// string matching.
	ErrUnknownField = errors.New("unknown field")

	// ErrDuplicateKey classifies documents that define the same mapping key
	// twice.
	ErrDuplicateKey = errors.New("duplicate mapping key")

	// ErrMultipleDocuments classifies files that contain more than one YAML
	// document. A spec file holds exactly one.
	ErrMultipleDocuments = errors.New("multiple YAML documents")

	// ErrEmptyDocument classifies empty or comment-only spec files.
	ErrEmptyDocument = errors.New("empty document")

	// ErrNotMapping classifies nodes that must be mappings but are not.
	ErrNotMapping = errors.New("expected a mapping")

	// ErrUnsupportedExtension classifies spec paths without a .yaml/.yml
	// extension.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrUnknownComponent classifies references to component types missing
	// from the registry.
	ErrUnknownComponent = errors.New("unknown component type")
)
