// SPDX-License-Identifier: MIT

// Package fsutil guards filesystem access against paths that escape a
// configured root, including escapes through symlinks.
package fsutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot reports a path whose resolved target lies outside the root
// it must stay under.
var ErrOutsideRoot = errors.New("path escapes root")

// ResolveRoot canonicalizes a root directory: symlinks resolved, path
// cleaned. Confinement checks compare against this form, so a root that is
// itself a symlink does not make every file under it look like an escape.
func ResolveRoot(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// ConfineToRoot resolves path through symlinks and verifies the target stays
// underneath root. root must already be in ResolveRoot form. On success it
// returns the resolved absolute path and its root-relative form; a target
// outside root returns an error wrapping ErrOutsideRoot.
func ConfineToRoot(root, path string) (resolved, rel string, err error) {
	resolved, err = filepath.EvalSymlinks(path)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", path, err)
	}
	rel, err = filepath.Rel(root, resolved)
	if err != nil || escapes(rel) {
		return "", "", fmt.Errorf("%s resolves to %s: %w", path, resolved, ErrOutsideRoot)
	}
	return resolved, rel, nil
}

// escapes reports whether a Rel result points above its base. The check is
// segment-based so a filename that merely starts with dots passes.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
