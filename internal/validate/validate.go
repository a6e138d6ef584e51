// SPDX-License-Identifier: MIT

// Package validate provides error-accumulating validation utilities shared by
// the analysis spec checker and the daemon configuration loader.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error represents a single validation error
type Error struct {
	Field   string      // Field path that failed validation (dotted)
	Value   interface{} // The invalid value
	Message string      // Human-readable error message
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{
		errors: make([]Error, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string, value interface{}) {
	v.errors = append(v.errors, Error{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}

	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)

	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}

	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}

	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// NotEmpty validates that a string is not empty or whitespace-only
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "value cannot be empty", value)
	}
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field,
		fmt.Sprintf("value must be one of %v, got %q", allowed, value),
		value)
}

// Positive validates that a number is positive (> 0)
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("value must be positive, got %d", value), value)
	}
}

// NonNegative validates that a number is non-negative (>= 0)
func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("value cannot be negative, got %d", value), value)
	}
}

// Range validates that an integer is within a specified range (inclusive)
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.AddError(field,
			fmt.Sprintf("value must be between %d and %d, got %d", minVal, maxVal, value),
			value)
	}
}

// Fraction validates that a value lies strictly inside the open interval (0, 1).
// Used for split ratios, sampling rates and similar proportions where both
// endpoints would leave one side of the split empty.
func (v *Validator) Fraction(field string, value float64) {
	if value <= 0 || value >= 1 {
		v.AddError(field,
			fmt.Sprintf("value must be strictly between 0 and 1, got %g", value),
			value)
	}
}

// Port validates a port number (1-65535)
func (v *Validator) Port(field string, port int) {
	if port <= 0 || port > 65535 {
		v.AddError(field,
			fmt.Sprintf("port must be between 1 and 65535, got %d", port),
			port)
	}
}

// Custom allows custom validation logic
// The validator function should return an error if validation fails
func (v *Validator) Custom(field string, value interface{}, validator func(interface{}) error) {
	if err := validator(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}

// pathForbidden contains characters that are invalid in a path on at least one
// supported platform. Checked on both separator styles.
const pathForbidden = "<>\"|?*"

// PathSyntax validates that a string is a syntactically plausible file or
// directory path. Both forward slashes and backslashes are accepted as
// separators since spec files written on Windows machines routinely carry
// backslash paths. The target is NOT required to exist; only the shape of
// the string is checked.
func (v *Validator) PathSyntax(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "path cannot be empty", value)
		return
	}
	if strings.ContainsRune(value, '\x00') {
		v.AddError(field, "path contains NUL byte", value)
		return
	}
	if strings.ContainsAny(value, pathForbidden) {
		v.AddError(field,
			fmt.Sprintf("path contains forbidden characters (%s)", pathForbidden),
			value)
		return
	}

	// Normalise both separator styles before structural checks.
	norm := strings.ReplaceAll(value, `\`, "/")

	// Strip a Windows drive prefix ("C:") so the segment check below does not
	// flag the colon form as a degenerate segment. UNC prefixes ("//server")
	// are reduced to a single leading separator.
	rest := norm
	if len(rest) >= 2 && rest[1] == ':' && isDriveLetter(rest[0]) {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "//") {
		rest = rest[1:]
	}
	if strings.ContainsRune(rest, ':') {
		v.AddError(field, "path contains a colon outside a drive prefix", value)
		return
	}

	// Directory paths may carry a trailing separator.
	rest = strings.TrimSuffix(rest, "/")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return // bare root or drive root
	}
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" {
			v.AddError(field, "path contains an empty segment", value)
			return
		}
		if strings.TrimSpace(seg) == "" {
			v.AddError(field, "path contains a blank segment", value)
			return
		}
	}
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Directory validates a directory path
// If mustExist is true, the directory must already exist
// If mustExist is false, the directory will be created if it doesn't exist
func (v *Validator) Directory(field, path string, mustExist bool) {
	if path == "" {
		v.AddError(field, "directory path cannot be empty", path)
		return
	}

	if strings.Contains(path, "..") {
		v.AddError(field, "path contains traversal sequences (..)", path)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid path: %v", err), path)
		return
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				v.AddError(field, "directory does not exist", path)
				return
			}
			if err := os.MkdirAll(absPath, 0750); err != nil {
				v.AddError(field, fmt.Sprintf("cannot create directory: %v", err), path)
				return
			}
			return
		}
		v.AddError(field, fmt.Sprintf("cannot access directory: %v", err), path)
		return
	}

	if !info.IsDir() {
		v.AddError(field, "path is not a directory", path)
	}
}
