// SPDX-License-Identifier: MIT

// Package normalize cleans user-supplied string tokens before comparison.
// YAML pasted from rendered documentation can carry zero-width characters
// that survive TrimSpace and make an otherwise correct value unrecognizable.
package normalize

import (
	"strings"
	"unicode"
)

// invisible reports runes to strip from token edges: Unicode whitespace plus
// the zero-width characters editors and browsers insert silently.
func invisible(r rune) bool {
	return unicode.IsSpace(r) ||
		r == '\u200b' || // zero width space
		r == '\u200c' || // zero width non-joiner
		r == '\u200d' || // zero width joiner
		r == '\ufeff' // byte order mark
}

// Trim removes whitespace and invisible characters from both ends.
func Trim(s string) string {
	return strings.TrimFunc(s, invisible)
}

// Token returns the lowercase Trim form, for matching values whose canonical
// spelling is lowercase.
func Token(s string) string {
	return strings.ToLower(Trim(s))
}

// Upper returns the uppercase Trim form, for matching values whose canonical
// spelling is uppercase.
func Upper(s string) string {
	return strings.ToUpper(Trim(s))
}
