// SPDX-License-Identifier: MIT

package config

import (
	"reflect"
	"strings"
)

// secretMarkers are substrings that flag a field or key as sensitive. The
// match is case-insensitive, so API.Token, redis password keys and anything
// an operator adds under a *_secret name all mask the same way.
var secretMarkers = []string{
	"password", "passwd", "secret", "token", "apikey", "api_key", "credential",
}

func sensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range secretMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// MaskSecrets returns a copy of data safe to log: every value reachable
// under a sensitive field or key name is replaced with "***". Structs and
// maps become map[string]any, slices become []any, everything else passes
// through unchanged. Masking keys by name rather than inspecting values
// means an empty token still shows as masked, never as absent.
func MaskSecrets(data any) any {
	if data == nil {
		return nil
	}
	return scrub(reflect.ValueOf(data))
}

func scrub(val reflect.Value) any {
	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		out := make(map[string]any, val.NumField())
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			if sensitiveName(field.Name) {
				out[field.Name] = "***"
				continue
			}
			out[field.Name] = scrub(val.Field(i))
		}
		return out

	case reflect.Map:
		out := make(map[string]any, val.Len())
		for iter := val.MapRange(); iter.Next(); {
			key := iter.Key().String()
			if sensitiveName(key) {
				out[key] = "***"
				continue
			}
			out[key] = scrub(iter.Value())
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, val.Len())
		for i := range out {
			out[i] = scrub(val.Index(i))
		}
		return out

	default:
		// Scalars carry no name of their own; only a sensitive field or
		// key above them can mask them.
		return val.Interface()
	}
}
