// Package decode converts untyped document field maps into typed values.
// Required fields fail with a FieldError; optional fields tolerate absence
// and shape drift, resolving to "unset" instead of failing the document.
package decode

import (
	"fmt"
	"time"

	"agency-data-service/internal/timeutil"
)

// FieldError reports a required field that is missing or of the wrong shape.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &FieldError{Field: field, Reason: "missing or empty"}
}

func badShape(field string, value any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf("unexpected shape %T", value)}
}

// String extracts a required non-empty string field.
func String(fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", missing(key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", badShape(key, raw)
	}
	if s == "" {
		return "", missing(key)
	}
	return s, nil
}

// OptionalString extracts a string field, resolving to "" when absent
// or of an unexpected shape.
func OptionalString(fields map[string]any, key string) string {
	if raw, ok := fields[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

// StringList normalizes a field that has been stored both as a single
// string and as a list of strings over the application's lifetime.
// Non-string elements are dropped; absence resolves to nil.
func StringList(fields map[string]any, key string) []string {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

// OptionalTime extracts a timestamp stored as time.Time, RFC 3339, or a
// bare YYYY-MM-DD date. Returns nil when absent or unparseable.
func OptionalTime(fields map[string]any, key string) *time.Time {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case time.Time:
		return &v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
		if t, err := timeutil.ParseDate(v); err == nil {
			return &t
		}
		return nil
	default:
		return nil
	}
}

// OptionalFloat extracts a numeric field stored under any of Go's common
// JSON/driver numeric types. Returns nil when absent or non-numeric.
func OptionalFloat(fields map[string]any, key string) *float64 {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

// OptionalInt extracts an integer field. Float values with no fractional
// part are accepted since JSON decoding produces float64.
func OptionalInt(fields map[string]any, key string) *int {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case int:
		return &v
	case int64:
		i := int(v)
		return &i
	case float64:
		i := int(v)
		if float64(i) == v {
			return &i
		}
		return nil
	default:
		return nil
	}
}

// OptionalBool extracts a boolean field, resolving to false when absent.
func OptionalBool(fields map[string]any, key string) bool {
	if raw, ok := fields[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return false
}
