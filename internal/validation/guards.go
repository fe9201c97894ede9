// guards.go holds small nil and blank checks used when decoding optional
// request fields.
package validation

import "strings"

// NotEmpty reports whether v is non-nil. Useful as a filter predicate.
func NotEmpty[T any](v *T) bool {
	return v != nil
}

// Compact drops nil elements and dereferences the rest.
func Compact[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if NotEmpty(v) {
			out = append(out, *v)
		}
	}
	return out
}

// AsOptionalField returns nil for an empty or whitespace-only string and a
// pointer to the trimmed value otherwise.
func AsOptionalField(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
