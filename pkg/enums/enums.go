// Package enums holds the string enums shared by models, services and the
// Postgres enum types they map onto.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

func oneOf[T ~string](value T, allowed []T) bool {
	return slices.Contains(allowed, value)
}

// parse matches raw against allowed. Lenient parsing trims and lower-cases
// the input first.
func parse[T ~string](kind, raw string, allowed []T, lenient bool) (T, error) {
	candidate := raw
	if lenient {
		candidate = strings.ToLower(strings.TrimSpace(raw))
	}
	if v := T(candidate); oneOf(v, allowed) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
