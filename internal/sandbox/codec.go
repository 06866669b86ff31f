// Package sandbox defines the boundary between a Worker and the sandboxed
// compute unit it hosts. The compute unit itself (a linear-memory module
// loaded from a ModelSpec.File) is an external collaborator; this package
// specifies only the string-array ABI at that boundary and ships a stub
// Module plus an in-memory reference Module used by tests.
package sandbox

import (
	"fmt"
	"sort"
	"strconv"
)

// Pair is one (key, value) entry of the ABI's two-dimensional string array.
type Pair [2]string

// ToPairs lowers a domain object to [[key, string(value)], ...], keeping
// only fields of type string, number, or boolean. Non-scalar fields
// (slices, maps, nested structs, funcs, channels) are dropped. This is
// stricter than the deep-copy boundary in internal/router, whose JSON
// round trip keeps nested maps and slices: the ABI can only carry what a
// host can losslessly stringify and a guest can losslessly parse back.
func ToPairs(v map[string]any) []Pair {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		s, ok := scalarString(v[k])
		if !ok {
			continue
		}
		out = append(out, Pair{k, s})
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	default:
		return "", false
	}
}

// FromPairs lifts the ABI's string pairs back into a domain object. Each
// value is coerced in a fixed order: integer parse, then float parse, then
// boolean match, then string fallback.
func FromPairs(pairs []Pair) map[string]any {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		out[p[0]] = coerce(p[1])
	}
	return out
}

func coerce(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// String implements fmt.Stringer for debugging/logging.
func (p Pair) String() string { return fmt.Sprintf("%s=%s", p[0], p[1]) }
