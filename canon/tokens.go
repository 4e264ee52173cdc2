package canon

import (
	"fmt"
	"sort"
	"strings"
)

// Tokens is a flattened design token table. Nested groups are addressed with
// dotted paths, "colors.primary" or "space.4".
type Tokens struct {
	values map[string]any
	groups map[string]bool
}

// NewTokens flattens nested token mapping.
func NewTokens(tree map[string]any) Tokens {
	t := Tokens{values: map[string]any{}, groups: map[string]bool{}}
	for group, v := range tree {
		t.groups[group] = true
		t.flatten(group, v)
	}
	return t
}

func (t Tokens) flatten(prefix string, v any) {
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			t.flatten(prefix+"."+k, val)
		}
	case map[any]any:
		for k, val := range m {
			t.flatten(prefix+"."+fmt.Sprint(k), val)
		}
	default:
		t.values[prefix] = v
	}
}

// Len returns number of leaf tokens.
func (t Tokens) Len() int {
	return len(t.values)
}

// Paths returns sorted token paths.
func (t Tokens) Paths() []string {
	paths := make([]string, 0, len(t.values))
	for p := range t.values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsReference reports whether string looks like a token path: no whitespace,
// at least one dot and the first segment names a known group.
func (t Tokens) IsReference(s string) bool {
	if len(t.groups) == 0 || strings.ContainsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' }) {
		return false
	}
	group, rest, ok := strings.Cut(s, ".")
	return ok && rest != "" && t.groups[group]
}

// Lookup resolves token path.
func (t Tokens) Lookup(path string) (any, bool) {
	v, ok := t.values[path]
	return v, ok
}
