package style

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// DefaultPseudoPrefix marks pseudo-state keys, "_hover" or "_focusVisible".
const DefaultPseudoPrefix = "_"

// BaseBreakpoint is the implicit breakpoint which never produces a wrapper.
const BaseBreakpoint = "base"

// pseudoElements are rendered with double colon.
var pseudoElements = map[string]bool{
	"before":               true,
	"after":                true,
	"placeholder":          true,
	"selection":            true,
	"marker":               true,
	"first-line":           true,
	"first-letter":         true,
	"backdrop":             true,
	"file-selector-button": true,
}

// Vocabulary tells parser how to interpret nested keys.
type Vocabulary struct {
	// PseudoPrefix marks pseudo-state keys, DefaultPseudoPrefix when empty.
	PseudoPrefix string
	// Breakpoints maps breakpoint name to its media query ("(min-width: 768px)").
	Breakpoints map[string]string
	// IsProperty reports whether key names a property or a property alias.
	// Nested mapping under such key is a malformed object rather than an
	// at-rule block. When nil every unknown nested key becomes an at-rule.
	IsProperty func(key string) bool
}

// Problem describes a key parser was unable to interpret.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Message
}

// Parse converts style object into tree. Keys are visited in sorted order so
// the result does not depend on map iteration order.
func Parse(obj Object, vocab Vocabulary) ([]Node, []Problem) {
	p := parser{vocab: vocab}
	if p.vocab.PseudoPrefix == "" {
		p.vocab.PseudoPrefix = DefaultPseudoPrefix
	}
	nodes := p.parseObject(nil, obj)
	return nodes, p.problems
}

type parser struct {
	vocab    Vocabulary
	problems []Problem
}

func (p *parser) problem(path []string, key, format string, args ...any) {
	p.problems = append(p.problems, Problem{Path: JoinPath(path, key), Message: fmt.Sprintf(format, args...)})
}

func (p *parser) parseObject(path []string, obj Object) []Node {
	if len(obj) == 0 {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]Node, 0, len(keys))
	for _, key := range keys {
		if n, ok := p.parseEntry(path, key, obj[key]); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (p *parser) parseEntry(path []string, key string, value any) (Node, bool) {
	if strings.TrimSpace(key) == "" {
		p.problem(path, key, "empty key")
		return Node{}, false
	}

	nested, isObject := asObject(value)
	if !isObject {
		if value == nil {
			// null and undefined leaves produce nothing
			return Node{}, false
		}
		if !isScalar(value) {
			p.problem(path, key, "unsupported value of type %T", value)
			return Node{}, false
		}
		if p.isBlockKey(key) {
			p.problem(path, key, "block key requires nested object, got %T", value)
			return Node{}, false
		}
		return Leaf(key, value), true
	}

	inner := append(path[:len(path):len(path)], key)
	switch {
	case strings.HasPrefix(key, "&"), strings.HasPrefix(key, ":"):
		sel := strings.TrimSpace(strings.TrimPrefix(key, "&"))
		if sel == "" {
			p.problem(path, key, "empty selector suffix")
			return Node{}, false
		}
		return Pseudo(key, sel, p.parseObject(inner, nested)...), true

	case strings.HasPrefix(key, p.vocab.PseudoPrefix) && len(key) > len(p.vocab.PseudoPrefix):
		return Pseudo(key, pseudoSelector(strings.TrimPrefix(key, p.vocab.PseudoPrefix)), p.parseObject(inner, nested)...), true

	case key == BaseBreakpoint:
		return Responsive(key, key, "", p.parseObject(inner, nested)...), true

	case strings.HasPrefix(key, "@"):
		kind, params, _ := strings.Cut(strings.TrimPrefix(key, "@"), " ")
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" {
			p.problem(path, key, "at-rule without a name")
			return Node{}, false
		}
		return AtRule(key, kind, collapseSpaces(params), p.parseObject(inner, nested)...), true
	}

	if query, ok := p.vocab.Breakpoints[key]; ok {
		return Responsive(key, key, collapseSpaces(query), p.parseObject(inner, nested)...), true
	}
	if p.vocab.IsProperty != nil && p.vocab.IsProperty(key) {
		p.problem(path, key, "property cannot hold nested object")
		return Node{}, false
	}
	// anything else is treated as media condition
	return AtRule(key, "media", collapseSpaces(key), p.parseObject(inner, nested)...), true
}

func (p *parser) isBlockKey(key string) bool {
	if strings.HasPrefix(key, "&") || strings.HasPrefix(key, ":") || strings.HasPrefix(key, "@") {
		return true
	}
	if strings.HasPrefix(key, p.vocab.PseudoPrefix) && !strings.HasPrefix(key, "--") {
		return true
	}
	if key == BaseBreakpoint {
		return true
	}
	_, ok := p.vocab.Breakpoints[key]
	return ok
}

// pseudoSelector converts "focusVisible" into ":focus-visible" and "before"
// into "::before".
func pseudoSelector(name string) string {
	kebab := KebabCase(name)
	if pseudoElements[kebab] {
		return "::" + kebab
	}
	return ":" + kebab
}

// KebabCase converts camelCase identifiers into kebab-case. Already kebab or
// custom property names are returned unchanged.
func KebabCase(s string) string {
	if strings.HasPrefix(s, "--") || !strings.ContainsFunc(s, isUpper) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if isUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func asObject(v any) (Object, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case map[any]any:
		// produced by some YAML decoders
		out := make(Object, len(o))
		for k, val := range o {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, json.Number:
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
