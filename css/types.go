// Package css has a minimal rule model used for generated atomic stylesheets
// and a reader for existing stylesheets. It is not a general CSS object model,
// rules are kept as compact text fragments so they can be emitted unchanged.
package css

import (
	"io"
	"strings"
)

// Declaration is a single "property:value" pair. Value is kept as written,
// including priority flag.
type Declaration struct {
	Property string
	Value    string
}

func (d Declaration) String() string {
	return d.Property + ":" + d.Value
}

// RuleKind tells how rule is rendered.
type RuleKind int

const (
	KindStyle     RuleKind = iota // selector{declarations}
	KindAtBlock                   // @font-face{...}, @keyframes x{...}
	KindStatement                 // @import url(a.css);
)

// Rule is a single style rule optionally nested into conditional at-rules.
type Rule struct {
	Kind RuleKind
	// Wrappers are enclosing conditional at-rules, outermost first:
	// "@media (min-width:768px)".
	Wrappers []string
	// Selector of style rules, ".a1b2:hover" or "h1,h2".
	Selector     string
	Declarations []Declaration
	// AtRule is the prelude of selectorless at-rules, "@font-face" or
	// "@import url(a.css)".
	AtRule string
	// Body is raw content of selectorless block at-rules.
	Body string
}

// NewRule creates style rule.
func NewRule(selector string, wrappers []string, decls ...Declaration) Rule {
	return Rule{Kind: KindStyle, Selector: selector, Wrappers: wrappers, Declarations: decls}
}

// String renders rule in compact form, identical input gives identical text.
func (r Rule) String() string {
	var b strings.Builder
	r.write(&b)
	return b.String()
}

func (r Rule) write(b *strings.Builder) {
	for _, w := range r.Wrappers {
		b.WriteString(w)
		b.WriteByte('{')
	}
	switch r.Kind {
	case KindStyle:
		b.WriteString(r.Selector)
		b.WriteByte('{')
		for i, d := range r.Declarations {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(d.Property)
			b.WriteByte(':')
			b.WriteString(d.Value)
		}
		b.WriteByte('}')
	case KindAtBlock:
		b.WriteString(r.AtRule)
		b.WriteByte('{')
		b.WriteString(r.Body)
		b.WriteByte('}')
	case KindStatement:
		b.WriteString(r.AtRule)
		b.WriteByte(';')
	}
	for range r.Wrappers {
		b.WriteByte('}')
	}
}

// AtRuleNames returns lowercase names of all at-rules involved in the rule,
// wrappers first: "media", "supports", "font-face".
func (r Rule) AtRuleNames() []string {
	var names []string
	for _, w := range r.Wrappers {
		names = append(names, atRuleName(w))
	}
	if r.Kind != KindStyle {
		names = append(names, atRuleName(r.AtRule))
	}
	return names
}

func atRuleName(prelude string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(prelude, "@"), " ")
	if i := strings.IndexAny(name, "({"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// Stylesheet is a sequence of rules in source order.
type Stylesheet struct {
	Rules    []Rule
	Warnings []string
}

// WriteTo writes rules one per line, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, r := range s.Rules {
		text := r.String()
		if i < len(s.Rules)-1 {
			text += "\n"
		}
		n, err := io.WriteString(w, text)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// RulesBySelector returns all style rules with exactly matching selector.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, r := range s.Rules {
		if r.Kind == KindStyle && r.Selector == selector {
			matches = append(matches, r)
		}
	}
	return matches
}

// Join renders rules newline separated.
func Join(rules []Rule) string {
	var b strings.Builder
	for i, r := range rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		r.write(&b)
	}
	return b.String()
}
