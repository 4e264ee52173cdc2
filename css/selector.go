package css

import (
	"strings"
)

// Compound is a sequence of simple selectors not separated by combinators,
// "a.btn:hover" or "*::before".
type Compound struct {
	Raw     string
	Element string   // element name or "*", empty when absent
	Classes []string // without leading dot
	IDs     []string // without leading hash
	Pseudos []string // ":hover", "::before", ":nth-child(2n)"
	Attrs   []string // "[href]"
}

// IsBare is true for element or universal selector with nothing but
// pseudo parts attached.
func (c Compound) IsBare() bool {
	return c.Element != "" && len(c.Classes) == 0 && len(c.IDs) == 0 && len(c.Attrs) == 0
}

// IsSingleClass is true for ".name" with optional pseudo parts.
func (c Compound) IsSingleClass() bool {
	return c.Element == "" && len(c.Classes) == 1 && len(c.IDs) == 0 && len(c.Attrs) == 0
}

// Tokens returns simple selectors usable for matching: element, ".class" and
// "#id", pseudo parts stripped.
func (c Compound) Tokens() []string {
	var res []string
	if c.Element != "" {
		res = append(res, c.Element)
	}
	for _, cl := range c.Classes {
		res = append(res, "."+cl)
	}
	for _, id := range c.IDs {
		res = append(res, "#"+id)
	}
	return res
}

// Complex is one entry of selector list, compounds in source order.
type Complex []Compound

// SplitList splits selector list on top level commas.
func SplitList(selector string) []string {
	var parts []string
	for _, p := range splitTopLevel(selector, func(r rune) bool { return r == ',' }) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// ParseSelector parses selector list into complex selectors.
func ParseSelector(selector string) []Complex {
	var res []Complex
	for _, item := range SplitList(selector) {
		var cx Complex
		for _, part := range splitTopLevel(item, isCombinator) {
			if part = strings.TrimSpace(part); part != "" {
				cx = append(cx, parseCompound(part))
			}
		}
		if len(cx) > 0 {
			res = append(res, cx)
		}
	}
	return res
}

// SelectorTokens returns deduplicated simple selector tokens of the whole
// selector list in source order.
func SelectorTokens(selector string) []string {
	seen := make(map[string]bool)
	var res []string
	for _, cx := range ParseSelector(selector) {
		for _, c := range cx {
			for _, tok := range c.Tokens() {
				if !seen[tok] {
					seen[tok] = true
					res = append(res, tok)
				}
			}
		}
	}
	return res
}

func isCombinator(r rune) bool {
	return r == ' ' || r == '>' || r == '+' || r == '~' || r == '\t' || r == '\n'
}

// splitTopLevel splits string on separators outside of brackets and quotes.
func splitTopLevel(s string, sep func(rune) bool) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			depth--
		case depth == 0 && sep(r):
			parts = append(parts, s[start:i])
			start = i + len(string(r))
		}
	}
	return append(parts, s[start:])
}

// parseCompound splits compound selector into its simple parts.
func parseCompound(s string) Compound {
	c := Compound{Raw: s}
	var i int
	if s[0] == '*' {
		i = 1
	} else {
		i = scanName(s, 0)
	}
	c.Element = strings.ToLower(s[:i])

	for i < len(s) {
		switch s[i] {
		case '.', '#':
			j := scanName(s, i+1)
			if s[i] == '.' {
				c.Classes = append(c.Classes, s[i+1:j])
			} else {
				c.IDs = append(c.IDs, s[i+1:j])
			}
			i = j
		case '[':
			j := closing(s, i, '[', ']')
			c.Attrs = append(c.Attrs, s[i:j])
			i = j
		case ':':
			j := i + 1
			if j < len(s) && s[j] == ':' {
				j++
			}
			j = scanName(s, j)
			if j < len(s) && s[j] == '(' {
				j = closing(s, j, '(', ')')
			}
			c.Pseudos = append(c.Pseudos, s[i:j])
			i = j
		default:
			// unexpected character, treat rest as opaque
			c.Attrs = append(c.Attrs, s[i:])
			i = len(s)
		}
	}
	return c
}

// closing returns index right after the bracket matching the one at i.
func closing(s string, i int, open, close byte) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(s)
}

// scanName returns index after identifier starting at i, escapes included.
func scanName(s string, i int) int {
	for i < len(s) {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i += 2
		case isNameByte(s[i]):
			i++
		default:
			return i
		}
	}
	return i
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' || b >= 0x80 ||
		b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
