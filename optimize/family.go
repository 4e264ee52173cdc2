package optimize

import (
	"strings"
)

// Side indexes follow CSS box order.
const (
	top = iota
	right
	bottom
	left
)

// family describes longhands which can be merged into shorthands. For
// border-radius sides are corners in top-left, top-right, bottom-right,
// bottom-left order and there are no axis forms.
type family struct {
	shorthand string
	sides     [4]string
	block     string
	inline    string
}

func boxFamily(shorthand, prefix, suffix string) family {
	return family{
		shorthand: shorthand,
		sides: [4]string{
			prefix + "top" + suffix,
			prefix + "right" + suffix,
			prefix + "bottom" + suffix,
			prefix + "left" + suffix,
		},
		block:  prefix + "block" + suffix,
		inline: prefix + "inline" + suffix,
	}
}

var families = []family{
	boxFamily("margin", "margin-", ""),
	boxFamily("padding", "padding-", ""),
	{
		shorthand: "inset",
		sides:     [4]string{"top", "right", "bottom", "left"},
		block:     "inset-block",
		inline:    "inset-inline",
	},
	boxFamily("scroll-margin", "scroll-margin-", ""),
	boxFamily("scroll-padding", "scroll-padding-", ""),
	boxFamily("border-width", "border-", "-width"),
	boxFamily("border-style", "border-", "-style"),
	boxFamily("border-color", "border-", "-color"),
	{
		shorthand: "border-radius",
		sides: [4]string{
			"border-top-left-radius",
			"border-top-right-radius",
			"border-bottom-right-radius",
			"border-bottom-left-radius",
		},
	},
}

type role int

const (
	roleShorthand role = iota
	roleSide
	roleBlock
	roleInline
)

type member struct {
	family *family
	role   role
	side   int
}

var members = func() map[string]member {
	m := make(map[string]member)
	for i := range families {
		f := &families[i]
		m[f.shorthand] = member{family: f, role: roleShorthand}
		for s, name := range f.sides {
			m[name] = member{family: f, role: roleSide, side: s}
		}
		if f.block != "" {
			m[f.block] = member{family: f, role: roleBlock}
			m[f.inline] = member{family: f, role: roleInline}
		}
	}
	return m
}()

// IsMergeable reports whether property belongs to one of the merge families.
func IsMergeable(property string) bool {
	_, ok := members[property]
	return ok
}

// expandBox expands box shorthand value using 1/2/3/4 value rules:
//   - 1 value: all sides
//   - 2 values: top/bottom, left/right
//   - 3 values: top, left/right, bottom
//   - 4 values: top, right, bottom, left
func expandBox(value string) ([4]string, bool) {
	parts, ok := splitValue(value)
	if !ok {
		return [4]string{}, false
	}
	switch len(parts) {
	case 1:
		return [4]string{parts[0], parts[0], parts[0], parts[0]}, true
	case 2:
		return [4]string{parts[0], parts[1], parts[0], parts[1]}, true
	case 3:
		return [4]string{parts[0], parts[1], parts[2], parts[1]}, true
	case 4:
		return [4]string{parts[0], parts[1], parts[2], parts[3]}, true
	default:
		return [4]string{}, false
	}
}

// expandAxis expands start/end pair, "1rem" or "1rem 2rem".
func expandAxis(value string) ([2]string, bool) {
	parts, ok := splitValue(value)
	if !ok {
		return [2]string{}, false
	}
	switch len(parts) {
	case 1:
		return [2]string{parts[0], parts[0]}, true
	case 2:
		return [2]string{parts[0], parts[1]}, true
	default:
		return [2]string{}, false
	}
}

// splitValue splits space separated value keeping function arguments and
// quoted strings intact. Values which cannot be safely distributed between
// sides (priority flags, elliptical radius syntax, unbalanced brackets) are
// rejected.
func splitValue(value string) ([]string, bool) {
	if strings.Contains(value, "!") || strings.Contains(value, "/") {
		return nil, false
	}
	var (
		parts []string
		cur   strings.Builder
		depth int
		quote rune
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	for _, r := range value {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return nil, false
			}
		case r == ' ' && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	if depth != 0 || quote != 0 {
		return nil, false
	}
	flush()
	return parts, len(parts) > 0
}
