package optimize

import (
	"silk/canon"
)

// Expand returns effective longhand values set by a single declaration. For
// family shorthands and axis shorthands all affected sides are returned,
// other properties map to themselves. False is returned for shorthand values
// which cannot be distributed.
func Expand(property, value string) (map[string]string, bool) {
	m, ok := members[property]
	if !ok {
		return map[string]string{property: value}, true
	}
	f := m.family
	switch m.role {
	case roleShorthand:
		box, ok := expandBox(value)
		if !ok {
			return nil, false
		}
		return map[string]string{f.sides[top]: box[top], f.sides[right]: box[right], f.sides[bottom]: box[bottom], f.sides[left]: box[left]}, true
	case roleBlock:
		pair, ok := expandAxis(value)
		if !ok {
			return nil, false
		}
		return map[string]string{f.sides[top]: pair[0], f.sides[bottom]: pair[1]}, true
	case roleInline:
		pair, ok := expandAxis(value)
		if !ok {
			return nil, false
		}
		return map[string]string{f.sides[left]: pair[0], f.sides[right]: pair[1]}, true
	default:
		return map[string]string{property: value}, true
	}
}

// Effective computes effective longhand values of declaration sequence keyed
// by context key and property. Within a context more specific declarations
// override shorthands regardless of their order, which is how canonicalized
// sequences are meant to be read.
func Effective(decls []canon.Declaration) (map[string]string, bool) {
	type specific struct {
		value string
		level int
	}
	acc := make(map[string]specific)
	for _, d := range decls {
		values, ok := Expand(d.Property, d.Value)
		if !ok {
			return nil, false
		}
		level := 2
		if m, ok := members[d.Property]; ok {
			switch m.role {
			case roleShorthand:
				level = 0
			case roleBlock, roleInline:
				level = 1
			}
		}
		ctx := d.Context.Key()
		for prop, v := range values {
			k := ctx + "\x1f" + prop
			if cur, ok := acc[k]; ok && cur.level > level {
				continue
			}
			acc[k] = specific{value: v, level: level}
		}
	}
	res := make(map[string]string, len(acc))
	for k, v := range acc {
		res[k] = v.value
	}
	return res, true
}
