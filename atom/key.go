// Package atom turns canonical declarations into content addressed atoms:
// every distinct (property, value, context) triple gets exactly one
// identifier and one rule.
package atom

import (
	"strings"

	"silk/canon"
)

// Separator joins key parts. Canonicalizer rejects values with control
// characters so it never occurs inside a part.
const Separator = "\x1f"

// Key is the canonical atom key: property, value and context key.
type Key string

// NewKey builds key of the declaration.
func NewKey(d canon.Declaration) Key {
	return Key(d.Property + Separator + d.Value + Separator + d.Context.Key())
}

// Parts splits key back into its components.
func (k Key) Parts() (property, value, context string) {
	property, rest, _ := strings.Cut(string(k), Separator)
	value, context, _ = strings.Cut(rest, Separator)
	return property, value, context
}

// Declaration restores declaration the key was built from.
func (k Key) Declaration() canon.Declaration {
	property, value, context := k.Parts()
	return canon.Declaration{Context: parseContext(context), Property: property, Value: value}
}

func parseContext(key string) canon.Context {
	parts := strings.Split(key, "{")
	ctx := canon.Context{Selector: parts[len(parts)-1]}
	if len(parts) > 1 {
		ctx.Wrappers = parts[:len(parts)-1]
	}
	return ctx
}

// String renders key in readable form for logs.
func (k Key) String() string {
	return strings.ReplaceAll(string(k), Separator, " | ")
}
