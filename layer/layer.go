// Package layer places rules into cascade layers and renders layered
// stylesheets.
package layer

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"silk/css"
)

// Default layer names.
const (
	Reset     = "reset"
	Tokens    = "tokens"
	Base      = "base"
	Utilities = "utilities"
	Overrides = "overrides"
)

// DefaultOrder is used when no order is configured.
var DefaultOrder = []string{Reset, Tokens, Base, Utilities, Overrides}

var (
	ErrUnknownLayer = errors.New("unknown layer")
	ErrBadOrder     = errors.New("bad layer order")
)

// Classifier assigns rules to layers of fixed order.
type Classifier struct {
	order    []string
	index    map[string]int
	catchAll string
	log      *zap.Logger
}

// New creates classifier. Empty order means DefaultOrder, empty catch-all
// means the last layer of the order.
func New(order []string, catchAll string, log *zap.Logger) (*Classifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(order) == 0 {
		order = DefaultOrder
	}
	index := make(map[string]int, len(order))
	for i, name := range order {
		if name == "" || strings.ContainsAny(name, " ,;{}") {
			return nil, fmt.Errorf("%w: bad layer name %q", ErrBadOrder, name)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%w: duplicate layer %q", ErrBadOrder, name)
		}
		index[name] = i
	}
	if catchAll == "" {
		catchAll = order[len(order)-1]
	}
	if _, ok := index[catchAll]; !ok {
		return nil, fmt.Errorf("%w: catch-all %q", ErrUnknownLayer, catchAll)
	}
	return &Classifier{
		order:    append([]string(nil), order...),
		index:    index,
		catchAll: catchAll,
		log:      log.Named("layer"),
	}, nil
}

// Order returns configured layer order.
func (c *Classifier) Order() []string {
	return append([]string(nil), c.order...)
}

// CatchAll returns layer for rules no heuristic matched.
func (c *Classifier) CatchAll() string {
	return c.catchAll
}

// Classify returns layer for a rule. Heuristics only pick layers present in
// configured order, otherwise catch-all is used.
func (c *Classifier) Classify(r css.Rule) string {
	if r.Kind != css.KindStyle {
		return c.catchAll
	}
	name := classify(r.Selector)
	if _, ok := c.index[name]; !ok {
		return c.catchAll
	}
	return name
}

func classify(selector string) string {
	list := css.ParseSelector(selector)
	if len(list) == 0 {
		return ""
	}
	tokens, bare := true, true
	for _, cx := range list {
		if len(cx) != 1 {
			return ""
		}
		c := cx[0]
		tokens = tokens && isRootLike(c)
		bare = bare && c.IsBare()
	}
	switch {
	case tokens:
		return Tokens
	case bare:
		return Base
	case len(list) == 1 && list[0][0].IsSingleClass():
		return Utilities
	}
	return ""
}

func isRootLike(c css.Compound) bool {
	if c.Element != "" || len(c.Classes) > 0 || len(c.IDs) > 0 || len(c.Pseudos) == 0 {
		return false
	}
	p := c.Pseudos[0]
	return p == ":root" || p == ":host" || strings.HasPrefix(p, ":host(")
}

// Assign classifies rules, keeping their order within each layer.
func (c *Classifier) Assign(rules []css.Rule) *Layers {
	l := c.NewLayers()
	for _, r := range rules {
		name := c.Classify(r)
		l.buckets[name] = append(l.buckets[name], r)
	}
	return l
}

// NewLayers creates empty layer set.
func (c *Classifier) NewLayers() *Layers {
	return &Layers{c: c, buckets: make(map[string][]css.Rule, len(c.order))}
}

// Assignment is rule placed into a layer.
type Assignment struct {
	Layer string
	Rule  css.Rule
}

// Layers holds rules placed into layers.
type Layers struct {
	c       *Classifier
	buckets map[string][]css.Rule
}

// Add classifies and appends rules.
func (l *Layers) Add(rules ...css.Rule) {
	for _, r := range rules {
		name := l.c.Classify(r)
		l.buckets[name] = append(l.buckets[name], r)
	}
}

// AssignTo places rules into explicitly named layer bypassing heuristics.
func (l *Layers) AssignTo(layer string, rules ...css.Rule) error {
	if _, ok := l.c.index[layer]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	l.buckets[layer] = append(l.buckets[layer], rules...)
	return nil
}

// Rules returns rules of a single layer.
func (l *Layers) Rules(layer string) []css.Rule {
	return l.buckets[layer]
}

// Assignments returns all rules in final order: layer order first, insertion
// order second.
func (l *Layers) Assignments() []Assignment {
	var res []Assignment
	for _, name := range l.c.order {
		for _, r := range l.buckets[name] {
			res = append(res, Assignment{Layer: name, Rule: r})
		}
	}
	return res
}

// Counts returns number of rules per non-empty layer.
func (l *Layers) Counts() map[string]int {
	res := make(map[string]int)
	for name, rules := range l.buckets {
		if len(rules) > 0 {
			res[name] = len(rules)
		}
	}
	return res
}

// Render returns layer order statement followed by one block per non-empty
// layer in configured order.
func (l *Layers) Render() string {
	var b strings.Builder
	b.WriteString("@layer ")
	b.WriteString(strings.Join(l.c.order, ", "))
	b.WriteString(";\n")
	for _, name := range l.c.order {
		rules := l.buckets[name]
		if len(rules) == 0 {
			continue
		}
		b.WriteString("@layer ")
		b.WriteString(name)
		b.WriteString("{\n")
		b.WriteString(css.Join(rules))
		b.WriteString("\n}\n")
	}
	l.c.log.Debug("Layers rendered", zap.Any("counts", l.Counts()))
	return b.String()
}
