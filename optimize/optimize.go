// Package optimize merges longhand declarations of box-like property families
// into shorthands. Merging is per selector context and never changes the
// effective per-side values.
package optimize

import (
	"sort"

	"go.uber.org/zap"

	"silk/canon"
)

// Optimizer merges declarations, it has no state besides logger.
type Optimizer struct {
	log *zap.Logger
}

// New creates optimizer.
func New(log *zap.Logger) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{log: log.Named("optimize")}
}

type positioned struct {
	pos  int
	decl canon.Declaration
}

// group collects family members found in a single context.
type group struct {
	ctx       canon.Context
	shorthand *positioned
	block     *positioned
	inline    *positioned
	sides     [4]*positioned
	count     int
}

// Optimize returns merged declaration sequence. Output keeps first appearance
// order of surviving properties.
func (o *Optimizer) Optimize(decls []canon.Declaration) []canon.Declaration {
	if len(decls) == 0 {
		return nil
	}

	type groupKey struct {
		ctx    string
		family *family
	}
	var (
		out    = make([]positioned, 0, len(decls))
		groups = make(map[groupKey]*group)
		order  []groupKey
	)
	for i, d := range decls {
		m, ok := members[d.Property]
		if !ok {
			out = append(out, positioned{pos: i, decl: d})
			continue
		}
		k := groupKey{ctx: d.Context.Key(), family: m.family}
		g, ok := groups[k]
		if !ok {
			g = &group{ctx: d.Context}
			groups[k] = g
			order = append(order, k)
		}
		p := &positioned{pos: i, decl: d}
		switch m.role {
		case roleShorthand:
			g.shorthand = p
		case roleBlock:
			g.block = p
		case roleInline:
			g.inline = p
		case roleSide:
			g.sides[m.side] = p
		}
		g.count++
	}

	merged := 0
	for _, k := range order {
		g := groups[k]
		res, ok := k.family.merge(g)
		if !ok {
			out = append(out, g.members()...)
			continue
		}
		if len(res) < g.count {
			merged += g.count - len(res)
		}
		out = append(out, res...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })

	result := make([]canon.Declaration, len(out))
	for i, p := range out {
		result[i] = p.decl
	}
	if merged > 0 {
		o.log.Debug("Declarations merged", zap.Int("in", len(decls)), zap.Int("out", len(result)))
	}
	return result
}

func (g *group) members() []positioned {
	var res []positioned
	for _, p := range []*positioned{g.shorthand, g.block, g.inline, g.sides[0], g.sides[1], g.sides[2], g.sides[3]} {
		if p != nil {
			res = append(res, *p)
		}
	}
	return res
}

// merge rewrites family group. When group cannot be rewritten safely (value
// shapes which cannot be distributed between sides) false is returned and
// group is emitted as is.
func (f *family) merge(g *group) ([]positioned, bool) {
	hasSides := false
	for _, s := range g.sides {
		if s != nil {
			hasSides = true
		}
	}
	if g.count == 1 && !hasSides {
		// lone shorthand or axis shorthand is already as short as it gets
		return g.members(), true
	}

	var (
		values [4]string
		pos    [4]int
		set    [4]bool
	)
	assign := func(side int, value string, p int) {
		values[side], pos[side], set[side] = value, p, true
	}

	if g.shorthand != nil {
		box, ok := expandBox(g.shorthand.decl.Value)
		if !ok {
			return nil, false
		}
		for s := range 4 {
			assign(s, box[s], g.shorthand.pos)
		}
	}
	if f.block != "" {
		for _, ax := range []struct {
			p     *positioned
			sides [2]int
		}{{g.block, [2]int{top, bottom}}, {g.inline, [2]int{left, right}}} {
			if ax.p == nil {
				continue
			}
			pair, ok := expandAxis(ax.p.decl.Value)
			if !ok {
				return nil, false
			}
			assign(ax.sides[0], pair[0], ax.p.pos)
			assign(ax.sides[1], pair[1], ax.p.pos)
		}
	}
	for s, p := range g.sides {
		if p != nil {
			assign(s, p.decl.Value, p.pos)
		}
	}
	for s := range 4 {
		if set[s] && !singleValue(values[s]) {
			return nil, false
		}
	}

	decl := func(property, value string, p int) positioned {
		return positioned{pos: p, decl: canon.Declaration{Context: g.ctx, Property: property, Value: value}}
	}

	if set[0] && set[1] && set[2] && set[3] &&
		values[0] == values[1] && values[1] == values[2] && values[2] == values[3] {
		return []positioned{decl(f.shorthand, values[0], min(pos[0], pos[1], pos[2], pos[3]))}, true
	}

	var res []positioned
	done := [4]bool{}
	if f.block != "" {
		for _, ax := range []struct {
			name string
			a, b int
		}{{f.block, top, bottom}, {f.inline, left, right}} {
			if set[ax.a] && set[ax.b] && values[ax.a] == values[ax.b] {
				res = append(res, decl(ax.name, values[ax.a], min(pos[ax.a], pos[ax.b])))
				done[ax.a], done[ax.b] = true, true
			}
		}
	}
	for s := range 4 {
		if set[s] && !done[s] {
			res = append(res, decl(f.sides[s], values[s], pos[s]))
		}
	}
	return res, true
}

func singleValue(v string) bool {
	parts, ok := splitValue(v)
	return ok && len(parts) == 1
}
