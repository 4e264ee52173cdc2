// Package canon converts style trees into flat sequences of normalized
// declarations. Two style objects describing the same CSS produce equal
// declarations, which is what makes atoms shareable.
package canon

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"silk/style"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic describes a key which could not be canonicalized as written.
type Diagnostic struct {
	Origin   string
	Path     string
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Origin != "" {
		b.WriteString(d.Origin)
		b.WriteString(": ")
	}
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	if d.Path != "" {
		b.WriteString(d.Path)
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return b.String()
}

// Context is the selector context of a declaration: pseudo selector suffix and
// at-rule wrappers ordered outermost first.
type Context struct {
	Selector string
	Wrappers []string
}

// Key renders context in the form used for atom keys. Contexts rendering the
// same CSS have equal keys.
func (c Context) Key() string {
	if len(c.Wrappers) == 0 {
		return c.Selector
	}
	var b strings.Builder
	for _, w := range c.Wrappers {
		b.WriteString(w)
		b.WriteByte('{')
	}
	b.WriteString(c.Selector)
	return b.String()
}

// IsZero is true for the plain context: no selector suffix, no wrappers.
func (c Context) IsZero() bool {
	return c.Selector == "" && len(c.Wrappers) == 0
}

// WithSelector returns context with selector suffix appended.
func (c Context) WithSelector(sel string) Context {
	return Context{Selector: c.Selector + sel, Wrappers: c.Wrappers}
}

// WithWrapper returns context with an inner wrapper added.
func (c Context) WithWrapper(w string) Context {
	wrappers := make([]string, len(c.Wrappers), len(c.Wrappers)+1)
	copy(wrappers, c.Wrappers)
	return Context{Selector: c.Selector, Wrappers: append(wrappers, w)}
}

// Declaration is a single normalized property assignment in a context.
type Declaration struct {
	Context  Context
	Property string
	Value    string
}

func (d Declaration) String() string {
	if d.Context.IsZero() {
		return d.Property + ":" + d.Value
	}
	return d.Context.Key() + " " + d.Property + ":" + d.Value
}

// Result of canonicalization. Declarations which could not be normalized are
// dropped and their key paths listed in Unresolved.
type Result struct {
	Declarations []Declaration
	Diagnostics  []Diagnostic
	Unresolved   []string
}

// Resolved is true when every key was handled.
func (r Result) Resolved() bool {
	return len(r.Unresolved) == 0
}

// Options configure canonicalizer.
type Options struct {
	PseudoPrefix string
	// Breakpoints maps breakpoint names to media queries.
	Breakpoints map[string]string
	Units       Units
	// Tokens is nested design token table.
	Tokens map[string]any
}

// Canonicalizer is stateless after construction and safe for concurrent use.
type Canonicalizer struct {
	vocab  style.Vocabulary
	units  Units
	tokens Tokens
	log    *zap.Logger
}

// New creates canonicalizer, zero valued units are replaced with defaults.
func New(opts Options, log *zap.Logger) *Canonicalizer {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultUnits()
	if opts.Units.Spacing.IsZero() {
		opts.Units.Spacing = def.Spacing
	}
	if opts.Units.SpacingSuffix == "" {
		opts.Units.SpacingSuffix = def.SpacingSuffix
	}
	if opts.Units.Default == "" {
		opts.Units.Default = def.Default
	}
	return &Canonicalizer{
		vocab: style.Vocabulary{
			PseudoPrefix: opts.PseudoPrefix,
			Breakpoints:  opts.Breakpoints,
			IsProperty:   IsProperty,
		},
		units:  opts.Units,
		tokens: NewTokens(opts.Tokens),
		log:    log.Named("canon"),
	}
}

// Vocabulary returns style vocabulary matching canonicalizer configuration.
func (c *Canonicalizer) Vocabulary() style.Vocabulary {
	return c.vocab
}

// Units returns numeric rendering settings.
func (c *Canonicalizer) Units() Units {
	return c.units
}

// Tokens returns token table.
func (c *Canonicalizer) Tokens() Tokens {
	return c.tokens
}

// Canonicalize parses raw style object and canonicalizes resulting tree.
func (c *Canonicalizer) Canonicalize(obj style.Object, origin string) Result {
	nodes, problems := style.Parse(obj, c.vocab)
	res := c.CanonicalizeTree(nodes, origin)
	for _, p := range problems {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Origin: origin, Path: p.Path, Severity: SeverityError, Message: p.Message})
		res.Unresolved = append(res.Unresolved, p.Path)
	}
	return res
}

// CanonicalizeTree flattens already parsed tree.
func (c *Canonicalizer) CanonicalizeTree(nodes []style.Node, origin string) Result {
	w := walker{c: c, origin: origin, index: make(map[string]int)}
	w.walk(Context{}, nil, nodes)

	res := w.res
	if len(w.entries) > 0 {
		res.Declarations = make([]Declaration, len(w.entries))
		for i, e := range w.entries {
			res.Declarations[i] = e.decl
		}
	}
	return res
}

// Value normalizes single value for the property, resolving token
// references. Returned warning is not nil when value was a missing token.
func (c *Canonicalizer) Value(property string, v any) (value string, warning, err error) {
	if s, ok := v.(string); ok {
		ref := strings.TrimSpace(s)
		if c.tokens.IsReference(ref) {
			tv, found := c.tokens.Lookup(ref)
			if !found {
				value, err = NormalizeString(s)
				return value, fmt.Errorf("unknown token %q, used as literal", ref), err
			}
			value, err = c.units.normalize(property, tv)
			if err != nil {
				return "", nil, fmt.Errorf("token %q: %w", ref, err)
			}
			return value, nil, nil
		}
	}
	value, err = c.units.normalize(property, v)
	return value, nil, err
}

type entry struct {
	decl Declaration
	rank Rank
}

type walker struct {
	c       *Canonicalizer
	origin  string
	res     Result
	entries []entry
	index   map[string]int
}

func (w *walker) walk(ctx Context, path []string, nodes []style.Node) {
	for _, n := range nodes {
		switch n.Kind {
		case style.KindLeaf:
			w.leaf(ctx, path, n)
			continue
		case style.KindPseudo:
			w.walk(ctx.WithSelector(n.Name), append(path[:len(path):len(path)], n.Key), n.Children)
		case style.KindResponsive, style.KindAtRule:
			inner := ctx
			if wr := n.Wrapper(); wr != "" {
				inner = ctx.WithWrapper(wr)
			}
			w.walk(inner, append(path[:len(path):len(path)], n.Key), n.Children)
		}
	}
}

func (w *walker) leaf(ctx Context, path []string, n style.Node) {
	if n.Value == nil {
		return
	}
	keyPath := style.JoinPath(path, n.Key)
	targets, rank := Expand(n.Key)
	for i, property := range targets {
		value, warning, err := w.c.Value(property, n.Value)
		if warning != nil && i == 0 {
			w.diagnose(keyPath, SeverityWarning, warning)
		}
		if err != nil {
			w.diagnose(keyPath, SeverityError, err)
			w.res.Unresolved = append(w.res.Unresolved, keyPath)
			return
		}
		w.put(Declaration{Context: ctx, Property: property, Value: value}, rank)
	}
}

func (w *walker) put(decl Declaration, rank Rank) {
	key := decl.Context.Key() + "\x1f" + decl.Property
	if i, ok := w.index[key]; ok {
		if rank >= w.entries[i].rank {
			w.entries[i] = entry{decl: decl, rank: rank}
		}
		return
	}
	w.index[key] = len(w.entries)
	w.entries = append(w.entries, entry{decl: decl, rank: rank})
}

func (w *walker) diagnose(path string, sev Severity, err error) {
	d := Diagnostic{Origin: w.origin, Path: path, Severity: sev, Message: err.Error()}
	w.res.Diagnostics = append(w.res.Diagnostics, d)
	if sev == SeverityError {
		w.c.log.Debug("Unable to canonicalize", zap.String("origin", w.origin), zap.String("path", path), zap.Error(err))
	} else {
		w.c.log.Debug("Canonicalization warning", zap.String("origin", w.origin), zap.String("path", path), zap.Error(err))
	}
}
