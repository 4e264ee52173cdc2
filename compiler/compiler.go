// Package compiler wires style parsing, canonicalization, merging and atom
// registration into a single pipeline. The same pipeline serves ahead of time
// compilation, batch generation and runtime class name lookups, which is what
// keeps identifiers and rule text identical between them.
package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"silk/atom"
	"silk/canon"
	"silk/optimize"
	"silk/style"
)

// DefaultBreakpoints are mobile first min-width breakpoints.
var DefaultBreakpoints = map[string]string{
	"sm":  "(min-width:640px)",
	"md":  "(min-width:768px)",
	"lg":  "(min-width:1024px)",
	"xl":  "(min-width:1280px)",
	"2xl": "(min-width:1536px)",
}

// Options configure pipeline.
type Options struct {
	Canon canon.Options
	Namer atom.NamerOptions
}

// DefaultOptions returns options with default breakpoints, units and compact
// identifiers without prefix.
func DefaultOptions() Options {
	return Options{
		Canon: canon.Options{
			Breakpoints: DefaultBreakpoints,
			Units:       canon.DefaultUnits(),
		},
	}
}

// Compiler runs pipeline against its own registry.
type Compiler struct {
	opts   Options
	canon  *canon.Canonicalizer
	opt    *optimize.Optimizer
	namer  *atom.Namer
	reg    *atom.Registry
	tracer *Tracer
	log    *zap.Logger
}

// New creates compiler with empty registry.
func New(opts Options, log *zap.Logger) (*Compiler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	namer, err := atom.NewNamer(opts.Namer)
	if err != nil {
		return nil, fmt.Errorf("unable to create namer: %w", err)
	}
	c := &Compiler{
		opts:  opts,
		canon: canon.New(opts.Canon, log),
		opt:   optimize.New(log),
		namer: namer,
		log:   log.Named("compiler"),
	}
	c.reg = c.NewRegistry()
	return c, nil
}

// NewRegistry creates empty registry sharing compiler namer.
func (c *Compiler) NewRegistry() *atom.Registry {
	return atom.NewRegistry(c.namer, c.log)
}

// Registry returns compiler registry.
func (c *Compiler) Registry() *atom.Registry {
	return c.reg
}

// Canonicalizer returns canonicalizer used by pipeline.
func (c *Compiler) Canonicalizer() *canon.Canonicalizer {
	return c.canon
}

// SetTracer enables tracing of compilation steps, nil disables it.
func (c *Compiler) SetTracer(t *Tracer) {
	c.tracer = t
}

// fork returns compiler sharing everything but the registry.
func (c *Compiler) fork() *Compiler {
	f := *c
	f.reg = c.NewRegistry()
	return &f
}

// Result of a single style object compilation.
type Result struct {
	Origin string
	// ClassName is space separated list of atom identifiers.
	ClassName    string
	IDs          []atom.Identifier
	Declarations []canon.Declaration
	Diagnostics  []canon.Diagnostic
	Unresolved   []string
}

// Resolved is true when whole style object was compiled.
func (r Result) Resolved() bool {
	return len(r.Unresolved) == 0
}

// Compile runs style object through the pipeline registering its atoms.
// Keys which cannot be compiled are reported in the result and skipped; error
// is only returned when registry invariant is broken.
func (c *Compiler) Compile(obj style.Object, origin string) (Result, error) {
	if c.tracer.IsEnabled() {
		nodes, _ := style.Parse(obj, c.canon.Vocabulary())
		c.tracer.TraceParse(origin, style.Dump(nodes))
	}

	cres := c.canon.Canonicalize(obj, origin)
	c.tracer.TraceCanonical(origin, cres.Declarations, cres.Diagnostics)

	decls := c.opt.Optimize(cres.Declarations)
	c.tracer.TraceOptimize(origin, len(cres.Declarations), decls)

	ids, err := c.reg.RegisterAll(decls)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", origin, err)
	}
	c.tracer.TraceRegister(origin, ids)

	res := Result{
		Origin:       origin,
		ClassName:    joinIDs(ids),
		IDs:          ids,
		Declarations: decls,
		Diagnostics:  cres.Diagnostics,
		Unresolved:   cres.Unresolved,
	}
	if !res.Resolved() {
		c.log.Debug("Style partially resolved", zap.String("origin", origin), zap.Strings("unresolved", res.Unresolved))
	}
	return res, nil
}

func joinIDs(ids []atom.Identifier) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(id))
	}
	return b.String()
}
