package compiler

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"silk/atom"
	"silk/style"
)

// Source is a single style object together with description of where it came
// from (file, component name, line).
type Source struct {
	Object style.Object
	Origin string
}

// Unit is a group of style objects compiled together, normally a single source
// file.
type Unit struct {
	Name    string
	Sources []Source
}

// UnitResult is outcome of unit compilation.
type UnitResult struct {
	Unit     string
	Results  []Result
	Registry *atom.Registry
}

// Partial returns results which were not fully resolved.
func (u UnitResult) Partial() []Result {
	var out []Result
	for _, r := range u.Results {
		if !r.Resolved() {
			out = append(out, r)
		}
	}
	return out
}

// CompileUnit compiles all sources of the unit into a fresh registry. Compiler
// registry is not touched.
func (c *Compiler) CompileUnit(unit Unit) (UnitResult, error) {
	f := c.fork()
	res := UnitResult{Unit: unit.Name, Registry: f.reg, Results: make([]Result, 0, len(unit.Sources))}
	for _, src := range unit.Sources {
		r, err := f.Compile(src.Object, src.Origin)
		if err != nil {
			return UnitResult{}, fmt.Errorf("unit %q: %w", unit.Name, err)
		}
		res.Results = append(res.Results, r)
	}
	return res, nil
}

// CompileUnits compiles units in parallel using at most workers goroutines
// (GOMAXPROCS when workers is not positive) and merges unit registries into the
// compiler registry in order units were given, so result does not depend on
// scheduling.
func (c *Compiler) CompileUnits(ctx context.Context, units []Unit, workers int) ([]UnitResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]UnitResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.CompileUnit(unit)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if err := c.reg.Merge(res.Registry); err != nil {
			return nil, fmt.Errorf("unable to merge unit %q: %w", res.Unit, err)
		}
		c.tracer.TraceMerge(res.Unit, res.Registry.Stats())
	}
	c.log.Debug("Units compiled",
		zap.Int("units", len(units)),
		zap.Int("workers", workers),
		zap.Stringer("stats", c.reg.Stats()))
	return results, nil
}
