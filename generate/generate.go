// Package generate implements batch operations of the program: generating
// bundles from style sources, merging registry snapshots and splitting
// existing stylesheets into critical and deferred parts.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"silk/atom"
	"silk/bundle"
	"silk/compiler"
	"silk/config"
	"silk/critical"
	"silk/snapshot"
	"silk/source"
)

// Request describes single generation run.
type Request struct {
	Extractor source.Extractor
	// Destination directory for bundle files.
	Destination string
	// Snapshot is optional registry state imported before and saved after
	// generation.
	Snapshot string
	// Document is optional HTML driving critical detection.
	Document  string
	Overwrite bool
	Tracer    *compiler.Tracer
	// Name is base name template of bundle files.
	Name    string
	Session string
}

// Outcome summarizes generation.
type Outcome struct {
	Bundle  *bundle.Bundle
	Files   []string
	Units   int
	Partial int
}

// Generate extracts units, compiles them in parallel, merges result with
// snapshot and writes bundle. Sources which cannot be read are reported and
// skipped, registry invariant violations stop the run.
func Generate(ctx context.Context, cfg *config.Config, req Request, log *zap.Logger) (*Outcome, error) {
	if req.Snapshot != "" {
		if _, _, err := snapshot.FormatOf(req.Snapshot); err != nil {
			return nil, err
		}
	}

	c, err := cfg.Engine.Prepare(log)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare compiler: %w", err)
	}
	c.SetTracer(req.Tracer)

	units, err := req.Extractor.Extract(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		for _, e := range multierr.Errors(err) {
			log.Warn("Skipping source", zap.Error(e))
		}
	}
	if len(units) == 0 {
		log.Warn("Nothing to compile")
	}

	results, err := c.CompileUnits(ctx, units, cfg.Output.Workers)
	if err != nil {
		return nil, fmt.Errorf("unable to compile styles: %w", err)
	}

	out := &Outcome{Units: len(results)}
	for _, ur := range results {
		for _, r := range ur.Partial() {
			out.Partial++
			log.Warn("Style partially resolved", zap.String("origin", r.Origin), zap.Strings("unresolved", r.Unresolved))
		}
		for _, r := range ur.Results {
			for _, d := range r.Diagnostics {
				log.Debug("Diagnostic", zap.Stringer("diagnostic", d))
			}
		}
	}

	// run registry is kept separately so incremental stores only get usage
	// of this run
	final := c.Registry()
	if req.Snapshot != "" {
		if final, err = withSnapshot(c, req.Snapshot, log); err != nil {
			return nil, err
		}
	}

	classifier, err := cfg.Layers.Prepare(log)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare layers: %w", err)
	}
	partitioner, err := cfg.Critical.Prepare(log)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare critical partitioner: %w", err)
	}
	doc, err := loadDocument(req.Document, cfg.Critical.FoldElements)
	if err != nil {
		return nil, err
	}

	out.Bundle = bundle.Build(final, classifier, partitioner, doc)
	name, err := bundle.ExpandName(req.Name, out.Bundle, req.Session)
	if err != nil {
		return nil, err
	}
	if out.Files, err = out.Bundle.WriteAs(req.Destination, name, req.Overwrite, log); err != nil {
		return nil, err
	}

	if req.Snapshot != "" {
		if err := saveSnapshot(req.Snapshot, c.Registry(), final); err != nil {
			return nil, err
		}
		log.Debug("Snapshot saved", zap.String("path", req.Snapshot))
	}

	log.Info("Bundle generated",
		zap.String("to", filepath.Join(req.Destination, name+bundle.StylesheetExt)),
		zap.Int("units", out.Units),
		zap.Stringer("atoms", out.Bundle.Stats),
		zap.String("size", humanize.Bytes(uint64(len(out.Bundle.Stylesheet())))),
		zap.Stringer("critical", out.Bundle.Report))
	return out, nil
}

// withSnapshot returns registry with snapshot content followed by atoms of
// this run.
func withSnapshot(c *compiler.Compiler, path string, log *zap.Logger) (*atom.Registry, error) {
	final := c.NewRegistry()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Info("Snapshot does not exist yet, starting from scratch", zap.String("path", path))
	} else {
		entries, err := snapshot.Load(path)
		if err != nil {
			return nil, fmt.Errorf("unable to load snapshot: %w", err)
		}
		if err := final.Import(entries); err != nil {
			return nil, fmt.Errorf("unable to import snapshot %s: %w", path, err)
		}
		log.Debug("Snapshot imported", zap.String("path", path), zap.Int("atoms", len(entries)))
	}
	if err := final.Merge(c.Registry()); err != nil {
		return nil, fmt.Errorf("unable to merge with snapshot %s: %w", path, err)
	}
	return final, nil
}

func saveSnapshot(path string, run, final *atom.Registry) error {
	format, _, err := snapshot.FormatOf(path)
	if err != nil {
		return err
	}
	entries := final.Export()
	if format == snapshot.FormatSQLite {
		// database accumulates on its own
		entries = run.Export()
	}
	if err := snapshot.Save(path, entries); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}
	return nil
}

func loadDocument(path string, n int) (*critical.Document, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open document: %w", err)
	}
	defer f.Close()

	doc, err := critical.ParseDocument(f, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}
