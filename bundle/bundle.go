// Package bundle assembles registry content into files handed to packaging.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"silk/atom"
	"silk/critical"
	"silk/layer"
)

// Output file names for default base name.
const (
	StylesheetFile  = DefaultName + StylesheetExt
	CriticalFile    = DefaultName + CriticalExt
	NonCriticalFile = DefaultName + NonCriticalExt
	AtomsFile       = DefaultName + AtomsExt
)

// Atom is identifier and its rule as handed to packaging.
type Atom struct {
	ID   atom.Identifier `json:"id"`
	Rule string          `json:"rule"`
}

// Bundle is the generated stylesheet in all its forms.
type Bundle struct {
	// CSS is plain stylesheet in registration order.
	CSS string
	// Layered is stylesheet wrapped into cascade layers, empty when built
	// without classifier.
	Layered     string
	Critical    string
	NonCritical string
	Atoms       []Atom
	Stats       atom.Stats
	Report      critical.Report
	Layers      map[string]int
}

// Build collects registry content. Classifier and partitioner are optional,
// without partitioner every rule is non-critical. Document, when given, drives
// automatic critical detection.
func Build(reg *atom.Registry, classifier *layer.Classifier, partitioner *critical.Partitioner, doc *critical.Document) *Bundle {
	rules := reg.Rules()
	b := &Bundle{
		CSS:   reg.GenerateCSS(),
		Stats: reg.Stats(),
	}

	for _, e := range reg.Export() {
		b.Atoms = append(b.Atoms, Atom{ID: e.ID, Rule: e.Rule})
	}

	if classifier != nil {
		layers := classifier.Assign(rules)
		b.Layered = layers.Render()
		b.Layers = layers.Counts()
	}

	if partitioner != nil {
		res := partitioner.Partition(rules, doc)
		b.Critical, b.NonCritical = res.CriticalCSS(), res.NonCriticalCSS()
		b.Report = res.Report
	} else {
		b.NonCritical = b.CSS
		b.Report = critical.Report{
			TotalRules:       len(rules),
			NonCriticalRules: len(rules),
			TotalBytes:       len(b.CSS),
			NonCriticalBytes: len(b.CSS),
		}
	}
	return b
}

// Stylesheet returns layered stylesheet when available and plain one
// otherwise.
func (b *Bundle) Stylesheet() string {
	if b.Layered != "" {
		return b.Layered
	}
	return b.CSS
}

// Write stores bundle files in directory, which is created if necessary.
// Existing files are only replaced when overwrite is set. Returns written
// paths.
func (b *Bundle) Write(dir string, overwrite bool, log *zap.Logger) ([]string, error) {
	return b.WriteAs(dir, DefaultName, overwrite, log)
}

// WriteAs is Write with files named after base instead of DefaultName.
func (b *Bundle) WriteAs(dir, base string, overwrite bool, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	atoms := b.Atoms
	if atoms == nil {
		atoms = []Atom{}
	}
	data, err := json.MarshalIndent(atoms, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to encode atoms: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{base + StylesheetExt, []byte(terminate(b.Stylesheet()))},
		{base + CriticalExt, []byte(terminate(b.Critical))},
		{base + NonCriticalExt, []byte(terminate(b.NonCritical))},
		{base + AtomsExt, append(data, '\n')},
	}

	// check everything first so nothing is written half way
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil {
			if !overwrite {
				return nil, fmt.Errorf("output file already exists: %s", path)
			}
			log.Warn("Overwriting existing file", zap.String("file", path))
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return written, fmt.Errorf("unable to write %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	log.Debug("Bundle written", zap.String("dir", dir), zap.Int("atoms", len(b.Atoms)))
	return written, nil
}

func terminate(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
