package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"silk/config"
	"silk/css"
	"silk/critical"
)

// SplitRequest describes partitioning of existing stylesheet.
type SplitRequest struct {
	Stylesheet string
	// Destination directory, defaults to stylesheet directory.
	Destination string
	Document    string
	Overwrite   bool
	// Layered additionally wraps both parts into cascade layers.
	Layered bool
}

// Split reads stylesheet and writes <base>.critical.css and
// <base>.deferred.css next to each other.
func Split(cfg *config.Config, req SplitRequest, log *zap.Logger) ([]string, critical.Report, error) {
	data, err := os.ReadFile(req.Stylesheet)
	if err != nil {
		return nil, critical.Report{}, fmt.Errorf("unable to read stylesheet: %w", err)
	}

	sheet := css.NewParser(log).Parse(data, filepath.Base(req.Stylesheet))
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet problem", zap.String("file", req.Stylesheet), zap.String("warning", w))
	}

	partitioner, err := cfg.Critical.Prepare(log)
	if err != nil {
		return nil, critical.Report{}, fmt.Errorf("unable to prepare critical partitioner: %w", err)
	}
	doc, err := loadDocument(req.Document, cfg.Critical.FoldElements)
	if err != nil {
		return nil, critical.Report{}, err
	}
	res := partitioner.Partition(sheet.Rules, doc)

	criticalCSS, deferredCSS := res.CriticalCSS(), res.NonCriticalCSS()
	if req.Layered {
		classifier, err := cfg.Layers.Prepare(log)
		if err != nil {
			return nil, critical.Report{}, fmt.Errorf("unable to prepare layers: %w", err)
		}
		criticalCSS = classifier.Assign(res.Critical).Render()
		deferredCSS = classifier.Assign(res.NonCritical).Render()
	}

	dir := req.Destination
	if dir == "" {
		dir = filepath.Dir(req.Stylesheet)
	}
	base := strings.TrimSuffix(filepath.Base(req.Stylesheet), filepath.Ext(req.Stylesheet))
	outputs := []struct{ name, content string }{
		{filepath.Join(dir, base+".critical.css"), criticalCSS},
		{filepath.Join(dir, base+".deferred.css"), deferredCSS},
	}

	names := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if _, err := os.Stat(o.name); err == nil {
			if !req.Overwrite {
				return nil, critical.Report{}, fmt.Errorf("output file already exists: %s", o.name)
			}
			log.Warn("Overwriting existing file", zap.String("file", o.name))
		}
		names = append(names, o.name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, critical.Report{}, fmt.Errorf("unable to create output directory: %w", err)
	}
	for _, o := range outputs {
		content := o.content
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if err := os.WriteFile(o.name, []byte(content), 0644); err != nil {
			return nil, critical.Report{}, fmt.Errorf("unable to write %s: %w", o.name, err)
		}
	}
	log.Info("Stylesheet split", zap.String("from", req.Stylesheet), zap.Stringer("report", res.Report))
	return names, res.Report, nil
}
