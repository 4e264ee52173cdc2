package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"silk/archive"
	"silk/compiler"
)

// FileExtractor reads style documents from a single file, a directory tree or
// a zip archive. Files are processed in natural order of their names. Unit
// names are paths relative to the root.
type FileExtractor struct {
	root string
	log  *zap.Logger
}

// NewFileExtractor creates extractor rooted at path.
func NewFileExtractor(path string, log *zap.Logger) *FileExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileExtractor{root: path, log: log.Named("source")}
}

// Extract reads all supported documents. Documents which cannot be decoded are
// skipped, their errors are combined into returned error together with units
// which were read successfully.
func (e *FileExtractor) Extract(ctx context.Context) ([]compiler.Unit, error) {
	info, err := os.Stat(e.root)
	if err != nil {
		return nil, fmt.Errorf("unable to access source: %w", err)
	}
	if info.IsDir() {
		return e.extractDir(ctx)
	}
	return e.extractFile(ctx, e.root, filepath.Base(e.root))
}

func (e *FileExtractor) extractDir(ctx context.Context) (units []compiler.Unit, rerr error) {
	var files []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			e.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(natural.StringSlice(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(e.root, path)
		if err != nil {
			rel = path
		}
		found, err := e.extractFile(ctx, path, filepath.ToSlash(rel))
		units = append(units, found...)
		rerr = multierr.Append(rerr, err)
	}
	if len(units) == 0 {
		e.log.Debug("Nothing to process", zap.String("dir", e.root))
	}
	return units, rerr
}

func (e *FileExtractor) extractFile(ctx context.Context, path, name string) ([]compiler.Unit, error) {
	isArchive, err := archive.IsArchive(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", name, err)
	}
	if isArchive {
		return e.extractArchive(ctx, path, name)
	}
	if !IsSupported(path) {
		e.log.Debug("Skipping file, not recognized as style document", zap.String("file", path))
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", name, err)
	}
	unit, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Style document read", zap.String("unit", unit.Name), zap.Int("styles", len(unit.Sources)))
	return []compiler.Unit{unit}, nil
}

func (e *FileExtractor) extractArchive(ctx context.Context, path, name string) (units []compiler.Unit, rerr error) {
	err := archive.Walk(path, IsSupported, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		unit, err := readEntry(f, name+"/"+f.Name)
		if err != nil {
			e.log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			rerr = multierr.Append(rerr, err)
			return nil
		}
		units = append(units, unit)
		return nil
	})
	if err != nil {
		return nil, multierr.Append(rerr, fmt.Errorf("unable to process archive %s: %w", name, err))
	}
	return units, rerr
}

func readEntry(f *zip.File, name string) (compiler.Unit, error) {
	r, err := f.Open()
	if err != nil {
		return compiler.Unit{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return compiler.Unit{}, err
	}
	return Decode(name, data)
}
