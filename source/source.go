// Package source extracts style objects from files. Compiler only sees
// resolved style objects and origins, so other extractors (for example a
// parser of component sources) can be plugged in through Extractor.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"silk/compiler"
	"silk/style"
)

// Extractor produces compilation units.
type Extractor interface {
	Extract(ctx context.Context) ([]compiler.Unit, error)
}

// Static is extractor over already prepared units.
type Static []compiler.Unit

// Extract returns units as is.
func (s Static) Extract(ctx context.Context) ([]compiler.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

var (
	ErrUnsupported = errors.New("unsupported source format")
	ErrBadDocument = errors.New("bad style document")
)

// IsSupported reports whether file name has one of known extensions.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc", ".yaml", ".yml":
		return true
	}
	return false
}

// Decode parses style document. Two shapes are accepted: unit document
//
//	{"unit": "card", "styles": [{"origin": "card:root", "style": {...}}]}
//
// and plain mapping of names to style objects, in which case origin of each
// object is "name:key" and objects are in natural order of keys. Unit name defaults to
// name argument.
func Decode(name string, data []byte) (compiler.Unit, error) {
	var (
		doc map[string]any
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		err = dec.Decode(&doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return compiler.Unit{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	if err != nil {
		return compiler.Unit{}, fmt.Errorf("%s: %w", name, err)
	}

	if styles, ok := doc["styles"]; ok {
		return decodeUnit(name, doc, styles)
	}
	return decodeMapping(name, doc)
}

func decodeUnit(name string, doc map[string]any, styles any) (compiler.Unit, error) {
	unit := compiler.Unit{Name: name}
	if v, ok := doc["unit"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return compiler.Unit{}, fmt.Errorf("%s: %w: unit name must be a string", name, ErrBadDocument)
		}
		unit.Name = s
	}
	list, ok := styles.([]any)
	if !ok {
		return compiler.Unit{}, fmt.Errorf("%s: %w: styles must be a list", name, ErrBadDocument)
	}
	for i, item := range list {
		entry, ok := asObject(item)
		if !ok {
			return compiler.Unit{}, fmt.Errorf("%s: %w: styles[%d] is not an object", name, ErrBadDocument, i)
		}
		obj, ok := asObject(entry["style"])
		if !ok {
			return compiler.Unit{}, fmt.Errorf("%s: %w: styles[%d] has no style object", name, ErrBadDocument, i)
		}
		origin, _ := entry["origin"].(string)
		if origin == "" {
			origin = fmt.Sprintf("%s:%d", name, i)
		}
		unit.Sources = append(unit.Sources, compiler.Source{Object: obj, Origin: origin})
	}
	return unit, nil
}

func decodeMapping(name string, doc map[string]any) (compiler.Unit, error) {
	unit := compiler.Unit{Name: name}
	for _, key := range sortedKeys(doc) {
		obj, ok := asObject(doc[key])
		if !ok {
			return compiler.Unit{}, fmt.Errorf("%s: %w: %q is not a style object", name, ErrBadDocument, key)
		}
		unit.Sources = append(unit.Sources, compiler.Source{Object: obj, Origin: name + ":" + key})
	}
	return unit, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func asObject(v any) (style.Object, bool) {
	switch t := v.(type) {
	case map[string]any:
		return style.Object(t), true
	}
	return nil, false
}
