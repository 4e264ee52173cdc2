package bundle

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/cespare/xxhash/v2"
	sprig "github.com/go-task/slim-sprig/v3"
)

// DefaultName is base name of bundle files.
const DefaultName = "silk"

// Suffixes of bundle files, appended to base name.
const (
	StylesheetExt  = ".css"
	CriticalExt    = ".critical.css"
	NonCriticalExt = ".deferred.css"
	AtomsExt       = ".atoms.json"
)

// NameValues are variables available for base name template expansion.
type NameValues struct {
	// Hash is hex encoded hash of the stylesheet, stable for the same content.
	Hash    string
	Atoms   int
	Session string
	Date    string
}

// Hash returns hex encoded hash of the stylesheet.
func (b *Bundle) Hash() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.Stylesheet()))
}

// ExpandName expands base name template, "silk-{{ .Hash | trunc 8 }}" for
// example. Empty template means DefaultName.
func ExpandName(field string, b *Bundle, session string) (string, error) {
	if strings.TrimSpace(field) == "" {
		return DefaultName, nil
	}

	tmpl, err := template.New("name").Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse name template: %w", err)
	}

	values := NameValues{
		Hash:    b.Hash(),
		Atoms:   b.Stats.UniqueAtoms,
		Session: session,
		Date:    time.Now().Format("2006-01-02"),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand name template: %w", err)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\:`) {
		return "", fmt.Errorf("bad bundle name %q", name)
	}
	return name, nil
}
