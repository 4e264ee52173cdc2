// Package snapshot persists registry exports so separate builds can be merged
// and incremental generation can start from previous state.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amazon-ion/ion-go/ion"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"silk/atom"
)

// Version of snapshot document layout.
const Version = 1

// Format of snapshot file.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatIon    Format = "ion"
	FormatCBOR   Format = "cbor"
	FormatSQLite Format = "sqlite"
)

var (
	ErrUnknownFormat = errors.New("unknown snapshot format")
	ErrBadVersion    = errors.New("unsupported snapshot version")
)

const compressedExt = ".zst"

// Document is the serialized form of registry export.
type Document struct {
	Version int          `json:"version" yaml:"version" ion:"version" cbor:"version"`
	Atoms   []atom.Entry `json:"atoms" yaml:"atoms" ion:"atoms" cbor:"atoms"`
}

// FormatOf detects format from file name extension. Compressed is true for
// names with trailing ".zst".
func FormatOf(path string) (format Format, compressed bool, err error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, compressedExt) {
		compressed = true
		name = strings.TrimSuffix(name, compressedExt)
	}
	switch filepath.Ext(name) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	case ".ion":
		format = FormatIon
	case ".cbor":
		format = FormatCBOR
	case ".db", ".sqlite":
		if compressed {
			return "", false, fmt.Errorf("%w: compressed database %q", ErrUnknownFormat, path)
		}
		format = FormatSQLite
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
	return format, compressed, nil
}

// Save writes entries to the file, format is chosen by name. Database files are
// updated in place: new atoms are added and usage of known ones is summed.
func Save(path string, entries []atom.Entry) error {
	format, compressed, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == FormatSQLite {
		store, err := OpenStore(path, nil)
		if err != nil {
			return err
		}
		return multierr.Append(store.Put(entries), store.Close())
	}

	var buf bytes.Buffer
	if compressed {
		zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("unable to create compressor: %w", err)
		}
		if err := Encode(zw, format, entries); err != nil {
			zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("unable to compress snapshot: %w", err)
		}
	} else if err := Encode(&buf, format, entries); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write snapshot: %w", err)
	}
	return nil
}

// Load reads entries from the file, format is chosen by name.
func Load(path string) ([]atom.Entry, error) {
	format, compressed, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatSQLite {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("unable to open snapshot: %w", err)
		}
		store, err := OpenStore(path, nil)
		if err != nil {
			return nil, err
		}
		entries, err := store.All()
		return entries, multierr.Append(err, store.Close())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("unable to create decompressor: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	entries, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

var cborEnc = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
	return em
}()

// Encode writes entries in stream format.
func Encode(w io.Writer, format Format, entries []atom.Entry) error {
	doc := Document{Version: Version, Atoms: entries}
	if doc.Atoms == nil {
		doc.Atoms = []atom.Entry{}
	}

	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatIon:
		var data []byte
		if data, err = ion.MarshalBinary(doc); err == nil {
			_, err = w.Write(data)
		}
	case FormatCBOR:
		err = cborEnc.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("unable to encode %s snapshot: %w", format, err)
	}
	return nil
}

// Decode reads entries in stream format.
func Decode(r io.Reader, format Format) ([]atom.Entry, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case FormatIon:
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			err = ion.Unmarshal(data, &doc)
		}
	case FormatCBOR:
		err = cbor.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s snapshot: %w", format, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, doc.Version)
	}
	return doc.Atoms, nil
}
