package atom

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gosimple/slug"

	"silk/canon"
	"silk/common"
)

// Identifier is the generated class name of an atom.
type Identifier string

// DefaultFragment is the default length of value fragment in verbose names.
const DefaultFragment = 8

var (
	ErrBadPrefix = errors.New("bad class name prefix")
	ErrBadBits   = errors.New("hash width must be 32 or 64")
)

var prefixPattern = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// NamerOptions control identifier shape.
type NamerOptions struct {
	Prefix string
	Mode   common.NamingMode
	// Bits is hash width, 32 or 64.
	Bits int
	// Fragment limits value fragment length in verbose mode.
	Fragment int
}

// Namer derives identifiers from keys. It is a pure function of key and
// options, independent of registration order.
type Namer struct {
	opts NamerOptions
}

// NewNamer validates options. Zero Bits means 32, zero Fragment means
// DefaultFragment.
func NewNamer(opts NamerOptions) (*Namer, error) {
	if opts.Prefix != "" && !prefixPattern.MatchString(opts.Prefix) {
		return nil, fmt.Errorf("%w: %q", ErrBadPrefix, opts.Prefix)
	}
	switch opts.Bits {
	case 0:
		opts.Bits = 32
	case 32, 64:
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadBits, opts.Bits)
	}
	if opts.Fragment <= 0 {
		opts.Fragment = DefaultFragment
	}
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("naming mode: %w", common.ErrInvalidNamingMode)
	}
	return &Namer{opts: opts}, nil
}

// Options returns effective options.
func (n *Namer) Options() NamerOptions {
	return n.opts
}

// Hash returns key hash folded to configured width.
func (n *Namer) Hash(k Key) uint64 {
	h := xxhash.Sum64String(string(k))
	if n.opts.Bits == 32 {
		h = (h >> 32) ^ (h & 0xffffffff)
	}
	return h
}

// Name returns identifier of the declaration.
func (n *Namer) Name(d canon.Declaration) Identifier {
	return n.name(NewKey(d), d.Property, d.Value)
}

// NameKey returns identifier of the key.
func (n *Namer) NameKey(k Key) Identifier {
	property, value, _ := k.Parts()
	return n.name(k, property, value)
}

func (n *Namer) name(k Key, property, value string) Identifier {
	enc := strconv.FormatUint(n.Hash(k), 36)
	if n.opts.Mode.IsVerbose() {
		var b strings.Builder
		b.WriteString(n.opts.Prefix)
		b.WriteString(slug.Make(strings.TrimLeft(property, "-")))
		if frag := n.fragment(value); frag != "" {
			b.WriteByte('-')
			b.WriteString(frag)
		}
		b.WriteByte('-')
		b.WriteString(enc)
		return Identifier(b.String())
	}
	if n.opts.Prefix == "" && enc[0] >= '0' && enc[0] <= '9' {
		return Identifier("_" + enc)
	}
	return Identifier(n.opts.Prefix + enc)
}

func (n *Namer) fragment(value string) string {
	frag := slug.Make(value)
	if len(frag) > n.opts.Fragment {
		frag = frag[:n.opts.Fragment]
	}
	return strings.Trim(frag, "-")
}

// Decode recovers hash from identifier produced in either naming mode, so
// identifiers of the same key compare equal across modes.
func (n *Namer) Decode(id Identifier) (uint64, bool) {
	s, ok := strings.CutPrefix(string(id), n.opts.Prefix)
	if !ok {
		return 0, false
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, "_")
	h, err := strconv.ParseUint(s, 36, 64)
	if err != nil {
		return 0, false
	}
	if n.opts.Bits == 32 && h > 0xffffffff {
		return 0, false
	}
	return h, true
}
