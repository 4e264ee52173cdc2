package atom_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"silk/atom"
	"silk/canon"
	"silk/common"
)

func mustNamer(t *testing.T, opts atom.NamerOptions) *atom.Namer {
	t.Helper()
	n, err := atom.NewNamer(opts)
	if err != nil {
		t.Fatalf("NewNamer() error = %v", err)
	}
	return n
}

func decl(property, value string) canon.Declaration {
	return canon.Declaration{Property: property, Value: value}
}

func TestNewNamer_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts atom.NamerOptions
		err  error
	}{
		{name: "defaults", opts: atom.NamerOptions{}},
		{name: "prefix", opts: atom.NamerOptions{Prefix: "s-"}},
		{name: "64 bit", opts: atom.NamerOptions{Bits: 64}},
		{name: "digit prefix", opts: atom.NamerOptions{Prefix: "1x"}, err: atom.ErrBadPrefix},
		{name: "dot prefix", opts: atom.NamerOptions{Prefix: ".x"}, err: atom.ErrBadPrefix},
		{name: "bad bits", opts: atom.NamerOptions{Bits: 16}, err: atom.ErrBadBits},
		{name: "bad mode", opts: atom.NamerOptions{Mode: common.NamingMode(7)}, err: common.ErrInvalidNamingMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := atom.NewNamer(tt.opts)
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestNamer_Deterministic(t *testing.T) {
	d := decl("padding", "1rem")
	a := mustNamer(t, atom.NamerOptions{Prefix: "s"}).Name(d)
	b := mustNamer(t, atom.NamerOptions{Prefix: "s"}).Name(d)
	if a != b {
		t.Errorf("independent namers disagree: %s vs %s", a, b)
	}
	if other := mustNamer(t, atom.NamerOptions{Prefix: "s"}).Name(decl("padding", "2rem")); other == a {
		t.Errorf("different values share identifier %s", a)
	}
	hover := d
	hover.Context = canon.Context{Selector: ":hover"}
	if mustNamer(t, atom.NamerOptions{Prefix: "s"}).Name(hover) == a {
		t.Error("context does not affect identifier")
	}
}

func TestNamer_Compact(t *testing.T) {
	valid := regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)
	for _, prefix := range []string{"", "s", "x-"} {
		n := mustNamer(t, atom.NamerOptions{Prefix: prefix})
		for i := range 200 {
			id := string(n.Name(decl("width", strings.Repeat("a", i)+"px")))
			if !strings.HasPrefix(id, prefix) {
				t.Fatalf("%q has no prefix %q", id, prefix)
			}
			if !valid.MatchString(id) {
				t.Fatalf("%q is not a valid class name", id)
			}
			if strings.ToLower(id) != id && prefix == "" {
				t.Fatalf("%q is not lowercase", id)
			}
		}
	}
}

func TestNamer_Verbose(t *testing.T) {
	n := mustNamer(t, atom.NamerOptions{Prefix: "s-", Mode: common.NamingModeVerbose})
	tests := []struct {
		d      canon.Declaration
		prefix string
	}{
		{decl("padding", "1rem"), "s-padding-1rem-"},
		{decl("color", "#FF0000"), "s-color-ff0000-"},
		{decl("font-family", "Inter, sans-serif"), "s-font-family-inter-sa-"},
		{decl("--brand", "red"), "s-brand-red-"},
		{decl("content", "\"\""), "s-content-"},
	}
	for _, tt := range tests {
		id := string(n.Name(tt.d))
		if !strings.HasPrefix(id, tt.prefix) {
			t.Errorf("Name(%s) = %q, want prefix %q", tt.d, id, tt.prefix)
		}
	}
}

func TestNamer_CrossMode(t *testing.T) {
	for _, bits := range []int{32, 64} {
		compact := mustNamer(t, atom.NamerOptions{Prefix: "s", Bits: bits})
		verbose := mustNamer(t, atom.NamerOptions{Prefix: "s", Bits: bits, Mode: common.NamingModeVerbose})
		for _, d := range []canon.Declaration{decl("padding", "1rem"), decl("color", "red"), decl("margin-top", "-0.5rem")} {
			hc, ok := compact.Decode(compact.Name(d))
			if !ok {
				t.Fatalf("cannot decode compact %s", compact.Name(d))
			}
			hv, ok := verbose.Decode(verbose.Name(d))
			if !ok {
				t.Fatalf("cannot decode verbose %s", verbose.Name(d))
			}
			if hc != hv || hc != compact.Hash(atom.NewKey(d)) {
				t.Errorf("bits %d: %s and %s decode to %d and %d", bits, compact.Name(d), verbose.Name(d), hc, hv)
			}
		}
	}
}

func TestNamer_Width(t *testing.T) {
	n := mustNamer(t, atom.NamerOptions{})
	for i := range 100 {
		if h := n.Hash(atom.Key(strings.Repeat("x", i))); h > 0xffffffff {
			t.Fatalf("32 bit hash overflow: %d", h)
		}
	}
	if _, ok := n.Decode("zzzzzzzzzzzzz"); ok {
		t.Error("decoded value wider than 32 bits")
	}
}

func TestKey_Roundtrip(t *testing.T) {
	d := canon.Declaration{
		Context:  canon.Context{Selector: ":hover", Wrappers: []string{"@media (min-width:768px)", "@supports (display:grid)"}},
		Property: "display",
		Value:    "grid",
	}
	k := atom.NewKey(d)
	got := k.Declaration()
	if got.String() != d.String() {
		t.Errorf("Declaration() = %s, want %s", got, d)
	}
	if p, v, _ := k.Parts(); p != "display" || v != "grid" {
		t.Errorf("Parts() = %s, %s", p, v)
	}
}
