package css_test

import (
	"slices"
	"testing"

	"silk/css"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		selector  string
		complexes int
		bare      bool
		single    bool
	}{
		{selector: "p", complexes: 1, bare: true},
		{selector: "*::before", complexes: 1, bare: true},
		{selector: "h1, h2, h3", complexes: 3, bare: true},
		{selector: ".a1b2", complexes: 1, single: true},
		{selector: ".a1b2:hover", complexes: 1, single: true},
		{selector: ".x::after", complexes: 1, single: true},
		{selector: `.md\:p-4`, complexes: 1, single: true},
		{selector: "a.btn", complexes: 1},
		{selector: ".a .b", complexes: 1},
		{selector: "input[type=text]", complexes: 1},
		{selector: ":root", complexes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			list := css.ParseSelector(tt.selector)
			if len(list) != tt.complexes {
				t.Fatalf("got %d complex selectors, want %d", len(list), tt.complexes)
			}
			bare, single := true, true
			for _, cx := range list {
				if len(cx) != 1 {
					bare, single = false, false
					continue
				}
				bare = bare && cx[0].IsBare()
				single = single && cx[0].IsSingleClass()
			}
			if bare != tt.bare {
				t.Errorf("bare = %v, want %v", bare, tt.bare)
			}
			if single != tt.single {
				t.Errorf("single class = %v, want %v", single, tt.single)
			}
		})
	}
}

func TestSelectorTokens(t *testing.T) {
	tests := []struct {
		selector string
		want     []string
	}{
		{"header", []string{"header"}},
		{".header .nav > a:hover", []string{".header", ".nav", "a"}},
		{"nav#main.top, .top", []string{"nav", ".top", "#main"}},
		{":not(.x) .y", []string{".y"}},
		{".btn::before", []string{".btn"}},
	}
	for _, tt := range tests {
		if got := css.SelectorTokens(tt.selector); !slices.Equal(got, tt.want) {
			t.Errorf("SelectorTokens(%q) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestCompound_Pseudos(t *testing.T) {
	list := css.ParseSelector("li:nth-child(2n+1)::marker")
	if len(list) != 1 || len(list[0]) != 1 {
		t.Fatalf("unexpected parse: %v", list)
	}
	c := list[0][0]
	if c.Element != "li" || !slices.Equal(c.Pseudos, []string{":nth-child(2n+1)", "::marker"}) {
		t.Errorf("compound = %+v", c)
	}
}
