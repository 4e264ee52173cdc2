package debug

import (
	"testing"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{name: "no depth", depth: 0, format: "rules", want: "rules\n"},
		{name: "depth 2", depth: 2, format: "pseudo %s", args: []any{":hover"}, want: "    pseudo :hover\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		label string
		value string
		want  string
	}{
		{name: "empty value", label: "rule", value: "", want: "  rule: \n"},
		{name: "quoted", label: "rule", value: `.a{content:"x"}`, want: "  rule: \".a{content:\\\"x\\\"}\"\n"},
		{name: "newline", label: "css", value: "a\nb", want: "  css: \"a\\nb\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(1, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Value(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "red", want: "color = \"red\"\n"},
		{name: "int", value: 4, want: "color = 4 (int)\n"},
		{name: "float", value: 1.5, want: "color = 1.5 (float64)\n"},
		{name: "nil", value: nil, want: "color = <nil>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Value(0, "color", tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Len(t *testing.T) {
	tw := NewTreeWriter()
	if tw.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tw.Len())
	}
	tw.Line(1, "x")
	if tw.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tw.Len())
	}
}
