package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"silk/compiler"
	"silk/style"
)

func newCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	opts := compiler.DefaultOptions()
	opts.Namer.Prefix = "s"
	c, err := compiler.New(opts, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestCompile_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		obj   style.Object
		rules []string
	}{
		{
			name:  "single atom",
			obj:   style.Object{"padding": 4},
			rules: []string{"{padding:1rem}"},
		},
		{
			name:  "merged sides",
			obj:   style.Object{"paddingTop": 4, "paddingRight": 8, "paddingBottom": 4, "paddingLeft": 8},
			rules: []string{"{padding-block:1rem}", "{padding-inline:2rem}"},
		},
		{
			name:  "hover",
			obj:   style.Object{"color": "red", "_hover": style.Object{"color": "blue"}},
			rules: []string{":hover{color:blue}", "{color:red}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t)
			res, err := c.Compile(tt.obj, "test")
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if !res.Resolved() {
				t.Errorf("Compile() unresolved = %v", res.Unresolved)
			}
			if len(res.IDs) != len(tt.rules) {
				t.Fatalf("Compile() ids = %v, want %d", res.IDs, len(tt.rules))
			}
			if c.Registry().Len() != len(tt.rules) {
				t.Errorf("Registry().Len() = %d", c.Registry().Len())
			}
			for i, id := range res.IDs {
				e, ok := c.Registry().Lookup(id)
				if !ok {
					t.Fatalf("Lookup(%s) failed", id)
				}
				if want := "." + string(id) + tt.rules[i]; e.Rule != want {
					t.Errorf("rule %d = %q, want %q", i, e.Rule, want)
				}
				if !strings.Contains(res.ClassName, string(id)) {
					t.Errorf("ClassName %q lacks %s", res.ClassName, id)
				}
			}
		})
	}
}

func TestCompile_Partial(t *testing.T) {
	c := newCompiler(t)
	res, err := c.Compile(style.Object{"color": "red", "margin": []any{1, 2}}, "app.json:card")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if res.Resolved() {
		t.Fatal("Compile() should report partial resolution")
	}
	if len(res.IDs) != 1 {
		t.Errorf("Compile() ids = %v", res.IDs)
	}
	if len(res.Diagnostics) == 0 || res.Diagnostics[0].Origin != "app.json:card" {
		t.Errorf("Compile() diagnostics = %v", res.Diagnostics)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	obj := style.Object{"margin": 2, "color": "#FFF", "md": style.Object{"padding": 1}}

	a, err := newCompiler(t).Compile(obj, "a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := newCompiler(t).Compile(obj, "b")
	if err != nil {
		t.Fatal(err)
	}
	if a.ClassName != b.ClassName {
		t.Errorf("class names differ: %q vs %q", a.ClassName, b.ClassName)
	}
}

func TestCache_MatchesCompiler(t *testing.T) {
	obj := style.Object{"color": "red", "_hover": style.Object{"color": "blue"}, "p": 2}

	res, err := newCompiler(t).Compile(obj, "build")
	if err != nil {
		t.Fatal(err)
	}

	cache := compiler.NewCache(newCompiler(t), 4, 2)
	name, err := cache.ClassName(obj)
	if err != nil {
		t.Fatalf("ClassName() error = %v", err)
	}
	if name != res.ClassName {
		t.Errorf("ClassName() = %q, want %q", name, res.ClassName)
	}
}

func TestCache_KeyOrderAndStats(t *testing.T) {
	cache := compiler.NewCache(newCompiler(t), 2, 1)

	first, err := cache.ClassName(style.Object{"a": 1, "color": "red", "padding": 4})
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.ClassName(style.Object{"padding": 4.0, "color": "red", "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("ClassName() = %q and %q", first, second)
	}
	st := cache.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Entries != 1 || st.Capacity != 2 {
		t.Errorf("Stats() = %+v", st)
	}

	// evicts least recently used
	for _, color := range []string{"blue", "green", "navy"} {
		if _, err := cache.ClassName(style.Object{"color": color}); err != nil {
			t.Fatal(err)
		}
	}
	if st := cache.Stats(); st.Entries != 2 || st.Misses != 4 {
		t.Errorf("Stats() after eviction = %+v", st)
	}

	cache.Reset()
	if st := cache.Stats(); st.Entries != 0 || st.Hits != 0 || st.Misses != 0 {
		t.Errorf("Stats() after reset = %+v", st)
	}
}

func TestCache_FractionalNumbers(t *testing.T) {
	cache := compiler.NewCache(newCompiler(t), 0, 0)
	c := newCompiler(t)

	// both round to the same 4 digits, but differ once multiplied by spacing unit
	names := make(map[string]bool)
	for _, v := range []float64{1.00015, 1.00024} {
		obj := style.Object{"padding": v}
		res, err := c.Compile(obj, "build")
		if err != nil {
			t.Fatal(err)
		}
		name, err := cache.ClassName(obj)
		if err != nil {
			t.Fatalf("ClassName() error = %v", err)
		}
		if name != res.ClassName {
			t.Errorf("ClassName(%v) = %q, want %q", v, name, res.ClassName)
		}
		names[name] = true
	}
	if len(names) != 2 {
		t.Errorf("distinct values share class name: %v", names)
	}
	if st := cache.Stats(); st.Misses != 2 || st.Hits != 0 || st.Entries != 2 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestCache_EquivalentSpellings(t *testing.T) {
	cache := compiler.NewCache(newCompiler(t), 0, 0)

	// keyed before canonicalization: separate entries, same atoms
	var names []string
	for _, obj := range []style.Object{{"p": 4}, {"padding": 4}, {"padding": "1rem"}} {
		name, err := cache.ClassName(obj)
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	if names[0] != names[1] || names[1] != names[2] {
		t.Errorf("ClassName() = %v, want one class name", names)
	}
	if st := cache.Stats(); st.Misses != 3 || st.Entries != 3 {
		t.Errorf("Stats() = %+v", st)
	}
	if n := cache.Compiler().Registry().Len(); n != 1 {
		t.Errorf("registry holds %d atoms, want 1", n)
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := compiler.NewCache(newCompiler(t), 0, 0)
	want, err := cache.ClassName(style.Object{"margin": 1})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				got, err := cache.ClassName(style.Object{"margin": 1})
				if err != nil || got != want {
					t.Errorf("ClassName() = %q, %v", got, err)
					return
				}
			}
		})
	}
	wg.Wait()
}

func TestDefault(t *testing.T) {
	a, err := compiler.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	b, _ := compiler.Default()
	if a != b {
		t.Error("Default() returned different instances")
	}
	name, err := compiler.ClassName(style.Object{"display": "flex"})
	if err != nil || name == "" {
		t.Errorf("ClassName() = %q, %v", name, err)
	}
}

func testUnits() []compiler.Unit {
	return []compiler.Unit{
		{Name: "a", Sources: []compiler.Source{
			{Object: style.Object{"backgroundColor": "red"}, Origin: "a:1"},
			{Object: style.Object{"padding": 4}, Origin: "a:2"},
		}},
		{Name: "b", Sources: []compiler.Source{
			{Object: style.Object{"backgroundColor": "red", "color": "blue"}, Origin: "b:1"},
		}},
		{Name: "c", Sources: []compiler.Source{
			{Object: style.Object{"md": style.Object{"padding": 8}}, Origin: "c:1"},
		}},
	}
}

func TestCompileUnits(t *testing.T) {
	var exports []string
	for _, workers := range []int{1, 3, 0} {
		c := newCompiler(t)
		results, err := c.CompileUnits(context.Background(), testUnits(), workers)
		if err != nil {
			t.Fatalf("CompileUnits(%d) error = %v", workers, err)
		}
		if len(results) != 3 || results[1].Unit != "b" {
			t.Fatalf("CompileUnits(%d) results = %v", workers, results)
		}
		st := c.Registry().Stats()
		if st.UniqueAtoms != 4 || st.TotalUsage != 5 {
			t.Errorf("CompileUnits(%d) stats = %+v", workers, st)
		}
		exports = append(exports, c.Registry().GenerateCSS())
	}
	for i := 1; i < len(exports); i++ {
		if exports[i] != exports[0] {
			t.Errorf("output depends on worker count:\n%s\nvs\n%s", exports[i], exports[0])
		}
	}
}

func TestCompileUnits_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newCompiler(t).CompileUnits(ctx, testUnits(), 1); err == nil {
		t.Error("CompileUnits() expected error on canceled context")
	}
}

func TestTracer(t *testing.T) {
	dir := t.TempDir()
	tr := compiler.NewTracer(dir)
	c := newCompiler(t)
	c.SetTracer(tr)

	if _, err := c.CompileUnits(context.Background(), testUnits(), 2); err != nil {
		t.Fatal(err)
	}
	path := tr.Flush()
	if path != filepath.Join(dir, compiler.TraceFile) {
		t.Fatalf("Flush() = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"registered: 4", "merged: 3", "PARSE: a:1", "REGISTER: c:1"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("trace lacks %q:\n%s", want, data)
		}
	}
	if tr.Flush() != "" {
		t.Error("second Flush() should write nothing")
	}

	var disabled *compiler.Tracer
	if disabled.IsEnabled() || compiler.NewTracer("").Flush() != "" {
		t.Error("disabled tracer should be inert")
	}
}
