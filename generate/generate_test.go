package generate_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"silk/atom"
	"silk/bundle"
	"silk/compiler"
	"silk/config"
	"silk/generate"
	"silk/snapshot"
	"silk/source"
	"silk/style"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return cfg
}

func units() source.Static {
	return source.Static{
		{Name: "card", Sources: []compiler.Source{
			{Origin: "card:root", Object: style.Object{"color": "red", "padding": 4}},
			{Origin: "card:title", Object: style.Object{"color": "red", "font-weight": 700}},
		}},
		{Name: "header", Sources: []compiler.Source{
			{Origin: "header:root", Object: style.Object{"color": "blue"}},
		}},
	}
}

func TestGenerate(t *testing.T) {
	cfg := defaultConfig(t)
	dst := t.TempDir()

	out, err := generate.Generate(context.Background(), cfg, generate.Request{
		Extractor:   units(),
		Destination: dst,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Units != 2 || out.Partial != 0 {
		t.Errorf("Generate() units = %d, partial = %d", out.Units, out.Partial)
	}
	if out.Bundle.Stats.UniqueAtoms != 4 || out.Bundle.Stats.TotalUsage != 5 {
		t.Errorf("Generate() stats = %+v", out.Bundle.Stats)
	}
	if len(out.Files) != 4 {
		t.Fatalf("Generate() files = %v", out.Files)
	}

	data, err := os.ReadFile(filepath.Join(dst, bundle.StylesheetFile))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "{color:red}") || !strings.Contains(string(data), "@layer") {
		t.Errorf("stylesheet = %q", data)
	}

	// second run without overwrite fails and leaves files alone
	_, err = generate.Generate(context.Background(), cfg, generate.Request{Extractor: units(), Destination: dst}, zap.NewNop())
	if err == nil {
		t.Fatal("Generate() into populated directory succeeded")
	}
	_, err = generate.Generate(context.Background(), cfg, generate.Request{Extractor: units(), Destination: dst, Overwrite: true}, zap.NewNop())
	if err != nil {
		t.Errorf("Generate() with overwrite error = %v", err)
	}
}

func TestGenerate_Snapshot(t *testing.T) {
	for _, name := range []string{"state.json", "state.yaml.zst", "state.db"} {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig(t)
			snap := filepath.Join(t.TempDir(), name)

			for run := 1; run <= 2; run++ {
				out, err := generate.Generate(context.Background(), cfg, generate.Request{
					Extractor:   units(),
					Destination: t.TempDir(),
					Snapshot:    snap,
				}, zap.NewNop())
				if err != nil {
					t.Fatalf("Generate() run %d error = %v", run, err)
				}
				if out.Bundle.Stats.UniqueAtoms != 4 {
					t.Errorf("run %d atoms = %d, want 4", run, out.Bundle.Stats.UniqueAtoms)
				}
				if out.Bundle.Stats.TotalUsage != 5*run {
					t.Errorf("run %d usage = %d, want %d", run, out.Bundle.Stats.TotalUsage, 5*run)
				}
			}

			entries, err := snapshot.Load(snap)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			usage := 0
			for _, e := range entries {
				usage += e.Usage
			}
			if len(entries) != 4 || usage != 10 {
				t.Errorf("snapshot has %d atoms with usage %d", len(entries), usage)
			}
		})
	}
}

func TestGenerate_BadSnapshot(t *testing.T) {
	dst := t.TempDir()
	_, err := generate.Generate(context.Background(), defaultConfig(t), generate.Request{
		Extractor:   units(),
		Destination: dst,
		Snapshot:    filepath.Join(t.TempDir(), "state.txt"),
	}, zap.NewNop())
	if !errors.Is(err, snapshot.ErrUnknownFormat) {
		t.Fatalf("Generate() error = %v, want ErrUnknownFormat", err)
	}
	if _, err := os.Stat(filepath.Join(dst, bundle.StylesheetFile)); !os.IsNotExist(err) {
		t.Errorf("bundle should not be written, stat error = %v", err)
	}
}

func TestGenerate_Document(t *testing.T) {
	cfg := defaultConfig(t)
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, []byte(`<html><body><div class="promo">x</div></body></html>`), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := cfg.Engine.Prepare(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Compile(style.Object{"margin": 0}, "probe")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Critical.Include = []string{"." + string(res.IDs[0])}

	out, err := generate.Generate(context.Background(), cfg, generate.Request{
		Extractor:   source.Static{{Name: "probe", Sources: []compiler.Source{{Origin: "probe", Object: style.Object{"margin": 0, "color": "red"}}}}},
		Destination: filepath.Join(dir, "out"),
		Document:    page,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Bundle.Report.CriticalRules != 1 || out.Bundle.Report.TotalRules != 2 {
		t.Errorf("Generate() report = %+v", out.Bundle.Report)
	}

	_, err = generate.Generate(context.Background(), cfg, generate.Request{
		Extractor:   units(),
		Destination: filepath.Join(dir, "other"),
		Document:    filepath.Join(dir, "missing.html"),
	}, zap.NewNop())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Generate() with missing document error = %v", err)
	}
}

func TestGenerate_Name(t *testing.T) {
	dst := t.TempDir()
	out, err := generate.Generate(context.Background(), defaultConfig(t), generate.Request{
		Extractor:   units(),
		Destination: dst,
		Name:        "app-{{ .Hash | trunc 6 }}",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := filepath.Join(dst, "app-"+out.Bundle.Hash()[:6]+bundle.StylesheetExt)
	if out.Files[0] != want {
		t.Errorf("Generate() stylesheet = %s, want %s", out.Files[0], want)
	}

	_, err = generate.Generate(context.Background(), defaultConfig(t), generate.Request{
		Extractor:   units(),
		Destination: t.TempDir(),
		Name:        "{{ .Missing }}",
	}, zap.NewNop())
	if err == nil {
		t.Error("Generate() with bad name template succeeded")
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := generate.Generate(ctx, defaultConfig(t), generate.Request{Extractor: units(), Destination: t.TempDir()}, zap.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGenerate_Tracer(t *testing.T) {
	work := t.TempDir()
	tracer := compiler.NewTracer(work)
	_, err := generate.Generate(context.Background(), defaultConfig(t), generate.Request{
		Extractor:   units(),
		Destination: t.TempDir(),
		Tracer:      tracer,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	path := tracer.Flush()
	if path != filepath.Join(work, compiler.TraceFile) {
		t.Fatalf("Flush() = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "card:title") {
		t.Errorf("trace does not mention origin:\n%s", data)
	}
}

func TestMerge(t *testing.T) {
	cfg := defaultConfig(t)
	dir := t.TempDir()

	c, err := cfg.Engine.Prepare(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Compile(style.Object{"color": "red", "margin": 0}, "a"); err != nil {
		t.Fatal(err)
	}
	first := c.Registry().Export()
	c.Registry().Reset()
	if _, err := c.Compile(style.Object{"color": "red", "padding": 2}, "b"); err != nil {
		t.Fatal(err)
	}
	second := c.Registry().Export()

	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.cbor")
	if err := snapshot.Save(a, first); err != nil {
		t.Fatal(err)
	}
	if err := snapshot.Save(b, second); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "merged.ion")
	n, err := generate.Merge(cfg, dst, []string{a, b}, zap.NewNop())
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Merge() = %d atoms, want 3", n)
	}
	merged, err := snapshot.Load(dst)
	if err != nil {
		t.Fatal(err)
	}
	if merged[0].Key != first[0].Key || merged[0].Usage != 2 {
		t.Errorf("Merge() first entry = %+v", merged[0])
	}

	if _, err := generate.Merge(cfg, dst, nil, zap.NewNop()); err == nil {
		t.Error("Merge() without sources succeeded")
	}
	if _, err := generate.Merge(cfg, filepath.Join(dir, "x.txt"), []string{a}, zap.NewNop()); !errors.Is(err, snapshot.ErrUnknownFormat) {
		t.Errorf("Merge() into unknown format error = %v", err)
	}

	conflict := []atom.Entry{{Key: first[0].Key, ID: "bogus", Usage: 1}}
	bad := filepath.Join(dir, "bad.json")
	if err := snapshot.Save(bad, conflict); err != nil {
		t.Fatal(err)
	}
	if _, err := generate.Merge(cfg, filepath.Join(dir, "m2.json"), []string{a, bad}, zap.NewNop()); !errors.Is(err, atom.ErrIdentifierMismatch) {
		t.Errorf("Merge() conflicting snapshots error = %v", err)
	}
}

func TestSplit(t *testing.T) {
	cfg := defaultConfig(t)
	dir := t.TempDir()
	sheet := filepath.Join(dir, "site.css")
	css := "@import url(x.css);\nbody{margin:0}\n.card{padding:1rem}\n.promo{color:red}\n"
	if err := os.WriteFile(sheet, []byte(css), 0644); err != nil {
		t.Fatal(err)
	}

	files, report, err := generate.Split(cfg, generate.SplitRequest{Stylesheet: sheet}, zap.NewNop())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(files) != 2 || files[0] != filepath.Join(dir, "site.critical.css") || files[1] != filepath.Join(dir, "site.deferred.css") {
		t.Fatalf("Split() files = %v", files)
	}
	if report.TotalRules != 4 || report.CriticalRules != 2 {
		t.Errorf("Split() report = %+v", report)
	}
	crit, _ := os.ReadFile(files[0])
	deferred, _ := os.ReadFile(files[1])
	if !strings.Contains(string(crit), "body{margin:0}") || strings.Contains(string(crit), ".card") {
		t.Errorf("critical part = %q", crit)
	}
	if !strings.Contains(string(deferred), ".card{padding:1rem}") || !strings.HasSuffix(string(deferred), "\n") {
		t.Errorf("deferred part = %q", deferred)
	}

	if _, _, err := generate.Split(cfg, generate.SplitRequest{Stylesheet: sheet}, zap.NewNop()); err == nil {
		t.Error("Split() over existing output succeeded")
	}

	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, []byte(`<body><p class="promo">hi</p></body>`), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	_, report, err = generate.Split(cfg, generate.SplitRequest{Stylesheet: sheet, Destination: out, Document: page, Layered: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("Split() layered error = %v", err)
	}
	if report.CriticalRules != 3 {
		t.Errorf("Split() with document report = %+v", report)
	}
	crit, _ = os.ReadFile(filepath.Join(out, "site.critical.css"))
	if !strings.Contains(string(crit), "@layer") || !strings.Contains(string(crit), ".promo{color:red}") {
		t.Errorf("layered critical part = %q", crit)
	}

	if _, _, err := generate.Split(cfg, generate.SplitRequest{Stylesheet: filepath.Join(dir, "none.css")}, zap.NewNop()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Split() missing stylesheet error = %v", err)
	}
}
