package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
	"go.uber.org/zap"

	"silk/common"
	"silk/layer"
	"silk/style"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Engine.Naming != common.NamingModeCompact || cfg.Engine.HashBits != 32 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Engine.Breakpoints["md"] != "(min-width:768px)" || len(cfg.Engine.Breakpoints) != 5 {
		t.Errorf("Breakpoints = %v", cfg.Engine.Breakpoints)
	}
	if strings.Join(cfg.Layers.Order, ",") != strings.Join(layer.DefaultOrder, ",") {
		t.Errorf("Layers.Order = %v", cfg.Layers.Order)
	}
	if !cfg.Critical.Auto || cfg.Critical.FoldElements != 40 {
		t.Errorf("Critical = %+v", cfg.Critical)
	}
	if cfg.Cache.Size != 1000 || cfg.Cache.Pool != 8 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" || cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if filepath.Base(cfg.Logging.FileLogger.Destination) != "silk.log" || !filepath.IsAbs(cfg.Logging.FileLogger.Destination) {
		t.Errorf("Logging.FileLogger.Destination = %q", cfg.Logging.FileLogger.Destination)
	}
	if filepath.Base(cfg.Reporting.Destination) != "silk-report.zip" || !filepath.IsAbs(cfg.Reporting.Destination) {
		t.Errorf("Reporting.Destination = %q", cfg.Reporting.Destination)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `version: 1
engine:
  prefix: ui
  naming: verbose
  hash_bits: 64
  spacing_unit: 0.5
  breakpoints:
    tablet: "(min-width:900px)"
  tokens:
    colors:
      primary: "#3366FF"
layers:
  order: [base, utilities]
critical:
  include: [".hero*"]
  auto: false
output:
  workers: 2
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Engine.Prefix != "ui" || cfg.Engine.Naming != common.NamingModeVerbose || cfg.Engine.HashBits != 64 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	// maps are merged with defaults
	if cfg.Engine.Breakpoints["tablet"] != "(min-width:900px)" || cfg.Engine.Breakpoints["sm"] == "" {
		t.Errorf("Breakpoints = %v", cfg.Engine.Breakpoints)
	}
	// untouched values keep defaults
	if cfg.Engine.SpacingSuffix != "rem" || cfg.Cache.Size != 1000 {
		t.Errorf("defaults lost: %+v %+v", cfg.Engine, cfg.Cache)
	}
	if len(cfg.Layers.Order) != 2 || cfg.Critical.Auto || cfg.Output.Workers != 2 {
		t.Errorf("Layers = %+v, Critical = %+v, Output = %+v", cfg.Layers, cfg.Critical, cfg.Output)
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: 2\n"},
		{"unknown field", "version: 1\nengine:\n  colour: red\n"},
		{"hash bits", "version: 1\nengine:\n  hash_bits: 16\n"},
		{"naming", "version: 1\nengine:\n  naming: fancy\n"},
		{"spacing", "version: 1\nengine:\n  spacing_unit: 0\n"},
		{"duplicate layers", "version: 1\nlayers:\n  order: [base, base]\n"},
		{"log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("LoadConfiguration() expected error")
			}
		})
	}

	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfiguration() of missing file expected error")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Engine.Naming = common.NamingModeVerbose

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "naming: verbose") {
		t.Errorf("Dump() lacks naming mode:\n%s", data)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Engine.Naming != common.NamingModeVerbose || cfg2.Cache != cfg.Cache {
		t.Errorf("mismatch after dump/load: %+v", cfg2)
	}
}

func TestPrepareComponents(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Engine.Prefix = "x"
	cfg.Engine.Tokens = map[string]any{"space": map[string]any{"lg": 8}}

	c, err := cfg.Engine.Prepare(zap.NewNop())
	if err != nil {
		t.Fatalf("Engine.Prepare() error = %v", err)
	}
	res, err := c.Compile(style.Object{"padding": "space.lg", "md": style.Object{"margin": 1}}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Declarations) != 2 || res.Declarations[1].Property != "padding" || res.Declarations[1].Value != "2rem" || !strings.HasPrefix(res.ClassName, "x") {
		t.Errorf("Compile() = %+v", res)
	}

	cache := cfg.Cache.Prepare(c)
	name, err := cache.ClassName(style.Object{"md": style.Object{"margin": 1}, "padding": "space.lg"})
	if err != nil || name != res.ClassName {
		t.Errorf("Cache.ClassName() = %q, %v, want %q", name, err, res.ClassName)
	}
	if st := cache.Stats(); st.Capacity != 1000 || st.Misses != 1 {
		t.Errorf("Cache.Stats() = %+v", st)
	}

	classifier, err := cfg.Layers.Prepare(zap.NewNop())
	if err != nil || classifier.CatchAll() != layer.Overrides {
		t.Errorf("Layers.Prepare() = %v, %v", classifier, err)
	}
	if _, err := cfg.Critical.Prepare(zap.NewNop()); err != nil {
		t.Errorf("Critical.Prepare() error = %v", err)
	}

	cfg.Critical.Include = []string{"[bad"}
	if _, err := cfg.Critical.Prepare(nil); err == nil {
		t.Error("Critical.Prepare() expected error for malformed pattern")
	}
}
