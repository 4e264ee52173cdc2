package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"silk/atom"
	"silk/canon"
	"silk/common"
	"silk/compiler"
	"silk/critical"
	"silk/layer"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	EngineConfig struct {
		Prefix        string            `yaml:"prefix"`
		Naming        common.NamingMode `yaml:"naming"`
		HashBits      int               `yaml:"hash_bits" validate:"oneof=32 64"`
		ValueFragment int               `yaml:"value_fragment" validate:"min=1,max=64"`
		SpacingUnit   float64           `yaml:"spacing_unit" validate:"gt=0"`
		SpacingSuffix string            `yaml:"spacing_suffix" validate:"required"`
		DefaultUnit   string            `yaml:"default_unit"`
		PseudoPrefix  string            `yaml:"pseudo_prefix" validate:"required"`
		Breakpoints   map[string]string `yaml:"breakpoints" validate:"dive,keys,required,endkeys,required"`
		Tokens        map[string]any    `yaml:"tokens"`
	}

	LayersConfig struct {
		Order    []string `yaml:"order" validate:"unique,dive,required"`
		CatchAll string   `yaml:"catch_all"`
	}

	CriticalConfig struct {
		Include      []string `yaml:"include" validate:"dive,required"`
		Exclude      []string `yaml:"exclude" validate:"dive,required"`
		Auto         bool     `yaml:"auto"`
		Selectors    []string `yaml:"selectors" validate:"dive,required"`
		FoldElements int      `yaml:"fold_elements" validate:"min=0"`
	}

	CacheConfig struct {
		Size int `yaml:"size" validate:"min=1"`
		Pool int `yaml:"pool" validate:"min=1"`
	}

	OutputConfig struct {
		Name     string `yaml:"name"`
		Snapshot string `yaml:"snapshot,omitempty" sanitize:"path_clean"`
		Workers  int    `yaml:"workers" validate:"min=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Engine    EngineConfig   `yaml:"engine"`
		Layers    LayersConfig   `yaml:"layers"`
		Critical  CriticalConfig `yaml:"critical"`
		Cache     CacheConfig    `yaml:"cache"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// CompilerOptions converts engine configuration into pipeline options.
func (conf *EngineConfig) CompilerOptions() compiler.Options {
	units := canon.DefaultUnits()
	units.Spacing = decimal.NewFromFloat(conf.SpacingUnit)
	units.SpacingSuffix = conf.SpacingSuffix
	units.Default = conf.DefaultUnit

	return compiler.Options{
		Canon: canon.Options{
			PseudoPrefix: conf.PseudoPrefix,
			Breakpoints:  conf.Breakpoints,
			Units:        units,
			Tokens:       conf.Tokens,
		},
		Namer: atom.NamerOptions{
			Prefix:   conf.Prefix,
			Mode:     conf.Naming,
			Bits:     conf.HashBits,
			Fragment: conf.ValueFragment,
		},
	}
}

// Prepare creates compiler from engine configuration.
func (conf *EngineConfig) Prepare(log *zap.Logger) (*compiler.Compiler, error) {
	return compiler.New(conf.CompilerOptions(), log)
}

// Prepare creates layer classifier.
func (conf *LayersConfig) Prepare(log *zap.Logger) (*layer.Classifier, error) {
	return layer.New(conf.Order, conf.CatchAll, log)
}

// Prepare creates critical partitioner.
func (conf *CriticalConfig) Prepare(log *zap.Logger) (*critical.Partitioner, error) {
	return critical.New(critical.Options{
		Include:       conf.Include,
		Exclude:       conf.Exclude,
		Auto:          conf.Auto,
		AutoSelectors: conf.Selectors,
	}, log)
}

// Prepare creates runtime class name cache over compiler built from the same
// configuration.
func (conf *CacheConfig) Prepare(c *compiler.Compiler) *compiler.Cache {
	return compiler.NewCache(c, conf.Size, conf.Pool)
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
