// Package config loads the passgraph configuration file.
//
// The file is YAML. It is decoded into a generic map first and then into Config through
// mapstructure, so durations may be written as strings ("90s") and unknown keys are
// rejected.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/passgraph/pkg/adapters/process"
)

// Backend names for caches and stores.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Output formats.
const (
	FormatGML     = "gml"
	FormatJSON    = "json"
	FormatHTML    = "html"
	FormatMermaid = "mermaid"
)

// Config is the full application configuration.
type Config struct {
	Catalogue       []string                `mapstructure:"catalogue"`
	CatalogueFile   string                  `mapstructure:"catalogue_file"`
	CataloguePreset string                  `mapstructure:"catalogue_preset"`
	Bounds          Bounds                  `mapstructure:"bounds"`
	Timeouts        Timeouts                `mapstructure:"timeouts"`
	Parallelism     int                     `mapstructure:"parallelism"`
	ToolsFile       string                  `mapstructure:"tools_file"`
	Tools           []process.ProcessConfig `mapstructure:"tools"`
	Cache           BackendConfig           `mapstructure:"cache"`
	Store           BackendConfig           `mapstructure:"store"`
	Discovery       Discovery               `mapstructure:"discovery"`
	Output          Output                  `mapstructure:"output"`
	Log             Log                     `mapstructure:"log"`
}

// Bounds caps a single exploration. Zero disables a bound.
type Bounds struct {
	MaxNodes    int           `mapstructure:"max_nodes"`
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// Timeouts caps individual collaborator calls. Zero disables a timeout.
type Timeouts struct {
	Transform   time.Duration `mapstructure:"transform"`
	Equivalence time.Duration `mapstructure:"equivalence"`
	Frontend    time.Duration `mapstructure:"frontend"`
}

// BackendConfig selects a cache or store implementation.
type BackendConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Redis   Redis  `mapstructure:"redis"`
}

// Redis holds connection settings.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Discovery controls how roots are found under directory arguments.
type Discovery struct {
	Pattern       string `mapstructure:"pattern"`
	SourcePattern string `mapstructure:"source_pattern"`
}

// Output controls where artifacts are written.
type Output struct {
	Dir     string   `mapstructure:"dir"`
	WorkDir string   `mapstructure:"work_dir"`
	Formats []string `mapstructure:"formats"`
}

// Log controls the application logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no file is given.
// Bounds match the historical ceilings of 10000 nodes and 10000 seconds.
func Default() *Config {
	return &Config{
		Bounds:      Bounds{MaxNodes: 10000, MaxDuration: 10000 * time.Second},
		Timeouts:    Timeouts{Transform: 60 * time.Second, Equivalence: 60 * time.Second, Frontend: 60 * time.Second},
		Parallelism: 1,
		Cache:       BackendConfig{Backend: BackendMemory, Redis: Redis{Addr: "localhost:6379"}},
		Store:       BackendConfig{Backend: BackendFile, Dir: filepath.Join(".passgraph", "runs"), Redis: Redis{Addr: "localhost:6379"}},
		Discovery:   Discovery{Pattern: "**/*.ll", SourcePattern: "**/*.c"},
		Output:      Output{Dir: "out", Formats: []string{FormatGML, FormatJSON, FormatHTML, FormatMermaid}},
		Log:         Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML data onto cfg.
func (c *Config) Decode(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		ZeroFields:  true,
		Result:      c,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// ResolveCatalogue fills Catalogue from the preset or the catalogue file when it was not
// listed inline, then validates the result.
func (c *Config) ResolveCatalogue() ([]string, error) {
	names := c.Catalogue
	if len(names) == 0 && c.CatalogueFile != "" {
		loaded, err := LoadCatalogue(c.CatalogueFile)
		if err != nil {
			return nil, err
		}
		names = loaded
	}
	if len(names) == 0 && c.CataloguePreset != "" {
		preset, ok := Presets[c.CataloguePreset]
		if !ok {
			return nil, fmt.Errorf("unknown catalogue preset %q", c.CataloguePreset)
		}
		names = preset
	}
	if err := ValidateCatalogue(names); err != nil {
		return nil, err
	}
	return append([]string(nil), names...), nil
}

// ValidateCatalogue rejects empty catalogues, blank names and duplicates.
func ValidateCatalogue(names []string) error {
	if len(names) == 0 {
		return errors.New("catalogue is empty")
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("catalogue entry %d is blank", i)
		}
		if seen[n] {
			return fmt.Errorf("catalogue entry %q is duplicated", n)
		}
		seen[n] = true
	}
	return nil
}

// LoadCatalogue reads one transformation name per line. Blank lines and lines starting
// with '#' are ignored.
func LoadCatalogue(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return names, nil
}

// ResolveTools merges the built-in LLVM tools, the tools file and inline tools, in that
// order of precedence (later wins).
func (c *Config) ResolveTools() (map[string]process.ProcessConfig, error) {
	tools := process.DefaultTools()
	if c.ToolsFile != "" {
		loaded, err := process.LoadTools(c.ToolsFile)
		if err != nil {
			return nil, err
		}
		for name, t := range loaded {
			tools[name] = t
		}
	}
	for _, t := range c.Tools {
		if t.Name == "" {
			return nil, errors.New("inline tool missing name")
		}
		tools[t.Name] = t
	}
	return tools, nil
}

// Validate checks the fields that do not depend on the file system.
func (c *Config) Validate() error {
	var errs []error
	if c.Bounds.MaxNodes < 0 {
		errs = append(errs, errors.New("bounds.max_nodes must not be negative"))
	}
	if c.Bounds.MaxDuration < 0 {
		errs = append(errs, errors.New("bounds.max_duration must not be negative"))
	}
	if c.Parallelism < 1 {
		errs = append(errs, errors.New("parallelism must be at least 1"))
	}
	if !oneOf(c.Cache.Backend, BackendNone, BackendMemory, BackendRedis) {
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if !oneOf(c.Store.Backend, BackendMemory, BackendRedis, BackendFile) {
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	for _, f := range c.Output.Formats {
		if !oneOf(f, FormatGML, FormatJSON, FormatHTML, FormatMermaid) {
			errs = append(errs, fmt.Errorf("unknown output format %q", f))
		}
	}
	return errors.Join(errs...)
}

// Wants reports whether format is among the configured outputs.
func (o Output) Wants(format string) bool {
	return oneOf(format, o.Formats...)
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
