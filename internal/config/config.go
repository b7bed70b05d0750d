// Package config loads simulator settings and scenarios from YAML.
//
// Files are decoded into a generic map first and then bound onto the
// defaults, so a file only needs to name the keys it changes. Scalars are
// weakly typed: "1024" and 1024 are both accepted for total_memory.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/memory"
	"github.com/joshuapare/memsim/memory/paging"
)

// ErrInvalid is returned for files that parse but do not describe a usable
// configuration.
var ErrInvalid = errors.New("config: invalid configuration")

// Config mirrors memory.Options in file form.
type Config struct {
	TotalMemory    int    `yaml:"total_memory"`
	PageSize       int    `yaml:"page_size"`
	MinProcessSize int    `yaml:"min_process_size"`
	MaxProcessSize int    `yaml:"max_process_size"`
	Strategy       string `yaml:"strategy"`
	Policy         string `yaml:"policy"`
	// UniqueNames tags generated process names with a short random suffix.
	UniqueNames bool `yaml:"unique_names"`
	// LogLevel turns on logging at that level. Empty leaves logging off.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration equivalent to memory.DefaultOptions().
func Default() *Config {
	o := memory.DefaultOptions()
	return &Config{
		TotalMemory:    o.TotalMemory,
		PageSize:       o.PageSize,
		MinProcessSize: o.MinProcessSize,
		MaxProcessSize: o.MaxProcessSize,
		Strategy:       strings.ToLower(o.Strategy.String()),
		Policy:         strings.ToLower(o.Policy.String()),
	}
}

// Load reads a configuration file. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML onto Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(data, cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Options(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML unmarshals data into a map and binds it onto out.
func decodeYAML(data []byte, out any) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Options converts the configuration into validated manager options.
func (c *Config) Options() (*memory.Options, error) {
	kind, err := memory.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	policy, err := paging.ParsePolicy(c.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Level(); err != nil {
		return nil, err
	}

	opts := &memory.Options{
		TotalMemory:    c.TotalMemory,
		PageSize:       c.PageSize,
		MinProcessSize: c.MinProcessSize,
		MaxProcessSize: c.MaxProcessSize,
		Strategy:       kind,
		Policy:         policy,
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return opts, nil
}

// Level returns the configured log level. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
		return logger.ParseLevel(c.LogLevel), nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
}
