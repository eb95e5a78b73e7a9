// Package config holds runner configuration, optionally loaded from a
// YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "1m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds configuration for the weft runner.
type Config struct {
	LogLevel     string   `yaml:"log_level"`     // debug, info, warn, error
	LogFormat    string   `yaml:"log_format"`    // text or json
	FetchTimeout Duration `yaml:"fetch_timeout"` // per-fetch timeout
	MaxInFlight  int64    `yaml:"max_inflight"`  // concurrent fetch bound
	TracePath    string   `yaml:"trace_path"`    // trace database; empty disables tracing
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "text",
		FetchTimeout: Duration(30 * time.Second),
		MaxInFlight:  8,
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
