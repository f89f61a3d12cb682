package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses configuration from raw YAML.
func LoadBytes(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if err := v.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
