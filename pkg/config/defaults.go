package config

import (
	"time"
)

// GetDefaultConfig returns the default configuration for the engine.
func GetDefaultConfig() *Config {
	return &Config{
		Execution: ExecutionConfig{
			MaxConcurrent:  8,
			DefaultTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "INFO",
			UseColor: true,
		},
		Storage: StorageConfig{
			Driver: "memory",
		},
	}
}

// applyDefaults fills zero-valued fields with their defaults so a partial
// config file remains usable.
func applyDefaults(cfg *Config) {
	defaults := GetDefaultConfig()

	if cfg.Execution.MaxConcurrent == 0 {
		cfg.Execution.MaxConcurrent = defaults.Execution.MaxConcurrent
	}
	if cfg.Execution.DefaultTimeout == 0 {
		cfg.Execution.DefaultTimeout = defaults.Execution.DefaultTimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaults.Storage.Driver
	}
}
