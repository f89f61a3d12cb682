package config

import (
	"time"
)

// Config represents the complete configuration for the chainflow engine.
type Config struct {
	// Execution configuration
	Execution ExecutionConfig `yaml:"execution,omitempty" validate:"omitempty"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// Storage configuration for the chain repository
	Storage StorageConfig `yaml:"storage,omitempty" validate:"omitempty"`
}

// ExecutionConfig controls how the coordinator schedules step invocations.
type ExecutionConfig struct {
	// MaxConcurrent bounds parallel step execution and concurrent
	// resource-existence checks during validation.
	MaxConcurrent int `yaml:"max_concurrent,omitempty" validate:"omitempty,min=1,max=256"`

	// DefaultTimeout applies to each step-runner invocation.
	DefaultTimeout time.Duration `yaml:"default_timeout,omitempty" validate:"omitempty,min=0"`
}

// LoggingConfig controls log verbosity and destinations.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR, FATAL.
	Level string `yaml:"level,omitempty" validate:"omitempty,log_level"`

	// FilePath, when set, adds a JSON file output next to the console output.
	FilePath string `yaml:"file_path,omitempty"`

	// UseColor enables ANSI colors on the console output.
	UseColor bool `yaml:"use_color,omitempty"`
}

// StorageConfig selects and configures the chain repository backend.
type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver,omitempty" validate:"omitempty,oneof=memory sqlite"`

	// Path is the SQLite database file, or ":memory:" for an in-memory
	// database. Ignored by the memory driver.
	Path string `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
}
