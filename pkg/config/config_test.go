package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBytes(t *testing.T) {
	t.Run("Full config", func(t *testing.T) {
		cfg, err := LoadBytes([]byte(`
execution:
  max_concurrent: 4
  default_timeout: 30s
logging:
  level: DEBUG
  use_color: false
storage:
  driver: sqlite
  path: ":memory:"
`))
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Execution.MaxConcurrent)
		assert.Equal(t, 30*time.Second, cfg.Execution.DefaultTimeout)
		assert.Equal(t, "DEBUG", cfg.Logging.Level)
		assert.Equal(t, "sqlite", cfg.Storage.Driver)
		assert.Equal(t, ":memory:", cfg.Storage.Path)
	})

	t.Run("Empty config gets defaults", func(t *testing.T) {
		cfg, err := LoadBytes([]byte(""))
		require.NoError(t, err)

		defaults := GetDefaultConfig()
		assert.Equal(t, defaults.Execution.MaxConcurrent, cfg.Execution.MaxConcurrent)
		assert.Equal(t, defaults.Execution.DefaultTimeout, cfg.Execution.DefaultTimeout)
		assert.Equal(t, defaults.Logging.Level, cfg.Logging.Level)
		assert.Equal(t, defaults.Storage.Driver, cfg.Storage.Driver)
	})

	t.Run("Invalid yaml", func(t *testing.T) {
		_, err := LoadBytes([]byte("execution: ["))
		assert.Error(t, err)
	})

	t.Run("Unknown storage driver rejected", func(t *testing.T) {
		_, err := LoadBytes([]byte("storage:\n  driver: postgres\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Driver")
	})

	t.Run("Bad log level rejected", func(t *testing.T) {
		_, err := LoadBytes([]byte("logging:\n  level: LOUD\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log level")
	})

	t.Run("Sqlite driver requires path", func(t *testing.T) {
		_, err := LoadBytes([]byte("storage:\n  driver: sqlite\n"))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("Round trip through a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "engine.yaml")
		require.NoError(t, os.WriteFile(path, []byte("execution:\n  max_concurrent: 2\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Execution.MaxConcurrent)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestValidateConfigNil(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.Error(t, v.ValidateConfig(nil))
}
