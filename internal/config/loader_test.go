package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.json")
	assert.NotNil(t, loader)
	assert.Equal(t, "/path/to/config.json", loader.GetConfigPath())
}

func TestLoaderLoad(t *testing.T) {
	t.Run("load default config when file doesn't exist", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nonexistent.json")

		loader := NewLoader(configPath)
		cfg, err := loader.Load()

		require.NoError(t, err)
		assert.NotNil(t, cfg)
		assert.Equal(t, 5, cfg.Orchestrator.MaxDepth)
	})

	t.Run("load default config with empty path", func(t *testing.T) {
		loader := NewLoader("")
		cfg, err := loader.Load()

		require.NoError(t, err)
		assert.Equal(t, 10000, cfg.Trace.MaxSpans)
	})

	t.Run("load config from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")

		testConfig := `{
			"orchestrator": {
				"max_depth": 8,
				"chain_timeout_ms": 120000
			},
			"trace": {
				"max_spans": 500
			},
			"logging": {
				"level": "debug"
			}
		}`
		err := os.WriteFile(configPath, []byte(testConfig), 0644)
		require.NoError(t, err)

		loader := NewLoader(configPath)
		cfg, err := loader.Load()

		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Orchestrator.MaxDepth)
		assert.Equal(t, int64(120000), cfg.Orchestrator.ChainTimeoutMs)
		assert.Equal(t, 500, cfg.Trace.MaxSpans)
		assert.Equal(t, "debug", cfg.Logging.Level)

		// Unset sections keep their defaults.
		assert.Equal(t, 5, cfg.Patterns.FanOutConcurrency)
	})

	t.Run("invalid json", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")

		err := os.WriteFile(configPath, []byte("{not json"), 0644)
		require.NoError(t, err)

		loader := NewLoader(configPath)
		_, err = loader.Load()
		assert.Error(t, err)
	})
}

func TestLoadConvenience(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Orchestrator.MaxDepth)
}
