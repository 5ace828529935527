package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"orchestrator":{"max_depth":5}}`), 0644))

	loader := NewLoader(configPath)

	var reloaded atomic.Value
	watcher, err := NewWatcher(loader, zerolog.Nop(), func(cfg *Config) {
		reloaded.Store(cfg)
	})
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.Watch())

	require.NoError(t, os.WriteFile(configPath, []byte(`{"orchestrator":{"max_depth":9}}`), 0644))

	require.Eventually(t, func() bool {
		return reloaded.Load() != nil
	}, 3*time.Second, 50*time.Millisecond)

	cfg := reloaded.Load().(*Config)
	assert.Equal(t, 9, cfg.Orchestrator.MaxDepth)
}

func TestWatcher_KeepsPreviousOnInvalidReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{}`), 0644))

	loader := NewLoader(configPath)

	var calls atomic.Int32
	watcher, err := NewWatcher(loader, zerolog.Nop(), func(cfg *Config) {
		calls.Add(1)
	})
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.Watch())

	// An invalid config must never reach the callback.
	require.NoError(t, os.WriteFile(configPath, []byte(`{"orchestrator":{"max_depth":-1}}`), 0644))

	time.Sleep(time.Second)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_EmptyPath(t *testing.T) {
	watcher, err := NewWatcher(NewLoader(""), zerolog.Nop(), func(*Config) {})
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NoError(t, watcher.Watch())
}
