package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileLogger(t *testing.T, cfg Config) (*Logger, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "orchestrator.log")
	cfg.File = logFile
	cfg.Console = false

	lg, err := New(cfg)
	require.NoError(t, err)
	return lg, logFile
}

func TestNew_ConsoleOnly(t *testing.T) {
	lg, err := New(Config{Level: "info", Console: true})
	require.NoError(t, err)
	require.NotNil(t, lg)
	assert.NoError(t, lg.Close())
}

func TestNew_FileSink(t *testing.T) {
	lg, logFile := fileLogger(t, Config{Level: "debug"})

	lg.Info().Str("tool_name", "echo").Msg("tool invoked")
	require.NoError(t, lg.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"tool_name":"echo"`)
}

func TestNew_RedactsToolArgumentCredentials(t *testing.T) {
	lg, logFile := fileLogger(t, Config{Level: "info", Redaction: true})
	require.NotNil(t, lg.redactor)

	// Callers routinely pass credentials in tool arguments; none of them may
	// survive into the file sink.
	lg.Info().
		Str("tool_name", "http_fetch").
		Str("args", `{"url":"https://api.example.com","api_key":"sk-abcdefghij0123456789extra"}`).
		Msg("tool invoked")
	lg.Info().
		Str("args", `{"auth":"Bearer eyJhbGciOiJIUzI1NiJ9.payload"}`).
		Msg("tool invoked")
	require.NoError(t, lg.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	out := string(content)

	assert.NotContains(t, out, "sk-abcdefghij0123456789extra")
	assert.NotContains(t, out, "eyJhbGciOiJIUzI1NiJ9")
	assert.Contains(t, out, "[REDACTED]")
	// Non-sensitive argument fields stay readable.
	assert.Contains(t, out, "api.example.com")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	lg, err := New(Config{Level: "shouting", Console: false})
	require.NoError(t, err)
	defer lg.Close()

	assert.Equal(t, zerolog.InfoLevel, lg.GetZerolog().GetLevel())
}

func TestLogger_LevelsAndChildContext(t *testing.T) {
	lg, logFile := fileLogger(t, Config{Level: "debug"})

	lg.Debug().Msg("resolving tool")
	lg.Warn().Msg("output schema mismatch")
	lg.Error().Msg("handler panicked")

	child := lg.With().Str("correlation_id", "corr-1").Logger()
	child.Info().Msg("chain started")
	require.NoError(t, lg.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	out := string(content)

	assert.Contains(t, out, "resolving tool")
	assert.Contains(t, out, "output schema mismatch")
	assert.Contains(t, out, "handler panicked")
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Pretty)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.True(t, cfg.Compress)
}
