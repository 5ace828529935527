package config

import (
	"encoding/json"
	"time"
)

// Config represents the orchestration core configuration
type Config struct {
	// Orchestrator
	Orchestrator OrchestratorConfig `json:"orchestrator" mapstructure:"orchestrator"`

	// Patterns
	Patterns PatternsConfig `json:"patterns" mapstructure:"patterns"`

	// Trace
	Trace TraceConfig `json:"trace" mapstructure:"trace"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// OrchestratorConfig bounds chains and single invocations
type OrchestratorConfig struct {
	MaxDepth             int   `json:"max_depth" mapstructure:"max_depth"`
	ChainTimeoutMs       int64 `json:"chain_timeout_ms" mapstructure:"chain_timeout_ms"`
	DefaultToolTimeoutMs int64 `json:"default_tool_timeout_ms" mapstructure:"default_tool_timeout_ms"`
	MaxRetries           int   `json:"max_retries" mapstructure:"max_retries"`
	RetryDelayMs         int64 `json:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// PatternsConfig holds combinator defaults
type PatternsConfig struct {
	FanOutConcurrency  int     `json:"fan_out_concurrency" mapstructure:"fan_out_concurrency"`
	RetryMaxAttempts   int     `json:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryBaseDelayMs   int64   `json:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"`
	RetryBackoffFactor float64 `json:"retry_backoff_factor" mapstructure:"retry_backoff_factor"`
	RetryJitterMs      int64   `json:"retry_jitter_ms" mapstructure:"retry_jitter_ms"`
}

// TraceConfig bounds span retention
type TraceConfig struct {
	MaxSpans int   `json:"max_spans" mapstructure:"max_spans"`
	MaxAgeMs int64 `json:"max_age_ms" mapstructure:"max_age_ms"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	MaxSizeMB int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxAgeDay int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress  bool   `json:"compress" mapstructure:"compress"`
}

// ChainTimeout returns the chain budget as a duration
func (c OrchestratorConfig) ChainTimeout() time.Duration {
	return time.Duration(c.ChainTimeoutMs) * time.Millisecond
}

// DefaultToolTimeout returns the per-tool handler deadline as a duration
func (c OrchestratorConfig) DefaultToolTimeout() time.Duration {
	return time.Duration(c.DefaultToolTimeoutMs) * time.Millisecond
}

// TraceMaxAge returns the span age ceiling as a duration
func (c TraceConfig) TraceMaxAge() time.Duration {
	return time.Duration(c.MaxAgeMs) * time.Millisecond
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxDepth:             5,
			ChainTimeoutMs:       60000,
			DefaultToolTimeoutMs: 30000,
			MaxRetries:           2,
			RetryDelayMs:         100,
		},
		Patterns: PatternsConfig{
			FanOutConcurrency:  5,
			RetryMaxAttempts:   3,
			RetryBaseDelayMs:   100,
			RetryBackoffFactor: 2,
			RetryJitterMs:      50,
		},
		Trace: TraceConfig{
			MaxSpans: 10000,
			MaxAgeMs: 3600000,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    false,
			Redaction: true,
			MaxSizeMB: 100,
			MaxAgeDay: 7,
			Compress:  true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
