package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateOrchestrator validates chain and invocation bounds
func (v *Validator) ValidateOrchestrator(cfg OrchestratorConfig) []error {
	var errors []error

	if cfg.MaxDepth <= 0 {
		errors = append(errors, fmt.Errorf("orchestrator.max_depth must be positive, got %d", cfg.MaxDepth))
	}
	if cfg.ChainTimeoutMs < 0 {
		errors = append(errors, fmt.Errorf("orchestrator.chain_timeout_ms must be >= 0"))
	}
	if cfg.DefaultToolTimeoutMs <= 0 {
		errors = append(errors, fmt.Errorf("orchestrator.default_tool_timeout_ms must be positive"))
	}
	if cfg.MaxRetries < 0 {
		errors = append(errors, fmt.Errorf("orchestrator.max_retries must be >= 0"))
	}
	if cfg.RetryDelayMs < 0 {
		errors = append(errors, fmt.Errorf("orchestrator.retry_delay_ms must be >= 0"))
	}

	return errors
}

// ValidatePatterns validates combinator defaults
func (v *Validator) ValidatePatterns(cfg PatternsConfig) []error {
	var errors []error

	if cfg.FanOutConcurrency <= 0 {
		errors = append(errors, fmt.Errorf("patterns.fan_out_concurrency must be positive, got %d", cfg.FanOutConcurrency))
	}
	if cfg.RetryMaxAttempts <= 0 {
		errors = append(errors, fmt.Errorf("patterns.retry_max_attempts must be positive, got %d", cfg.RetryMaxAttempts))
	}
	if cfg.RetryBaseDelayMs < 0 {
		errors = append(errors, fmt.Errorf("patterns.retry_base_delay_ms must be >= 0"))
	}
	if cfg.RetryBackoffFactor < 1 {
		errors = append(errors, fmt.Errorf("patterns.retry_backoff_factor must be >= 1, got %f", cfg.RetryBackoffFactor))
	}
	if cfg.RetryJitterMs < 0 {
		errors = append(errors, fmt.Errorf("patterns.retry_jitter_ms must be >= 0"))
	}

	return errors
}

// ValidateTrace validates span retention bounds
func (v *Validator) ValidateTrace(cfg TraceConfig) []error {
	var errors []error

	if cfg.MaxSpans <= 0 {
		errors = append(errors, fmt.Errorf("trace.max_spans must be positive, got %d", cfg.MaxSpans))
	}
	if cfg.MaxAgeMs <= 0 {
		errors = append(errors, fmt.Errorf("trace.max_age_ms must be positive, got %d", cfg.MaxAgeMs))
	}

	return errors
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	errors = append(errors, v.ValidateOrchestrator(cfg.Orchestrator)...)
	errors = append(errors, v.ValidatePatterns(cfg.Patterns)...)
	errors = append(errors, v.ValidateTrace(cfg.Trace)...)

	// Validate logging
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
