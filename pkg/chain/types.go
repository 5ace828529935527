package chain

import (
	"time"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"
)

// Strategy is the execution topology applied to a plan's steps.
type Strategy string

const (
	// StrategySequential runs steps one after another.
	StrategySequential Strategy = "sequential"
	// StrategyParallel launches all steps concurrently and waits for all to settle.
	StrategyParallel Strategy = "parallel"
	// StrategyConditional gates each step on its condition against shared state.
	StrategyConditional Strategy = "conditional"
)

// OnError selects how a sequential chain reacts to a failing step.
type OnError string

const (
	// OnErrorAbort stops the chain at the first failure.
	OnErrorAbort OnError = "abort"
	// OnErrorSkip records the failure and continues.
	OnErrorSkip OnError = "skip"
	// OnErrorRetry re-attempts the failing step a bounded number of times,
	// then aborts.
	OnErrorRetry OnError = "retry"
)

// Step is one unit of a plan. Condition gates execution under the conditional
// strategy; Transform, when set, derives the step's args from the previous
// step's data under sequential strategies.
type Step struct {
	ID        string
	Tool      string
	Args      map[string]interface{}
	Condition func(state *a2a.State) bool
	Transform func(prev interface{}) map[string]interface{}
}

// Plan is a declarative multi-step execution request.
type Plan struct {
	Strategy Strategy
	Steps    []Step
	OnError  OnError
	// MaxRetries bounds per-step re-attempts under OnErrorRetry. Zero means
	// DefaultMaxRetries.
	MaxRetries int
	// RetryDelay is the pause between re-attempts. Zero means DefaultRetryDelay.
	RetryDelay time.Duration
}

// DefaultMaxRetries and DefaultRetryDelay apply when a plan leaves the retry
// knobs unset.
const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 100 * time.Millisecond
)

// StepStatus classifies a step's outcome within a ChainResult.
type StepStatus string

const (
	// StepSucceeded marks an invoked step that returned success.
	StepSucceeded StepStatus = "succeeded"
	// StepFailed marks an invoked step that settled with a failure.
	StepFailed StepStatus = "failed"
	// StepSkipped marks a step that was never invoked.
	StepSkipped StepStatus = "skipped"
)

// Summary aggregates a chain's per-step outcomes.
type Summary struct {
	TotalSteps      int   `json:"totalSteps"`
	SuccessfulSteps int   `json:"successfulSteps"`
	FailedSteps     int   `json:"failedSteps"`
	SkippedSteps    int   `json:"skippedSteps"`
	TotalDurationMs int64 `json:"totalDurationMs"`
}

// ChainResult is the always-returned outcome of ExecuteChain. Individual step
// failures never surface as errors; they live in StepResults and the summary.
type ChainResult struct {
	Success      bool                       `json:"success"`
	StepResults  map[string]registry.Result `json:"stepResults"`
	StepStatuses map[string]StepStatus      `json:"stepStatuses"`
	Summary      Summary                    `json:"summary"`
}
