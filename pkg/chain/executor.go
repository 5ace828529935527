package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"
)

// Tracer records chain-level events. Implemented by pkg/trace.
type Tracer interface {
	StartChain(correlationID string)
	EndChain(correlationID string, success bool, errorMessage string)
}

// Metrics receives chain instrumentation. Implemented by internal/metrics.
type Metrics interface {
	ObserveChain(strategy, status string, d time.Duration)
}

// Executor interprets declarative plans against a registry and a chain
// context.
type Executor struct {
	reg     *registry.Registry
	tracer  Tracer
	metrics Metrics
	logger  zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracer attaches a chain-event recorder.
func WithTracer(t Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// WithMetrics attaches chain instrumentation.
func WithMetrics(m Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates a plan executor over reg.
func NewExecutor(reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		reg:    reg,
		logger: log.Logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecuteChain runs a plan and always returns a ChainResult for valid plans;
// individual step failures are recorded, never raised. Unknown strategies and
// onError policies return an ExecutionStrategyError.
func (e *Executor) ExecuteChain(ctx context.Context, plan Plan, actx *a2a.Context) (ChainResult, error) {
	if actx == nil {
		actx = a2a.New()
	}

	onError := plan.OnError
	if onError == "" {
		onError = OnErrorAbort
	}

	switch plan.Strategy {
	case StrategySequential, StrategyParallel, StrategyConditional:
	default:
		return ChainResult{}, a2a.NewStrategyError(string(plan.Strategy))
	}

	switch onError {
	case OnErrorAbort, OnErrorSkip, OnErrorRetry:
	default:
		return ChainResult{}, a2a.NewOnErrorPolicyError(string(plan.OnError))
	}

	e.logger.Info().
		Str("correlationId", actx.CorrelationID()).
		Str("strategy", string(plan.Strategy)).
		Str("onError", string(onError)).
		Int("steps", len(plan.Steps)).
		Msg("Starting chain execution")

	if e.tracer != nil {
		e.tracer.StartChain(actx.CorrelationID())
	}

	started := time.Now()
	cr := ChainResult{
		StepResults:  make(map[string]registry.Result, len(plan.Steps)),
		StepStatuses: make(map[string]StepStatus, len(plan.Steps)),
	}

	switch plan.Strategy {
	case StrategySequential:
		e.runSequential(ctx, plan, onError, actx, &cr, false)
	case StrategyConditional:
		e.runSequential(ctx, plan, onError, actx, &cr, true)
	case StrategyParallel:
		e.runParallel(ctx, plan, actx, &cr)
	}

	e.summarize(&cr, len(plan.Steps), time.Since(started))

	if e.tracer != nil {
		e.tracer.EndChain(actx.CorrelationID(), cr.Success, firstError(plan, &cr))
	}
	if e.metrics != nil {
		status := "success"
		if !cr.Success {
			status = "failed"
		}
		e.metrics.ObserveChain(string(plan.Strategy), status, time.Since(started))
	}

	e.logger.Info().
		Str("correlationId", actx.CorrelationID()).
		Bool("success", cr.Success).
		Int("failedSteps", cr.Summary.FailedSteps).
		Int("skippedSteps", cr.Summary.SkippedSteps).
		Dur("duration", time.Since(started)).
		Msg("Chain execution completed")

	return cr, nil
}

// runSequential executes steps in order. With conditional=true each step's
// Condition gates execution; absent conditions run unconditionally.
func (e *Executor) runSequential(ctx context.Context, plan Plan, onError OnError, actx *a2a.Context, cr *ChainResult, conditional bool) {
	var prevData interface{}

	for i, step := range plan.Steps {
		id := stepID(step, i)

		if conditional && step.Condition != nil && !step.Condition(actx.State()) {
			cr.StepStatuses[id] = StepSkipped
			e.logger.Debug().Str("step", id).Msg("Step condition false, skipping")
			continue
		}

		args := step.Args
		if step.Transform != nil {
			args = step.Transform(prevData)
		}

		result := e.invokeStep(ctx, step, args, actx)

		if !result.Success && onError == OnErrorRetry {
			result = e.retryStep(ctx, plan, step, args, actx, result)
		}

		cr.StepResults[id] = result
		if result.Success {
			cr.StepStatuses[id] = StepSucceeded
			prevData = result.Data
			continue
		}
		cr.StepStatuses[id] = StepFailed

		if onError == OnErrorSkip {
			continue
		}

		// Abort semantics, also the fallback once retries are exhausted:
		// remaining steps are recorded as skipped.
		for j := i + 1; j < len(plan.Steps); j++ {
			cr.StepStatuses[stepID(plan.Steps[j], j)] = StepSkipped
		}
		return
	}
}

// runParallel launches every step concurrently and waits for all of them to
// settle regardless of individual outcome.
func (e *Executor) runParallel(ctx context.Context, plan Plan, actx *a2a.Context, cr *ChainResult) {
	results := make([]registry.Result, len(plan.Steps))
	var wg sync.WaitGroup

	for i, step := range plan.Steps {
		wg.Add(1)
		go func(index int, s Step) {
			defer wg.Done()
			results[index] = e.invokeStep(ctx, s, s.Args, actx)
		}(i, step)
	}

	wg.Wait()

	for i, step := range plan.Steps {
		id := stepID(step, i)
		cr.StepResults[id] = results[i]
		if results[i].Success {
			cr.StepStatuses[id] = StepSucceeded
		} else {
			cr.StepStatuses[id] = StepFailed
		}
	}
}

// retryStep re-attempts a failed step up to the plan's retry budget.
func (e *Executor) retryStep(ctx context.Context, plan Plan, step Step, args map[string]interface{}, actx *a2a.Context, last registry.Result) registry.Result {
	retries := plan.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	delay := plan.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	for attempt := 1; attempt <= retries; attempt++ {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return last
		}

		e.logger.Debug().
			Str("tool", step.Tool).
			Int("attempt", attempt).
			Int("maxRetries", retries).
			Msg("Retrying failed step")

		last = e.invokeStep(ctx, step, args, actx)
		if last.Success {
			return last
		}
	}

	return last
}

// invokeStep folds registry-raised errors into a failed result so chain
// execution under skip semantics never throws for a single step.
func (e *Executor) invokeStep(ctx context.Context, step Step, args map[string]interface{}, actx *a2a.Context) registry.Result {
	result, err := e.reg.Invoke(ctx, step.Tool, args, actx)
	if err != nil {
		fault, _ := a2a.AsFault(err)
		return registry.Result{Success: false, Error: err.Error(), Fault: fault}
	}
	return result
}

func (e *Executor) summarize(cr *ChainResult, totalSteps int, elapsed time.Duration) {
	cr.Summary.TotalSteps = totalSteps
	cr.Summary.TotalDurationMs = elapsed.Milliseconds()

	for _, status := range cr.StepStatuses {
		switch status {
		case StepSucceeded:
			cr.Summary.SuccessfulSteps++
		case StepFailed:
			cr.Summary.FailedSteps++
		case StepSkipped:
			cr.Summary.SkippedSteps++
		}
	}

	cr.Success = cr.Summary.FailedSteps == 0
}

// firstError walks steps in plan order so the reported failure is
// deterministic when several steps fail.
func firstError(plan Plan, cr *ChainResult) string {
	for i, step := range plan.Steps {
		id := stepID(step, i)
		if cr.StepStatuses[id] == StepFailed {
			return fmt.Sprintf("step %s: %s", id, cr.StepResults[id].Error)
		}
	}
	return ""
}

func stepID(step Step, index int) string {
	if step.ID != "" {
		return step.ID
	}
	return fmt.Sprintf("step-%d", index)
}
