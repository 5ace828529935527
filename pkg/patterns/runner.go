package patterns

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"
)

// DefaultFanOutConcurrency bounds FanOut when no explicit limit is given.
const DefaultFanOutConcurrency = 5

// Call names one tool invocation within a heterogeneous batch. Key labels the
// entry in gathered result maps and defaults to the tool name.
type Call struct {
	Tool string
	Args map[string]interface{}
	Key  string
}

func (c Call) key() string {
	if c.Key != "" {
		return c.Key
	}
	return c.Tool
}

// RetryPolicy controls Retry backoff. Delay before attempt n+1 is
// BaseDelay * BackoffFactor^(n-1), plus up to Jitter of random slack.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	Jitter        time.Duration
}

// Runner provides async combinators over a tool registry. Every invocation
// still funnels through Registry.Invoke, so permissions, concurrency ceilings
// and chain budgets apply inside each pattern.
type Runner struct {
	reg         *registry.Registry
	logger      zerolog.Logger
	fanOutLimit int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithFanOutConcurrency sets the default FanOut concurrency bound.
func WithFanOutConcurrency(n int) Option {
	return func(r *Runner) { r.fanOutLimit = n }
}

// NewRunner creates a combinator runner over reg.
func NewRunner(reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		reg:         reg,
		logger:      log.Logger,
		fanOutLimit: DefaultFanOutConcurrency,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// invoke folds registry "thrown" errors into a failed Result so combinators
// can branch on Success uniformly, as they do for handler failures.
func (r *Runner) invoke(ctx context.Context, tool string, args map[string]interface{}, actx *a2a.Context) registry.Result {
	result, err := r.reg.Invoke(ctx, tool, args, actx)
	if err != nil {
		fault, _ := a2a.AsFault(err)
		return registry.Result{Success: false, Error: err.Error(), Fault: fault}
	}
	return result
}

// Retry invokes a tool until it succeeds or the attempt budget is spent,
// sleeping with exponential backoff plus jitter between attempts. The sleep
// is context-aware; cancellation ends the loop with the last failure.
func (r *Runner) Retry(ctx context.Context, tool string, args map[string]interface{}, actx *a2a.Context, policy RetryPolicy) registry.Result {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	factor := policy.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	var last registry.Result
	for attempt := 1; attempt <= attempts; attempt++ {
		last = r.invoke(ctx, tool, args, actx)
		if last.Success {
			return last
		}

		r.logger.Debug().
			Str("tool", tool).
			Int("attempt", attempt).
			Int("maxAttempts", attempts).
			Msg("Retry attempt failed")

		if attempt == attempts {
			break
		}

		delay := time.Duration(float64(policy.BaseDelay) * math.Pow(factor, float64(attempt-1)))
		if policy.Jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(policy.Jitter)))
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return last
		}
	}

	return last
}

// Fallback tries primary and, on any failure, secondary with the same args.
func (r *Runner) Fallback(ctx context.Context, primary, secondary string, args map[string]interface{}, actx *a2a.Context) registry.Result {
	result := r.invoke(ctx, primary, args, actx)
	if result.Success {
		return result
	}

	r.logger.Debug().
		Str("primary", primary).
		Str("secondary", secondary).
		Msg("Primary tool failed, trying fallback")

	return r.invoke(ctx, secondary, args, actx)
}

// Branch evaluates the predicate against the chain's shared state and
// dispatches to exactly one of the two tools.
func (r *Runner) Branch(ctx context.Context, predicate func(*a2a.State) bool, toolIfTrue, toolIfFalse string, args map[string]interface{}, actx *a2a.Context) registry.Result {
	if actx == nil {
		actx = a2a.New()
	}

	tool := toolIfFalse
	if predicate(actx.State()) {
		tool = toolIfTrue
	}

	return r.invoke(ctx, tool, args, actx)
}
