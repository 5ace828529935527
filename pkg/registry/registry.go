package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
)

// DefaultToolTimeout bounds a single handler run when the descriptor does not
// set its own timeout.
const DefaultToolTimeout = 30 * time.Second

// Handler is the function signature for tool execution. The a2a context is the
// derived chain context for this invocation; nested invocations must pass it
// back into Registry.Invoke so depth and permissions are enforced.
type Handler func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error)

// Descriptor declares a tool's contract. Descriptors are immutable once
// registered.
type Descriptor struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	InputSchema    map[string]interface{} `json:"inputSchema,omitempty"`
	OutputSchema   map[string]interface{} `json:"outputSchema,omitempty"`
	CanInvoke      []string               `json:"canInvoke,omitempty"`
	MaxConcurrency int                    `json:"maxConcurrency,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Timeout        time.Duration          `json:"-"`
}

// Result is the outcome of one invocation. Ordinary task failure is reported
// here with Success=false, never as a returned error.
type Result struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Fault    *a2a.Fault             `json:"fault,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Tracer records per-invocation spans. Implemented by pkg/trace.
type Tracer interface {
	StartToolSpan(actx *a2a.Context, toolName, inputHash string) string
	EndToolSpan(spanID, status, errorMessage string)
}

// Metrics receives invocation instrumentation. Implemented by internal/metrics.
type Metrics interface {
	ObserveInvocation(tool, status string, d time.Duration)
	SetActiveInvocations(tool string, n int)
	IncConcurrencyRejection(tool string)
}

type entry struct {
	desc    Descriptor
	handler Handler
	policy  invokePolicy
	active  int
}

// Registry holds tool descriptors and is the single enforcement point for
// permissions, concurrency ceilings and error classification. All invocation
// paths funnel through Invoke.
type Registry struct {
	mu             sync.RWMutex
	tools          map[string]*entry
	validator      Validator
	tracer         Tracer
	metrics        Metrics
	logger         zerolog.Logger
	defaultTimeout time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithValidator replaces the default JSON Schema validator.
func WithValidator(v Validator) Option {
	return func(r *Registry) { r.validator = v }
}

// WithTracer attaches a span recorder to every invocation.
func WithTracer(t Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// WithMetrics attaches invocation instrumentation.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithDefaultTimeout sets the handler timeout used when a descriptor has none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Registry) { r.defaultTimeout = d }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tools:          make(map[string]*entry),
		validator:      NewSchemaValidator(),
		logger:         log.Logger,
		defaultTimeout: DefaultToolTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared process-wide registry. Tests that use it should
// call Reset for isolation.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New() })
	return defaultReg
}

// Register adds a tool. It fails when the name is already taken or the
// descriptor is malformed.
func (r *Registry) Register(desc Descriptor, handler Handler) error {
	if desc.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if desc.Description == "" {
		return fmt.Errorf("tool description cannot be empty for %s", desc.Name)
	}
	if handler == nil {
		return fmt.Errorf("tool handler cannot be nil for %s", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool already registered: %s", desc.Name)
	}

	r.tools[desc.Name] = &entry{
		desc:    desc,
		handler: handler,
		policy:  compilePolicy(desc.CanInvoke),
	}

	r.logger.Info().
		Str("tool", desc.Name).
		Strs("canInvoke", desc.CanInvoke).
		Int("maxConcurrency", desc.MaxConcurrency).
		Msg("Tool registered")

	return nil
}

// Unregister removes a tool. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tools, name)

	r.logger.Info().Str("tool", name).Msg("Tool unregistered")
}

// Reset removes every registered tool. Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]*entry)

	r.logger.Debug().Msg("Registry reset")
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// ActiveInvocations returns the live in-flight count for a tool.
func (r *Registry) ActiveInvocations(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.tools[name]; ok {
		return e.active
	}
	return 0
}

// Invoke runs a registered tool. Task-level failures (schema validation,
// handler errors, handler panics, per-tool timeouts) are recovered into a
// Result with Success=false. Configuration and budget violations (unknown
// tool, permission, depth, chain timeout, concurrency ceiling) are returned
// as errors carrying an a2a.Fault.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}, actx *a2a.Context) (Result, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error().Str("tool", name).Msg("Tool not found")
		return Result{}, a2a.NewToolNotFoundError(name)
	}

	if actx == nil {
		actx = a2a.New()
	}

	// Depth and chain wall-clock budgets fail fast at the boundary.
	if err := actx.CheckBudget(name); err != nil {
		r.logger.Warn().
			Str("tool", name).
			Str("correlationId", actx.CorrelationID()).
			Err(err).
			Msg("Chain budget exhausted")
		return Result{}, err
	}

	inputHash := a2a.HashArgs(args)

	// Schema validation settles before permission and concurrency ever come
	// into play: a malformed call is a task outcome, not a thrown error, and
	// it must not consume a concurrency slot.
	if e.desc.InputSchema != nil {
		if err := r.validator.Validate(args, e.desc.InputSchema); err != nil {
			r.logger.Error().Str("tool", name).Err(err).Msg("Parameter validation failed")
			return r.finish(actx, e, inputHash, Result{
				Success: false,
				Error:   fmt.Sprintf("parameter validation failed: %v", err),
			}, time.Now(), "", "error"), nil
		}
	}

	// Permission: the immediate parent tool must allow the callee.
	if parent := actx.ParentToolName(); parent != "" {
		r.mu.RLock()
		pe, pok := r.tools[parent]
		r.mu.RUnlock()

		if !pok || !pe.policy.allows(name) {
			r.logger.Warn().
				Str("tool", name).
				Str("parent", parent).
				Msg("Invocation blocked by permission policy")
			return Result{}, a2a.NewNotAllowedError(parent, name)
		}
	}

	// Concurrency ceiling: immediate rejection, never a queue.
	if err := r.acquireSlot(e); err != nil {
		if r.metrics != nil {
			r.metrics.IncConcurrencyRejection(name)
		}
		return Result{}, err
	}
	defer r.releaseSlot(e)

	var spanID string
	if r.tracer != nil {
		spanID = r.tracer.StartToolSpan(actx, name, inputHash)
	}
	childCtx := actx.Child(name).WithSpan(spanID)

	timeout := e.desc.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	started := time.Now()
	result, status := r.runHandler(ctx, e, args, childCtx, timeout)

	if result.Success && e.desc.OutputSchema != nil {
		// Best effort only: an output mismatch is logged, never fails the call.
		if err := r.validator.Validate(result.Data, e.desc.OutputSchema); err != nil {
			r.logger.Warn().Str("tool", name).Err(err).Msg("Output schema mismatch")
		}
	}

	return r.finish(actx, e, inputHash, result, started, spanID, status), nil
}

// runHandler executes the handler under a per-tool deadline. The deadline is
// propagated into the handler's context, so cooperative handlers stop early;
// a handler that ignores it keeps running in the background after the timeout
// is reported.
func (r *Registry) runHandler(ctx context.Context, e *entry, args map[string]interface{}, childCtx *a2a.Context, timeout time.Duration) (Result, string) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := e.desc.Name
	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errChan <- fmt.Errorf("handler panic: %v", rec)
			}
		}()

		out, err := e.handler(tctx, args, childCtx)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- out
		}
	}()

	select {
	case out := <-resultChan:
		return Result{Success: true, Data: out}, "success"

	case err := <-errChan:
		fault := a2a.NewInvocationError(name, err)
		r.logger.Error().Str("tool", name).Err(err).Msg("Tool execution failed")
		return Result{Success: false, Error: err.Error(), Fault: fault}, "error"

	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			fault := a2a.NewToolTimeoutError(name, timeout)
			r.logger.Error().Str("tool", name).Dur("timeout", timeout).Msg("Tool execution timeout")
			return Result{Success: false, Error: fault.Message, Fault: fault}, "timeout"
		}

		fault := a2a.NewInvocationError(name, tctx.Err())
		return Result{Success: false, Error: fault.Message, Fault: fault}, "error"
	}
}

// finish closes the span, appends the execution-log entry, attaches metadata
// and reports metrics for one settled invocation.
func (r *Registry) finish(actx *a2a.Context, e *entry, inputHash string, result Result, started time.Time, spanID, status string) Result {
	duration := time.Since(started)

	if r.tracer != nil && spanID != "" {
		r.tracer.EndToolSpan(spanID, status, result.Error)
	}

	actx.AppendLog(a2a.LogEntry{
		ToolName:       e.desc.Name,
		InputHash:      inputHash,
		DurationMs:     duration.Milliseconds(),
		Status:         status,
		Timestamp:      time.Now().UTC(),
		ParentToolName: actx.ParentToolName(),
	})

	if result.Metadata == nil {
		result.Metadata = make(map[string]interface{}, 2)
	}
	result.Metadata["toolName"] = e.desc.Name
	result.Metadata["durationMs"] = duration.Milliseconds()

	if r.metrics != nil {
		r.metrics.ObserveInvocation(e.desc.Name, status, duration)
	}

	r.logger.Debug().
		Str("tool", e.desc.Name).
		Str("status", status).
		Dur("duration", duration).
		Msg("Tool invocation settled")

	return result
}

// acquireSlot atomically checks and increments the tool's in-flight counter.
// The ceiling is registry-wide, shared across chains.
func (r *Registry) acquireSlot(e *entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.desc.MaxConcurrency > 0 && e.active >= e.desc.MaxConcurrency {
		r.logger.Warn().
			Str("tool", e.desc.Name).
			Int("active", e.active).
			Int("maxConcurrency", e.desc.MaxConcurrency).
			Msg("Concurrency ceiling reached, rejecting invocation")

		return a2a.NewOrchestrationError(
			fmt.Sprintf("tool %q concurrency limit reached: %d in flight (max %d)",
				e.desc.Name, e.active, e.desc.MaxConcurrency),
			map[string]interface{}{
				"toolName":       e.desc.Name,
				"active":         e.active,
				"maxConcurrency": e.desc.MaxConcurrency,
			},
		)
	}

	e.active++
	if r.metrics != nil {
		r.metrics.SetActiveInvocations(e.desc.Name, e.active)
	}
	return nil
}

func (r *Registry) releaseSlot(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.active--
	if r.metrics != nil {
		r.metrics.SetActiveInvocations(e.desc.Name, e.active)
	}
}
