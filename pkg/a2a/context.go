package a2a

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxDepth bounds nested tool-to-tool invocation per chain.
	DefaultMaxDepth = 5
	// DefaultChainTimeout bounds a chain's total wall-clock age.
	DefaultChainTimeout = 60 * time.Second
)

// LogEntry is one append-only record of a completed invocation within a chain.
type LogEntry struct {
	ToolName       string    `json:"toolName"`
	InputHash      string    `json:"inputHash"`
	DurationMs     int64     `json:"durationMs"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ParentToolName string    `json:"parentToolName,omitempty"`
}

// chainCore is the state shared by every derived context of one chain. There
// is exactly one core per chain; derived contexts only differ in depth,
// parent tool and span linkage.
type chainCore struct {
	correlationID string
	state         *State
	start         time.Time
	timeout       time.Duration
	maxDepth      int

	mu  sync.Mutex
	log []LogEntry
}

// Context is the chain-scoped context threaded through every invocation. A
// fresh Context starts a new chain; Child derives the context handed to a
// callee tool. Contexts are not reused across chains.
type Context struct {
	core           *chainCore
	depth          int
	parentToolName string
	spanID         string
}

// Option configures a new chain context.
type Option func(*chainCore)

// WithCorrelationID overrides the generated correlation id.
func WithCorrelationID(id string) Option {
	return func(c *chainCore) { c.correlationID = id }
}

// WithChainTimeout sets the chain's wall-clock budget. Zero disables the check.
func WithChainTimeout(d time.Duration) Option {
	return func(c *chainCore) { c.timeout = d }
}

// WithMaxDepth sets the maximum nested invocation depth.
func WithMaxDepth(depth int) Option {
	return func(c *chainCore) { c.maxDepth = depth }
}

// New creates the context for a fresh chain: new correlation id, empty shared
// state, depth zero and the chain clock started now.
func New(opts ...Option) *Context {
	core := &chainCore{
		correlationID: uuid.New().String(),
		state:         NewState(),
		start:         time.Now(),
		timeout:       DefaultChainTimeout,
		maxDepth:      DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(core)
	}

	return &Context{core: core}
}

// CorrelationID returns the chain's correlation id.
func (c *Context) CorrelationID() string { return c.core.correlationID }

// State returns the chain's shared state map.
func (c *Context) State() *State { return c.core.state }

// Depth returns this context's nesting depth within the chain.
func (c *Context) Depth() int { return c.depth }

// ParentToolName returns the tool whose handler received this context, or ""
// at the chain root.
func (c *Context) ParentToolName() string { return c.parentToolName }

// ChainStart returns when the chain began.
func (c *Context) ChainStart() time.Time { return c.core.start }

// ChainTimeout returns the chain's wall-clock budget.
func (c *Context) ChainTimeout() time.Duration { return c.core.timeout }

// MaxDepth returns the configured depth ceiling.
func (c *Context) MaxDepth() int { return c.core.maxDepth }

// Elapsed returns the chain's wall-clock age.
func (c *Context) Elapsed() time.Duration { return time.Since(c.core.start) }

// SpanID returns the trace span this context executes under, or "".
func (c *Context) SpanID() string { return c.spanID }

// Child derives the context passed into a callee's handler: depth increases
// by one, the callee becomes the parent tool for permission checks on any
// further nested invocations, and chain-wide state is shared.
func (c *Context) Child(parentTool string) *Context {
	return &Context{
		core:           c.core,
		depth:          c.depth + 1,
		parentToolName: parentTool,
	}
}

// WithSpan returns a copy of this context linked to the given trace span.
func (c *Context) WithSpan(spanID string) *Context {
	cp := *c
	cp.spanID = spanID
	return &cp
}

// CheckBudget enforces the chain's depth and wall-clock invariants at an
// invocation boundary. It returns a ChainTimeoutError or RecursionDepthError
// fault when the invocation for toolName must not proceed.
func (c *Context) CheckBudget(toolName string) error {
	if c.core.timeout > 0 {
		if elapsed := c.Elapsed(); elapsed > c.core.timeout {
			return NewChainTimeoutError(c.core.correlationID, c.core.timeout, elapsed)
		}
	}

	if next := c.depth + 1; next > c.core.maxDepth {
		return NewRecursionDepthError(toolName, next, c.core.maxDepth)
	}

	return nil
}

// AppendLog appends one entry to the chain's execution log.
func (c *Context) AppendLog(entry LogEntry) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	c.core.log = append(c.core.log, entry)
}

// Log returns a copy of the chain's execution log in append order.
func (c *Context) Log() []LogEntry {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	out := make([]LogEntry, len(c.core.log))
	copy(out, c.core.log)
	return out
}

// LogLen returns the number of execution-log entries.
func (c *Context) LogLen() int {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	return len(c.core.log)
}
