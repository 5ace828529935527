package orchestrator

import (
	"errors"
	"sync"
	"time"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/internal/config"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/internal/logger"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/internal/metrics"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/chain"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/patterns"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/trace"
)

// Core assembles the orchestration components from one configuration: the
// registry, the plan executor, the combinator runner, the trace logger and
// the Prometheus metrics all share the same logging and instrumentation.
type Core struct {
	mu  sync.RWMutex
	cfg *config.Config

	log      *logger.Logger
	metrics  *metrics.Metrics
	tracer   *trace.Logger
	registry *registry.Registry
	runner   *patterns.Runner
	executor *chain.Executor

	loader  *config.Loader
	watcher *config.Watcher
}

// New builds a Core from the config file at path. An empty path uses the
// defaults; an invalid config fails construction.
func New(path string) (*Core, error) {
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSizeMB,
		MaxAge:    cfg.Logging.MaxAgeDay,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return nil, err
	}
	zl := lg.GetZerolog()

	m := metrics.New()
	tr := trace.NewLogger(
		trace.WithMaxSpans(cfg.Trace.MaxSpans),
		trace.WithMaxAge(cfg.Trace.TraceMaxAge()),
		trace.WithLogger(zl),
	)
	reg := registry.New(
		registry.WithTracer(tr),
		registry.WithMetrics(m),
		registry.WithLogger(zl),
		registry.WithDefaultTimeout(cfg.Orchestrator.DefaultToolTimeout()),
	)
	runner := patterns.NewRunner(reg,
		patterns.WithFanOutConcurrency(cfg.Patterns.FanOutConcurrency),
		patterns.WithLogger(zl),
	)
	executor := chain.NewExecutor(reg,
		chain.WithTracer(tr),
		chain.WithMetrics(m),
		chain.WithLogger(zl),
	)

	return &Core{
		cfg:      cfg,
		log:      lg,
		metrics:  m,
		tracer:   tr,
		registry: reg,
		runner:   runner,
		executor: executor,
		loader:   loader,
	}, nil
}

// Registry returns the shared tool registry.
func (c *Core) Registry() *registry.Registry { return c.registry }

// Runner returns the combinator runner bound to the registry.
func (c *Core) Runner() *patterns.Runner { return c.runner }

// Executor returns the plan executor bound to the registry.
func (c *Core) Executor() *chain.Executor { return c.executor }

// Tracer returns the span arena shared by registry and executor.
func (c *Core) Tracer() *trace.Logger { return c.tracer }

// Metrics returns the Prometheus instrumentation shared by registry and
// executor.
func (c *Core) Metrics() *metrics.Metrics { return c.metrics }

// Logger returns the configured logger.
func (c *Core) Logger() *logger.Logger { return c.log }

// Config returns the currently active configuration.
func (c *Core) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cfg
}

// NewContext starts a chain under the configured depth and wall-clock
// budgets. Caller options are applied after the config and may override it.
func (c *Core) NewContext(opts ...a2a.Option) *a2a.Context {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	base := []a2a.Option{
		a2a.WithMaxDepth(cfg.Orchestrator.MaxDepth),
		a2a.WithChainTimeout(cfg.Orchestrator.ChainTimeout()),
	}
	return a2a.New(append(base, opts...)...)
}

// RetryPolicy returns the configured backoff policy for patterns.Runner.Retry.
func (c *Core) RetryPolicy() patterns.RetryPolicy {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	return patterns.RetryPolicy{
		MaxAttempts:   cfg.Patterns.RetryMaxAttempts,
		BaseDelay:     time.Duration(cfg.Patterns.RetryBaseDelayMs) * time.Millisecond,
		BackoffFactor: cfg.Patterns.RetryBackoffFactor,
		Jitter:        time.Duration(cfg.Patterns.RetryJitterMs) * time.Millisecond,
	}
}

// Watch starts hot-reloading the config file. Reloads swap the active
// config, so chain budgets and retry policies for new chains follow the
// file; already-running chains keep the budgets they started with.
func (c *Core) Watch() error {
	w, err := config.NewWatcher(c.loader, c.log.GetZerolog(), func(cfg *config.Config) {
		c.mu.Lock()
		c.cfg = cfg
		c.mu.Unlock()
	})
	if err != nil {
		return err
	}

	if err := w.Watch(); err != nil {
		w.Stop()
		return err
	}

	c.watcher = w
	return nil
}

// Close stops the config watcher and closes the logger.
func (c *Core) Close() error {
	if c.watcher != nil {
		if err := c.watcher.Stop(); err != nil {
			return err
		}
	}
	return c.log.Close()
}
