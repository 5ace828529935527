package trace

import (
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
)

const (
	// DefaultMaxSpans bounds the span arena by count.
	DefaultMaxSpans = 10000
	// DefaultMaxAge bounds the span arena by age.
	DefaultMaxAge = time.Hour

	// StatusRunning marks a span that has not been closed yet.
	StatusRunning = "running"
)

// Span is a single invocation's timing and status record. Parent linkage is
// explicit via ParentSpanID; there are no back-pointers.
type Span struct {
	SpanID        string     `json:"spanId"`
	ParentSpanID  string     `json:"parentSpanId,omitempty"`
	CorrelationID string     `json:"correlationId"`
	ToolName      string     `json:"toolName"`
	InputHash     string     `json:"inputHash"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
}

// Closed reports whether the span has ended.
func (s *Span) Closed() bool { return s.EndTime != nil }

// DurationMs returns the span's duration, or 0 while it is still open.
func (s *Span) DurationMs() int64 {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime).Milliseconds()
}

// EventType tags chain-level trace events.
type EventType string

const (
	// EventChainStart marks the beginning of a chain.
	EventChainStart EventType = "chain_start"
	// EventChainEnd marks the completion of a chain.
	EventChainEnd EventType = "chain_end"
)

// Event is a chain-level lifecycle record.
type Event struct {
	Type          EventType `json:"type"`
	CorrelationID string    `json:"correlationId"`
	Timestamp     time.Time `json:"timestamp"`
	Success       *bool     `json:"success,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
}

// Logger records spans and chain events in memory. Storage is bounded: spans
// past the configured age or count are evicted whenever a new span is
// created. It implements the registry's Tracer interface.
type Logger struct {
	mu     sync.Mutex
	spans  map[string]*Span
	order  []string
	byCorr map[string][]string
	events []Event

	maxSpans int
	maxAge   time.Duration

	createdSpans  int
	createdChains int

	logger zerolog.Logger
}

// Option configures a trace Logger.
type Option func(*Logger)

// WithMaxSpans sets the span-count ceiling.
func WithMaxSpans(n int) Option {
	return func(l *Logger) { l.maxSpans = n }
}

// WithMaxAge sets the span age ceiling.
func WithMaxAge(d time.Duration) Option {
	return func(l *Logger) { l.maxAge = d }
}

// WithLogger replaces the global logger.
func WithLogger(zl zerolog.Logger) Option {
	return func(l *Logger) { l.logger = zl }
}

// NewLogger creates an empty trace logger.
func NewLogger(opts ...Option) *Logger {
	l := &Logger{
		spans:    make(map[string]*Span),
		byCorr:   make(map[string][]string),
		maxSpans: DefaultMaxSpans,
		maxAge:   DefaultMaxAge,
		logger:   log.Logger,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// StartToolSpan opens a span for one invocation and returns its id. The
// parent link comes from the span already carried by the caller's context, so
// nested invocations form an explicit parent/child arena.
func (l *Logger) StartToolSpan(actx *a2a.Context, toolName, inputHash string) string {
	spanID, err := gonanoid.New()
	if err != nil {
		// nanoid only fails when the OS entropy source does; fall back to a
		// timestamp id rather than dropping the span.
		spanID = time.Now().Format("20060102150405.000000000")
	}

	span := &Span{
		SpanID:        spanID,
		ParentSpanID:  actx.SpanID(),
		CorrelationID: actx.CorrelationID(),
		ToolName:      toolName,
		InputHash:     inputHash,
		StartTime:     time.Now(),
		Status:        StatusRunning,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictLocked(span.StartTime)

	l.spans[spanID] = span
	l.order = append(l.order, spanID)
	l.byCorr[span.CorrelationID] = append(l.byCorr[span.CorrelationID], spanID)
	l.createdSpans++

	return spanID
}

// EndToolSpan closes a span with its final status. Unknown or already-evicted
// span ids are ignored.
func (l *Logger) EndToolSpan(spanID, status, errorMessage string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	span, ok := l.spans[spanID]
	if !ok {
		l.logger.Debug().Str("spanId", spanID).Msg("EndToolSpan for unknown span")
		return
	}

	now := time.Now()
	if now.Before(span.StartTime) {
		now = span.StartTime
	}

	span.EndTime = &now
	span.Status = status
	span.ErrorMessage = errorMessage
}

// StartChain records a chain_start event for a correlation id.
func (l *Logger) StartChain(correlationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, Event{
		Type:          EventChainStart,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	})
	l.createdChains++
}

// EndChain records a chain_end event with the chain's outcome.
func (l *Logger) EndChain(correlationID string, success bool, errorMessage string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, Event{
		Type:          EventChainEnd,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
		Success:       &success,
		ErrorMessage:  errorMessage,
	})
}

// Events returns the chain events recorded for a correlation id.
func (l *Logger) Events(correlationID string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Event{}
	for _, ev := range l.events {
		if ev.CorrelationID == correlationID {
			out = append(out, ev)
		}
	}
	return out
}

// SpanCount returns the number of spans currently retained.
func (l *Logger) SpanCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.spans)
}

// evictLocked drops spans past the age ceiling, then the oldest spans past
// the count ceiling. Caller holds l.mu.
func (l *Logger) evictLocked(now time.Time) {
	evicted := 0

	if l.maxAge > 0 {
		cutoff := now.Add(-l.maxAge)
		kept := l.order[:0]
		for _, id := range l.order {
			span := l.spans[id]
			if span != nil && span.StartTime.Before(cutoff) {
				l.dropLocked(id, span)
				evicted++
				continue
			}
			kept = append(kept, id)
		}
		l.order = kept
	}

	if l.maxSpans > 0 {
		// Room for the span about to be created.
		for len(l.order) >= l.maxSpans {
			id := l.order[0]
			l.order = l.order[1:]
			if span := l.spans[id]; span != nil {
				l.dropLocked(id, span)
				evicted++
			}
		}
	}

	if evicted > 0 {
		l.logger.Debug().Int("evicted", evicted).Msg("Trace spans evicted")
	}
}

func (l *Logger) dropLocked(id string, span *Span) {
	delete(l.spans, id)

	ids := l.byCorr[span.CorrelationID]
	for i, sid := range ids {
		if sid == id {
			l.byCorr[span.CorrelationID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(l.byCorr[span.CorrelationID]) == 0 {
		delete(l.byCorr, span.CorrelationID)
	}
}
