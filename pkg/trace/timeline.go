package trace

// Timeline is the per-chain view over the span arena.
type Timeline struct {
	CorrelationID   string `json:"correlationId"`
	Spans           []Span `json:"spans"`
	TotalDurationMs int64  `json:"totalDurationMs"`
	CriticalPath    []Span `json:"criticalPath"`
}

// Summary aggregates trace activity since the logger was created. Counters
// are cumulative and unaffected by eviction.
type Summary struct {
	TotalSpans       int     `json:"totalSpans"`
	TotalChains      int     `json:"totalChains"`
	AvgSpansPerChain float64 `json:"avgSpansPerChain"`
}

// Timeline returns all retained spans for a correlation id in creation order,
// the chain's total duration derived from closed spans only, and the critical
// path. Unknown correlation ids yield an empty timeline.
func (l *Logger) Timeline(correlationID string) Timeline {
	l.mu.Lock()
	defer l.mu.Unlock()

	tl := Timeline{
		CorrelationID: correlationID,
		Spans:         []Span{},
		CriticalPath:  []Span{},
	}

	ids := l.byCorr[correlationID]
	if len(ids) == 0 {
		return tl
	}

	spans := make([]*Span, 0, len(ids))
	for _, id := range ids {
		if span := l.spans[id]; span != nil {
			spans = append(spans, span)
			tl.Spans = append(tl.Spans, *span)
		}
	}

	tl.TotalDurationMs = totalDuration(spans)
	tl.CriticalPath = criticalPath(spans)

	return tl
}

// Summary reports cumulative span and chain counts.
func (l *Logger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		TotalSpans:  l.createdSpans,
		TotalChains: l.createdChains,
	}
	if s.TotalChains > 0 {
		s.AvgSpansPerChain = float64(s.TotalSpans) / float64(s.TotalChains)
	}
	return s
}

// totalDuration spans the interval from the earliest closed-span start to the
// latest closed-span end. Open spans are excluded.
func totalDuration(spans []*Span) int64 {
	var earliest, latest *Span
	for _, s := range spans {
		if !s.Closed() {
			continue
		}
		if earliest == nil || s.StartTime.Before(earliest.StartTime) {
			earliest = s
		}
		if latest == nil || s.EndTime.After(*latest.EndTime) {
			latest = s
		}
	}

	if earliest == nil {
		return 0
	}
	return latest.EndTime.Sub(earliest.StartTime).Milliseconds()
}

// criticalPath walks the span arena top-down and returns the parent-to-child
// chain with the largest summed duration. Without any explicit parent links
// the path is empty.
func criticalPath(spans []*Span) []Span {
	byID := make(map[string]*Span, len(spans))
	children := make(map[string][]*Span)
	linked := false

	for _, s := range spans {
		byID[s.SpanID] = s
	}
	for _, s := range spans {
		if s.ParentSpanID == "" {
			continue
		}
		linked = true
		if _, ok := byID[s.ParentSpanID]; ok {
			children[s.ParentSpanID] = append(children[s.ParentSpanID], s)
		}
	}

	if !linked {
		return []Span{}
	}

	// Roots: spans without a retained parent. An evicted parent makes its
	// surviving child a root.
	var best []Span
	var bestCost int64
	for _, s := range spans {
		if _, ok := byID[s.ParentSpanID]; s.ParentSpanID != "" && ok {
			continue
		}
		path, cost := longestChain(s, children)
		if best == nil || cost > bestCost {
			best, bestCost = path, cost
		}
	}

	if best == nil {
		return []Span{}
	}
	return best
}

func longestChain(s *Span, children map[string][]*Span) ([]Span, int64) {
	bestCost := int64(0)
	var bestTail []Span

	for _, child := range children[s.SpanID] {
		tail, cost := longestChain(child, children)
		if bestTail == nil || cost > bestCost {
			bestTail, bestCost = tail, cost
		}
	}

	path := append([]Span{*s}, bestTail...)
	return path, s.DurationMs() + bestCost
}
