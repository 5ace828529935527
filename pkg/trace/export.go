package trace

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Export formats recognized by Export.
const (
	FormatJSON = "json"
	FormatOTLP = "otlp"
)

// Export serializes a chain's spans. "json" yields the plain
// {correlationId, spans} document; "otlp" yields an OpenTelemetry-like
// {resourceSpans} envelope a collector-shaped consumer can ingest.
func (l *Logger) Export(correlationID, format string) ([]byte, error) {
	tl := l.Timeline(correlationID)

	switch format {
	case FormatJSON:
		return json.Marshal(map[string]interface{}{
			"correlationId": tl.CorrelationID,
			"spans":         tl.Spans,
		})

	case FormatOTLP:
		return json.Marshal(otlpEnvelope(tl))

	default:
		return nil, fmt.Errorf("unknown trace export format: %s", format)
	}
}

func otlpEnvelope(tl Timeline) map[string]interface{} {
	spans := make([]map[string]interface{}, 0, len(tl.Spans))
	for _, s := range tl.Spans {
		span := map[string]interface{}{
			"traceId":           tl.CorrelationID,
			"spanId":            s.SpanID,
			"name":              s.ToolName,
			"kind":              1, // SPAN_KIND_INTERNAL
			"startTimeUnixNano": strconv.FormatInt(s.StartTime.UnixNano(), 10),
			"status":            otlpStatus(s),
			"attributes": []map[string]interface{}{
				{"key": "tool.input_hash", "value": map[string]interface{}{"stringValue": s.InputHash}},
				{"key": "tool.status", "value": map[string]interface{}{"stringValue": s.Status}},
			},
		}
		if s.ParentSpanID != "" {
			span["parentSpanId"] = s.ParentSpanID
		}
		if s.EndTime != nil {
			span["endTimeUnixNano"] = strconv.FormatInt(s.EndTime.UnixNano(), 10)
		}
		spans = append(spans, span)
	}

	return map[string]interface{}{
		"resourceSpans": []map[string]interface{}{
			{
				"resource": map[string]interface{}{
					"attributes": []map[string]interface{}{
						{"key": "service.name", "value": map[string]interface{}{"stringValue": "tool-orchestration-core"}},
					},
				},
				"scopeSpans": []map[string]interface{}{
					{
						"scope": map[string]interface{}{"name": "a2a"},
						"spans": spans,
					},
				},
			},
		},
	}
}

func otlpStatus(s Span) map[string]interface{} {
	// 1 = STATUS_CODE_OK, 2 = STATUS_CODE_ERROR.
	code := 1
	if s.Status != "success" && s.Status != StatusRunning {
		code = 2
	}

	status := map[string]interface{}{"code": code}
	if s.ErrorMessage != "" {
		status["message"] = s.ErrorMessage
	}
	return status
}
