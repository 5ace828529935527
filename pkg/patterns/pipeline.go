package patterns

import (
	"context"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"
)

// Stage is one step of a pipeline. Transform maps the running accumulator to
// the stage's arguments; when nil, the accumulator is adapted with
// argsFromValue.
type Stage struct {
	Tool      string
	Transform func(acc interface{}) map[string]interface{}
}

// argsFromValue turns an accumulator into invocation arguments: maps pass
// through, everything else is wrapped under "input".
func argsFromValue(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"input": v}
}

// Pipeline runs stages sequentially, feeding each stage's returned data into
// the next stage's transform. The first failure stops the pipeline and is
// returned as-is. An empty stage list succeeds with the initial value.
func (r *Runner) Pipeline(ctx context.Context, stages []Stage, actx *a2a.Context, initial interface{}) registry.Result {
	if len(stages) == 0 {
		return registry.Result{Success: true, Data: initial}
	}

	acc := initial
	var result registry.Result

	for _, stage := range stages {
		args := argsFromValue(acc)
		if stage.Transform != nil {
			args = stage.Transform(acc)
		}

		result = r.invoke(ctx, stage.Tool, args, actx)
		if !result.Success {
			r.logger.Debug().
				Str("tool", stage.Tool).
				Str("error", result.Error).
				Msg("Pipeline stage failed")
			return result
		}

		acc = result.Data
	}

	return result
}

// Waterfall chains tools by name: each tool's output becomes the next tool's
// input. An empty tool list succeeds with the initial value.
func (r *Runner) Waterfall(ctx context.Context, tools []string, actx *a2a.Context, initial interface{}) registry.Result {
	stages := make([]Stage, len(tools))
	for i, tool := range tools {
		stages[i] = Stage{Tool: tool}
	}

	return r.Pipeline(ctx, stages, actx, initial)
}
