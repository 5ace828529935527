package patterns

import (
	"context"
	"sync"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"
)

// FanOut invokes the same tool once per argument set with bounded
// concurrency. Output order matches input order regardless of completion
// order. A concurrency of zero or less uses the runner's default.
func (r *Runner) FanOut(ctx context.Context, tool string, argsList []map[string]interface{}, actx *a2a.Context, concurrency int) []registry.Result {
	if len(argsList) == 0 {
		return []registry.Result{}
	}

	if concurrency <= 0 {
		concurrency = r.fanOutLimit
	}

	results := make([]registry.Result, len(argsList))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, args := range argsList {
		wg.Add(1)
		go func(index int, callArgs map[string]interface{}) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[index] = r.invoke(ctx, tool, callArgs, actx)
		}(i, args)
	}

	wg.Wait()
	return results
}

// MapReduce fans a tool out over inputs and folds every result with the
// reducer. Empty inputs yield the reducer applied to an empty list; the
// pattern itself never fails.
func (r *Runner) MapReduce(ctx context.Context, tool string, inputs []map[string]interface{}, actx *a2a.Context, reducer Reducer) interface{} {
	results := r.FanOut(ctx, tool, inputs, actx, 0)
	return reducer(results)
}

// ScatterGather invokes a heterogeneous list of calls in parallel, assembles
// a key-to-result map and applies the gather function to it.
func (r *Runner) ScatterGather(ctx context.Context, calls []Call, actx *a2a.Context, gather func(map[string]registry.Result) interface{}) interface{} {
	results := make(map[string]registry.Result, len(calls))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, call := range calls {
		wg.Add(1)
		go func(c Call) {
			defer wg.Done()

			result := r.invoke(ctx, c.Tool, c.Args, actx)

			mu.Lock()
			results[c.key()] = result
			mu.Unlock()
		}(call)
	}

	wg.Wait()
	return gather(results)
}

// Race invokes all calls in parallel and returns the first successful result,
// cancelling the rest. When every call fails, the last failure observed is
// returned.
func (r *Runner) Race(ctx context.Context, calls []Call, actx *a2a.Context) registry.Result {
	if len(calls) == 0 {
		return registry.Result{Success: false, Error: "no tools provided to race"}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultChan := make(chan registry.Result, len(calls))
	for _, call := range calls {
		go func(c Call) {
			resultChan <- r.invoke(raceCtx, c.Tool, c.Args, actx)
		}(call)
	}

	var last registry.Result
	for i := 0; i < len(calls); i++ {
		select {
		case result := <-resultChan:
			if result.Success {
				cancel()
				return result
			}
			last = result

		case <-ctx.Done():
			return registry.Result{Success: false, Error: "race cancelled: " + ctx.Err().Error()}
		}
	}

	return last
}
