package patterns

import "github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/registry"

// Reducer folds a batch of tool results into one value.
type Reducer func(results []registry.Result) interface{}

// CollectSuccessful returns the data of every successful result, in input
// order.
func CollectSuccessful(results []registry.Result) interface{} {
	out := []interface{}{}
	for _, result := range results {
		if result.Success {
			out = append(out, result.Data)
		}
	}
	return out
}

// CountSuccessful returns the number of successful results.
func CountSuccessful(results []registry.Result) interface{} {
	count := 0
	for _, result := range results {
		if result.Success {
			count++
		}
	}
	return count
}

// AllSucceeded reports whether every result succeeded. An empty batch counts
// as success.
func AllSucceeded(results []registry.Result) interface{} {
	for _, result := range results {
		if !result.Success {
			return false
		}
	}
	return true
}

// AnySucceeded reports whether at least one result succeeded.
func AnySucceeded(results []registry.Result) interface{} {
	for _, result := range results {
		if result.Success {
			return true
		}
	}
	return false
}

// MergeResults shallow-merges the map-shaped data of successful results in
// input order; later keys win. Non-map data is skipped.
func MergeResults(results []registry.Result) interface{} {
	merged := map[string]interface{}{}
	for _, result := range results {
		if !result.Success {
			continue
		}
		if m, ok := result.Data.(map[string]interface{}); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
	}
	return merged
}
