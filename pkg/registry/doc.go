// Package registry registers named asynchronous tools and invokes them under
// explicit permission, concurrency, recursion-depth and timeout constraints.
//
// Invariants:
// - Tool names are unique within a registry instance.
// - A nested invocation proceeds only if the caller's CanInvoke set names the
//   callee or contains "*".
// - In-flight invocations of one tool never exceed its MaxConcurrency; the
//   ceiling is registry-wide and excess calls are rejected, never queued.
//
// Usage:
//
//	reg := registry.New()
//	_ = reg.Register(registry.Descriptor{
//		Name:        "echo",
//		Description: "Echo input",
//		CanInvoke:   []string{"*"},
//	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
//		return args["text"], nil
//	})
//	result, err := reg.Invoke(ctx, "echo", map[string]interface{}{"text": "hi"}, nil)
package registry
