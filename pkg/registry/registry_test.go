package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anselmoo/mcp-ai-agent-guidelines-sub004/pkg/a2a"
)

func echoHandler(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
	return args["message"], nil
}

func registerEcho(t *testing.T, reg *Registry, name string, canInvoke ...string) {
	t.Helper()
	require.NoError(t, reg.Register(Descriptor{
		Name:        name,
		Description: "Echo tool",
		CanInvoke:   canInvoke,
	}, echoHandler))
}

func TestRegistry_Register(t *testing.T) {
	reg := New()

	err := reg.Register(Descriptor{
		Name:        "echo",
		Description: "Echo tool",
	}, echoHandler)
	require.NoError(t, err)

	desc, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", desc.Name)
	assert.Equal(t, 1, reg.ToolCount())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "echo")

	err := reg.Register(Descriptor{Name: "echo", Description: "dup"}, echoHandler)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Register_Invalid(t *testing.T) {
	reg := New()

	tests := []struct {
		name    string
		desc    Descriptor
		handler Handler
	}{
		{name: "empty name", desc: Descriptor{Description: "d"}, handler: echoHandler},
		{name: "empty description", desc: Descriptor{Name: "t"}, handler: echoHandler},
		{name: "nil handler", desc: Descriptor{Name: "t", Description: "d"}, handler: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, reg.Register(tt.desc, tt.handler))
		})
	}
}

func TestRegistry_Invoke_Success(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "echo")

	result, err := reg.Invoke(context.Background(), "echo", map[string]interface{}{
		"message": "hello",
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "hello", result.Data)
	assert.Equal(t, "echo", result.Metadata["toolName"])
	assert.Contains(t, result.Metadata, "durationMs")
}

func TestRegistry_Invoke_ToolNotFound(t *testing.T) {
	reg := New()

	_, err := reg.Invoke(context.Background(), "nonexistent", nil, nil)
	require.Error(t, err)
	assert.True(t, a2a.HasCode(err, a2a.CodeToolNotFound))
}

func TestRegistry_Invoke_SchemaValidation(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(Descriptor{
		Name:        "strict",
		Description: "Strict input",
		InputSchema: map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"count": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"count"},
		},
	}, echoHandler))

	// Invalid args come back as a failed result, not an error.
	result, err := reg.Invoke(context.Background(), "strict", map[string]interface{}{
		"count": "not-a-number",
	}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")

	result, err = reg.Invoke(context.Background(), "strict", map[string]interface{}{
		"count": 3,
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRegistry_Invoke_HandlerError(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(Descriptor{
		Name:        "failing",
		Description: "Always fails",
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		return nil, errors.New("disk on fire")
	}))

	result, err := reg.Invoke(context.Background(), "failing", nil, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "disk on fire", result.Error)
	require.NotNil(t, result.Fault)
	assert.Equal(t, a2a.CodeInvocation, result.Fault.Code)
}

func TestRegistry_Invoke_HandlerPanic(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(Descriptor{
		Name:        "panicky",
		Description: "Panics",
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		panic("unexpected nil")
	}))

	result, err := reg.Invoke(context.Background(), "panicky", nil, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unexpected nil")
	require.NotNil(t, result.Fault)
	assert.Equal(t, a2a.CodeInvocation, result.Fault.Code)
}

func TestRegistry_Invoke_Timeout(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(Descriptor{
		Name:        "slow",
		Description: "Sleeps past its deadline",
		Timeout:     20 * time.Millisecond,
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		select {
		case <-time.After(500 * time.Millisecond):
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}))

	result, err := reg.Invoke(context.Background(), "slow", nil, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.NotNil(t, result.Fault)
	assert.Equal(t, a2a.CodeToolTimeout, result.Fault.Code)
}

func TestRegistry_Permissions(t *testing.T) {
	reg := New()

	// "A" may invoke only "B"; "star" may invoke anything.
	registerEcho(t, reg, "A", "B")
	registerEcho(t, reg, "B")
	registerEcho(t, reg, "C")
	registerEcho(t, reg, "star", "*")

	fromA := a2a.New().Child("A")
	fromStar := a2a.New().Child("star")

	t.Run("allowed callee", func(t *testing.T) {
		result, err := reg.Invoke(context.Background(), "B", map[string]interface{}{"message": "hi"}, fromA)
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("denied callee", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "C", nil, fromA)
		require.Error(t, err)
		assert.True(t, a2a.HasCode(err, a2a.CodeNotAllowed))
	})

	t.Run("wildcard allows any tool", func(t *testing.T) {
		for _, callee := range []string{"A", "B", "C"} {
			_, err := reg.Invoke(context.Background(), callee, nil, fromStar)
			require.NoError(t, err, callee)
		}
	})

	t.Run("wildcard allows self", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "star", nil, fromStar)
		require.NoError(t, err)
	})

	t.Run("root context bypasses permission check", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "C", nil, a2a.New())
		require.NoError(t, err)
	})
}

func TestRegistry_Concurrency(t *testing.T) {
	reg := New()

	release := make(chan struct{})
	started := make(chan struct{}, 4)
	require.NoError(t, reg.Register(Descriptor{
		Name:           "limited",
		Description:    "Holds a slot until released",
		MaxConcurrency: 2,
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		started <- struct{}{}
		<-release
		return "ok", nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Invoke(context.Background(), "limited", nil, nil)
			assert.NoError(t, err)
		}()
	}

	// Wait until both calls hold their slots.
	<-started
	<-started
	assert.Equal(t, 2, reg.ActiveInvocations("limited"))

	// Third concurrent call is rejected immediately, no queueing.
	_, err := reg.Invoke(context.Background(), "limited", nil, nil)
	require.Error(t, err)
	assert.True(t, a2a.HasCode(err, a2a.CodeOrchestration))

	close(release)
	wg.Wait()
	assert.Equal(t, 0, reg.ActiveInvocations("limited"))

	// With slots free again, a new call succeeds.
	result, err := reg.Invoke(context.Background(), "limited", nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRegistry_ValidationSettlesBeforePermission(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "narrow", "other")
	require.NoError(t, reg.Register(Descriptor{
		Name:        "guarded",
		Description: "Schema-guarded tool",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []string{"count"},
			"properties": map[string]interface{}{
				"count": map[string]interface{}{"type": "integer"},
			},
		},
	}, echoHandler))

	// "narrow" may not invoke "guarded", but malformed args settle as a
	// recovered validation failure before the permission check runs.
	fromNarrow := a2a.New().Child("narrow")
	result, err := reg.Invoke(context.Background(), "guarded", map[string]interface{}{
		"count": "not-a-number",
	}, fromNarrow)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")

	// Well-formed args from the same caller hit the permission wall.
	_, err = reg.Invoke(context.Background(), "guarded", map[string]interface{}{
		"count": 1,
	}, fromNarrow)
	require.Error(t, err)
	assert.True(t, a2a.HasCode(err, a2a.CodeNotAllowed))
}

func TestRegistry_ValidationDoesNotConsumeSlot(t *testing.T) {
	reg := New()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, reg.Register(Descriptor{
		Name:           "scarce",
		Description:    "Single-slot schema-guarded tool",
		MaxConcurrency: 1,
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []string{"count"},
			"properties": map[string]interface{}{
				"count": map[string]interface{}{"type": "integer"},
			},
		},
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := reg.Invoke(context.Background(), "scarce", map[string]interface{}{"count": 1}, nil)
		assert.NoError(t, err)
	}()
	<-started

	// The slot is held, but a malformed call never reaches the counter: it
	// settles as a recovered validation failure, not a concurrency rejection.
	result, err := reg.Invoke(context.Background(), "scarce", map[string]interface{}{
		"count": "not-a-number",
	}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")

	// A well-formed call is still rejected at the ceiling.
	_, err = reg.Invoke(context.Background(), "scarce", map[string]interface{}{"count": 2}, nil)
	require.Error(t, err)
	assert.True(t, a2a.HasCode(err, a2a.CodeOrchestration))

	close(release)
	<-done
}

func TestRegistry_ChainTimeout(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "echo")

	actx := a2a.New(a2a.WithChainTimeout(10 * time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := reg.Invoke(context.Background(), "echo", nil, actx)
	require.Error(t, err)
	assert.True(t, a2a.HasCode(err, a2a.CodeChainTimeout))
}

func TestRegistry_RecursionDepth(t *testing.T) {
	reg := New()

	// "recurse" invokes itself until the depth ceiling trips.
	var depthErr error
	require.NoError(t, reg.Register(Descriptor{
		Name:        "recurse",
		Description: "Self-invoking tool",
		CanInvoke:   []string{"*"},
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		result, err := reg.Invoke(ctx, "recurse", args, actx)
		if err != nil {
			depthErr = err
			return nil, err
		}
		return result.Data, nil
	}))

	actx := a2a.New(a2a.WithMaxDepth(3))
	result, err := reg.Invoke(context.Background(), "recurse", nil, actx)
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Error(t, depthErr)
	assert.True(t, a2a.HasCode(depthErr, a2a.CodeRecursionDepth))

	fault, ok := a2a.AsFault(depthErr)
	require.True(t, ok)
	assert.Equal(t, 4, fault.Context["currentDepth"])
	assert.Equal(t, 3, fault.Context["maxDepth"])
}

func TestRegistry_ExecutionLog(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "echo")

	actx := a2a.New()
	_, err := reg.Invoke(context.Background(), "echo", map[string]interface{}{"message": "x"}, actx)
	require.NoError(t, err)

	entries := actx.Log()
	require.Len(t, entries, 1)
	assert.Equal(t, "echo", entries[0].ToolName)
	assert.Equal(t, "success", entries[0].Status)
	assert.NotEmpty(t, entries[0].InputHash)
}

func TestRegistry_NestedChildContext(t *testing.T) {
	reg := New()

	var seen *a2a.Context
	require.NoError(t, reg.Register(Descriptor{
		Name:        "outer",
		Description: "Captures its derived context",
	}, func(ctx context.Context, args map[string]interface{}, actx *a2a.Context) (interface{}, error) {
		seen = actx
		return nil, nil
	}))

	root := a2a.New()
	_, err := reg.Invoke(context.Background(), "outer", nil, root)
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, 1, seen.Depth())
	assert.Equal(t, "outer", seen.ParentToolName())
	assert.Equal(t, root.CorrelationID(), seen.CorrelationID())
}

func TestRegistry_Unregister(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "echo")

	reg.Unregister("echo")
	_, err := reg.Invoke(context.Background(), "echo", nil, nil)
	require.Error(t, err)
	assert.True(t, a2a.HasCode(err, a2a.CodeToolNotFound))
}

func TestRegistry_Reset(t *testing.T) {
	reg := New()
	registerEcho(t, reg, "a")
	registerEcho(t, reg, "b")

	reg.Reset()
	assert.Equal(t, 0, reg.ToolCount())
}

func TestDefault_SharedInstance(t *testing.T) {
	first := Default()
	second := Default()

	assert.Same(t, first, second)
	first.Reset()
}
