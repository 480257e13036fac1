package harness

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

const locationSchema = `{
  "type": "object",
  "properties": {"location": {"type": "string"}},
  "required": ["location"]
}`

func newTestExecutor(t *testing.T, timeout time.Duration, toolSet ...ports.Tool) *Executor {
	t.Helper()
	registry := NewRegistry()
	for _, tool := range toolSet {
		require.NoError(t, registry.Register(tool))
	}
	registry.Freeze()
	return NewExecutor(registry, timeout)
}

func TestExecute_Success(t *testing.T) {
	executor := newTestExecutor(t, 0, &stubTool{name: "get_weather", schema: locationSchema, result: "22.4"})

	res := executor.Execute(context.Background(), ports.ToolInvocation{
		ID:   "1",
		Name: "get_weather",
		Args: json.RawMessage(`{"location":"New York"}`),
	})

	assert.True(t, res.Success)
	assert.Equal(t, "1", res.InvocationID)
	assert.Equal(t, "22.4", res.Payload)
	assert.Empty(t, res.Error)
}

func TestExecute_StructuredOutputIsMarshaled(t *testing.T) {
	executor := newTestExecutor(t, 0, &stubTool{
		name:   "stats",
		result: map[string]any{"mean": 21.5},
	})

	res := executor.Execute(context.Background(), ports.ToolInvocation{ID: "1", Name: "stats"})
	require.True(t, res.Success)
	assert.JSONEq(t, `{"mean":21.5}`, res.Payload)
}

func TestExecute_UnknownTool(t *testing.T) {
	executor := newTestExecutor(t, 0)

	res := executor.Execute(context.Background(), ports.ToolInvocation{ID: "9", Name: "absent"})
	assert.False(t, res.Success)
	assert.Equal(t, "9", res.InvocationID)
	assert.Contains(t, res.Error, `unknown tool "absent"`)
}

func TestExecute_MissingRequiredArgumentNamesParameter(t *testing.T) {
	executor := newTestExecutor(t, 0, &stubTool{name: "get_weather", schema: locationSchema, result: "n/a"})

	res := executor.Execute(context.Background(), ports.ToolInvocation{
		ID:   "1",
		Name: "get_weather",
		Args: json.RawMessage(`{}`),
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, `"location"`)
}

func TestExecute_WrongArgumentTypeNamesParameter(t *testing.T) {
	executor := newTestExecutor(t, 0, &stubTool{name: "get_weather", schema: locationSchema, result: "n/a"})

	res := executor.Execute(context.Background(), ports.ToolInvocation{
		ID:   "1",
		Name: "get_weather",
		Args: json.RawMessage(`{"location": 42}`),
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "location")
}

func TestExecute_ToolErrorIsCaptured(t *testing.T) {
	executor := newTestExecutor(t, 0, &stubTool{name: "broken", err: errors.New("boom")})

	res := executor.Execute(context.Background(), ports.ToolInvocation{ID: "1", Name: "broken"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, `tool "broken" failed: boom`)
}

func TestExecute_TimeoutBecomesFailedResult(t *testing.T) {
	slow := &stubTool{name: "slow", invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
		select {
		case <-time.After(time.Second):
			return "too late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	executor := newTestExecutor(t, 20*time.Millisecond, slow)

	res := executor.Execute(context.Background(), ports.ToolInvocation{ID: "1", Name: "slow"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "deadline")
}

func TestExecuteAll_ResultsInRequestOrder(t *testing.T) {
	echo := &stubTool{name: "echo", invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
		return string(args), nil
	}}
	executor := newTestExecutor(t, 0, echo)

	invs := make([]ports.ToolInvocation, 8)
	for i := range invs {
		invs[i] = ports.ToolInvocation{
			ID:   string(rune('a' + i)),
			Name: "echo",
			Args: json.RawMessage(`{"n":` + string(rune('0'+i)) + `}`),
		}
	}

	results := executor.ExecuteAll(context.Background(), invs, 4)
	require.Len(t, results, len(invs))
	for i, res := range results {
		assert.Equal(t, invs[i].ID, res.InvocationID)
		assert.Equal(t, string(invs[i].Args), res.Payload)
	}
}

func TestExecuteAll_EmptyBatch(t *testing.T) {
	executor := newTestExecutor(t, 0)
	assert.Empty(t, executor.ExecuteAll(context.Background(), nil, 4))
}
