package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// Executor resolves tool invocations into terminal ToolResults. Lookup
// failures, schema violations, timeouts, and errors raised by tool bodies all
// land in a failed result; nothing on this path can abort the session.
type Executor struct {
	registry  *Registry
	validator *ArgumentValidator
	timeout   time.Duration // per-tool budget, 0 disables
}

// NewExecutor creates an executor over a frozen registry.
func NewExecutor(registry *Registry, timeout time.Duration) *Executor {
	return &Executor{
		registry:  registry,
		validator: NewArgumentValidator(),
		timeout:   timeout,
	}
}

// Execute runs a single invocation to completion.
func (e *Executor) Execute(ctx context.Context, inv ports.ToolInvocation) ports.ToolResult {
	tool, err := e.registry.Lookup(inv.Name)
	if err != nil {
		return failedResult(inv, err)
	}

	if err := e.validator.Validate(inv.Name, tool.Schema(), inv.Args); err != nil {
		return failedResult(inv, err)
	}

	toolCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	output, err := tool.Invoke(toolCtx, inv.Args)
	if err != nil {
		return failedResult(inv, &ports.ToolExecutionError{Tool: inv.Name, Err: err})
	}

	payload, err := renderPayload(output)
	if err != nil {
		return failedResult(inv, &ports.ToolExecutionError{Tool: inv.Name, Err: err})
	}

	return ports.ToolResult{InvocationID: inv.ID, Success: true, Payload: payload}
}

// ExecuteAll runs a batch of invocations from one model turn and returns
// results indexed by request order. Execution may overlap up to concurrency
// goroutines; the returned order is independent of completion order so the
// transcript the model sees next stays deterministic.
func (e *Executor) ExecuteAll(ctx context.Context, invs []ports.ToolInvocation, concurrency int) []ports.ToolResult {
	results := make([]ports.ToolResult, len(invs))
	if len(invs) == 0 {
		return results
	}
	if concurrency < 1 {
		concurrency = 1
	}

	p := pool.New().WithMaxGoroutines(concurrency)
	for i, inv := range invs {
		p.Go(func() {
			results[i] = e.Execute(ctx, inv)
		})
	}
	p.Wait()

	return results
}

func failedResult(inv ports.ToolInvocation, err error) ports.ToolResult {
	return ports.ToolResult{InvocationID: inv.ID, Error: err.Error()}
}

// renderPayload converts a tool's return value to the transcript payload:
// strings pass through, everything else is marshaled to JSON.
func renderPayload(output any) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("marshal tool output: %w", err)
	}
	return string(b), nil
}
