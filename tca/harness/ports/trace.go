package harnessports

import "context"

// Tracer emits spans/events for observability around gateway and tool calls.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error))
	Event(ctx context.Context, name string, attrs map[string]any)
}
