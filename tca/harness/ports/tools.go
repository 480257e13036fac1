package harnessports

import (
	"context"
	"encoding/json"
)

// ToolSpec describes a callable tool as declared to the model.
type ToolSpec struct {
	Name        string // unique logical name
	Description string // concise doc for model selection
	JSONSchema  []byte // JSON schema for args
}

// ToolInvocation is a model-issued request to run one tool. The ID correlates
// the eventual result back to this request; it is model-assigned, or
// synthesized when the model inlined the call as plain text.
type ToolInvocation struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolResult is the terminal outcome of exactly one invocation.
type ToolResult struct {
	InvocationID string
	Success      bool
	Payload      string // set on success
	Error        string // human-readable description on failure
}

// Tool defines the runtime that executes an invocation.
type Tool interface {
	Name() string
	Description() string
	Schema() []byte
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}
