package harnessports

import (
	"context"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single transcript entry. The full ordered sequence is replayed
// to the model on every query; that replay is what gives the model memory.
type Message struct {
	Role    Role
	Content string // may be empty when the message carries tool requests
	// ToolCalls holds the invocation requests on an assistant message.
	ToolCalls []ToolInvocation
	// ToolCallID links a tool message back to the invocation it resolves.
	ToolCallID string
}

// Usage captures token accounting for cost/telemetry.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelOutcome is the gateway's parsed reply. Exactly one variant comes back
// per query; callers branch with a type switch.
type ModelOutcome interface{ modelOutcome() }

// FinalAnswer is a terminal assistant reply carrying no tool requests.
type FinalAnswer struct {
	Text  string
	Usage *Usage
}

// ToolRequests is an assistant reply asking for one or more tool invocations.
// Content preserves any text the model emitted alongside the requests.
type ToolRequests struct {
	Content     string
	Invocations []ToolInvocation
	Usage       *Usage
}

func (FinalAnswer) modelOutcome()  {}
func (ToolRequests) modelOutcome() {}

// Gateway is the request/response boundary to the remote model service.
// Query sends the complete transcript plus the tool declarations and returns
// the parsed outcome. Transport failures, timeouts, and malformed responses
// surface as *GatewayError; the gateway never retries on its own.
type Gateway interface {
	Query(ctx context.Context, transcript []Message, tools []ToolSpec) (ModelOutcome, error)
}
