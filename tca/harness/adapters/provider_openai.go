package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// InvocationParser recovers tool invocations inlined in reply text. The
// factory wires the harness output parser in here.
type InvocationParser interface {
	ParseInvocations(text string) []ports.ToolInvocation
}

// OpenAIGateway adapts an OpenAI-compatible chat-completions endpoint to the
// Gateway port: one Query ships the entire transcript plus the tool
// declarations and maps the reply onto the ModelOutcome union.
type OpenAIGateway struct {
	client *openai.Client
	model  string
	parser InvocationParser
}

// NewOpenAIGateway creates a gateway for the given endpoint. baseURL may
// point at api.openai.com or any compatible server (ollama, llama.cpp).
func NewOpenAIGateway(apiKey, baseURL, model string, parser InvocationParser) *OpenAIGateway {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGateway{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		parser: parser,
	}
}

// Query implements ports.Gateway. Transport failures and malformed responses
// come back as *ports.GatewayError; the reply is never partially committed.
func (g *OpenAIGateway) Query(ctx context.Context, transcript []ports.Message, tools []ports.ToolSpec) (ports.ModelOutcome, error) {
	req := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: wireMessages(transcript),
		Tools:    wireTools(tools),
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &ports.GatewayError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ports.GatewayError{Err: fmt.Errorf("response carries no choices")}
	}

	reply := resp.Choices[0].Message
	usage := &ports.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	if invs := structuredInvocations(reply.ToolCalls); len(invs) > 0 {
		return ports.ToolRequests{Content: reply.Content, Invocations: invs, Usage: usage}, nil
	}

	// Some compatible servers inline the call as text instead of tool_calls.
	if g.parser != nil {
		if invs := g.parser.ParseInvocations(reply.Content); len(invs) > 0 {
			return ports.ToolRequests{Content: reply.Content, Invocations: invs, Usage: usage}, nil
		}
	}

	return ports.FinalAnswer{Text: reply.Content, Usage: usage}, nil
}

// structuredInvocations maps wire tool calls onto invocations, synthesizing
// ids for servers that omit them so correlation stays intact.
func structuredInvocations(calls []openai.ToolCall) []ports.ToolInvocation {
	invs := make([]ports.ToolInvocation, 0, len(calls))
	for _, call := range calls {
		if call.Type != "" && call.Type != openai.ToolTypeFunction {
			continue
		}
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		invs = append(invs, ports.ToolInvocation{
			ID:   id,
			Name: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		})
	}
	return invs
}

// wireMessages converts the transcript to the chat-completions format.
func wireMessages(transcript []ports.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(transcript))
	for _, msg := range transcript {
		wire := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(call.Args),
				},
			})
		}
		out = append(out, wire)
	}
	return out
}

// wireTools converts the registry's ToolSpecs to function declarations.
func wireTools(tools []ports.ToolSpec) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, spec := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  json.RawMessage(spec.JSONSchema),
			},
		})
	}
	return out
}

// Ensure OpenAIGateway implements the Gateway interface.
var _ ports.Gateway = (*OpenAIGateway)(nil)
