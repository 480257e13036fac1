package harness

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// OutputParser recovers tool invocations that OpenAI-compatible servers
// (llama.cpp, ollama) sometimes inline in the reply text instead of returning
// as structured tool_calls. The gateway adapter runs it only when the
// structured list is empty.
type OutputParser struct {
	patterns []*regexp.Regexp
}

// NewOutputParser creates a parser covering the common inline formats.
func NewOutputParser() *OutputParser {
	return &OutputParser{
		patterns: []*regexp.Regexp{
			// JSON array format: [{"name": "tool", "arguments": {...}}]
			regexp.MustCompile(`\[\s*\{\s*"name"\s*:\s*"([^"]+)"\s*,\s*"arguments"\s*:\s*(\{.*?\})\s*\}\s*\]`),
			// Bare object format: {"name": "tool", "arguments": {...}}
			regexp.MustCompile(`\{\s*"name"\s*:\s*"([^"]+)"\s*,\s*"arguments"\s*:\s*(\{.*?\})\s*\}`),
			// Echoed wire format: {"tool_calls": [{"function": {"name": "tool", "arguments": "..."}}]}
			regexp.MustCompile(`"tool_calls"\s*:\s*\[\s*\{\s*"function"\s*:\s*\{\s*"name"\s*:\s*"([^"]+)"\s*,\s*"arguments"\s*:\s*"(\{.*?\})"\s*\}\s*\}\s*\]`),
		},
	}
}

// ParseInvocations extracts tool invocations from reply text. Calls recovered
// this way carry no correlation id, so one is synthesized per invocation.
// Duplicate name+args matches across patterns collapse to a single call.
func (p *OutputParser) ParseInvocations(text string) []ports.ToolInvocation {
	var calls []ports.ToolInvocation
	seen := make(map[string]bool)

	for _, pattern := range p.patterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			if len(match) < 3 {
				continue
			}
			name := strings.TrimSpace(match[1])
			argsStr := strings.TrimSpace(match[2])

			if !json.Valid([]byte(argsStr)) {
				argsStr = p.fixJSON(argsStr)
				if !json.Valid([]byte(argsStr)) {
					continue
				}
			}

			key := name + "\x00" + argsStr
			if seen[key] {
				continue
			}
			seen[key] = true

			calls = append(calls, ports.ToolInvocation{
				ID:   uuid.NewString(),
				Name: name,
				Args: json.RawMessage(argsStr),
			})
		}
	}

	return calls
}

// fixJSON repairs the usual model-emitted JSON defects.
func (p *OutputParser) fixJSON(jsonStr string) string {
	// Trailing commas before closing braces/brackets
	jsonStr = regexp.MustCompile(`,\s*([}\]])`).ReplaceAllString(jsonStr, "$1")

	// Unquoted keys
	jsonStr = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`).ReplaceAllString(jsonStr, `$1"$2":`)

	// Single-quoted strings
	jsonStr = strings.ReplaceAll(jsonStr, "'", "\"")

	return jsonStr
}
