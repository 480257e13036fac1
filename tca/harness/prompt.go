package harness

import (
	"strings"
)

// PromptBuilder normalizes the system seed before it enters the transcript.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder { return &PromptBuilder{} }

// Build normalizes newlines and trims surrounding whitespace so identical
// seeds produce identical transcripts (and identical cache keys).
func (b *PromptBuilder) Build(system string) string {
	return strings.TrimSpace(strings.ReplaceAll(system, "\r\n", "\n"))
}
