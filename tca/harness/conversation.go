package harness

import (
	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// Transcript is the ordered message history of one session. It only grows:
// Append is the single mutation path, there is no deletion or reordering, and
// the full sequence is replayed to the model on every query. The agent loop
// holds the only reference; everything else sees copies.
type Transcript struct {
	msgs []ports.Message
}

// NewTranscript returns an empty transcript, seeded with a system instruction
// message when system is non-empty.
func NewTranscript(system string) *Transcript {
	t := &Transcript{}
	if system != "" {
		t.msgs = append(t.msgs, ports.Message{Role: ports.RoleSystem, Content: system})
	}
	return t
}

// Append adds one message at the end.
func (t *Transcript) Append(msg ports.Message) {
	t.msgs = append(t.msgs, msg)
}

// Snapshot returns a copy of the full ordered sequence for transmission to
// the gateway. Callers may not mutate transcript state through it.
func (t *Transcript) Snapshot() []ports.Message {
	out := make([]ports.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len reports the number of messages, including any system seed.
func (t *Transcript) Len() int { return len(t.msgs) }
