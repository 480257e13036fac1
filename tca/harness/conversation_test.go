package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

func TestTranscript_SystemSeed(t *testing.T) {
	seeded := NewTranscript("be terse")
	require.Equal(t, 1, seeded.Len())
	assert.Equal(t, ports.RoleSystem, seeded.Snapshot()[0].Role)

	empty := NewTranscript("")
	assert.Equal(t, 0, empty.Len())
}

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	transcript := NewTranscript("")
	transcript.Append(ports.Message{Role: ports.RoleUser, Content: "one"})
	transcript.Append(ports.Message{Role: ports.RoleAssistant, Content: "two"})
	transcript.Append(ports.Message{Role: ports.RoleUser, Content: "three"})

	snapshot := transcript.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "one", snapshot[0].Content)
	assert.Equal(t, "two", snapshot[1].Content)
	assert.Equal(t, "three", snapshot[2].Content)
}

func TestTranscript_SnapshotIsolation(t *testing.T) {
	transcript := NewTranscript("")
	transcript.Append(ports.Message{Role: ports.RoleUser, Content: "original"})

	// Mutating a snapshot must not reach the transcript.
	snapshot := transcript.Snapshot()
	snapshot[0].Content = "tampered"

	assert.Equal(t, "original", transcript.Snapshot()[0].Content)
}
