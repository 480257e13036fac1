package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvocations_ArrayFormat(t *testing.T) {
	parser := NewOutputParser()

	calls := parser.ParseInvocations(`[{"name": "get_weather", "arguments": {"location": "Paris"}}]`)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_weather", calls[0].Name)
	assert.JSONEq(t, `{"location":"Paris"}`, string(calls[0].Args))
	assert.NotEmpty(t, calls[0].ID, "recovered calls need a synthesized id")
}

func TestParseInvocations_BareObjectFormat(t *testing.T) {
	parser := NewOutputParser()

	text := `I'll check that for you: {"name": "get_time", "arguments": {"timezone": "UTC"}}`
	calls := parser.ParseInvocations(text)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_time", calls[0].Name)
}

func TestParseInvocations_RepairsSloppyJSON(t *testing.T) {
	parser := NewOutputParser()

	// Unquoted key and trailing comma, as local models tend to emit.
	text := `{"name": "run_bash", "arguments": {command: "ls",}}`
	calls := parser.ParseInvocations(text)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"command":"ls"}`, string(calls[0].Args))
}

func TestParseInvocations_PlainTextHasNoCalls(t *testing.T) {
	parser := NewOutputParser()
	assert.Empty(t, parser.ParseInvocations("The temperature in Paris is 18°C."))
}

func TestParseInvocations_DeduplicatesAcrossPatterns(t *testing.T) {
	parser := NewOutputParser()

	// The array pattern and the bare-object pattern both match this text;
	// the call must come out once.
	calls := parser.ParseInvocations(`[{"name": "get_time", "arguments": {"timezone": "UTC"}}]`)
	assert.Len(t, calls, 1)
}

func TestParseInvocations_DistinctIDs(t *testing.T) {
	parser := NewOutputParser()

	text := `{"name": "get_time", "arguments": {"timezone": "UTC"}}
{"name": "get_time", "arguments": {"timezone": "Europe/Paris"}}`
	calls := parser.ParseInvocations(text)
	require.Len(t, calls, 2)
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
}
