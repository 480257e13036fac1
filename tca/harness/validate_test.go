package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

func TestValidate_AcceptsMatchingArguments(t *testing.T) {
	v := NewArgumentValidator()
	err := v.Validate("get_weather", []byte(locationSchema), json.RawMessage(`{"location":"Oslo"}`))
	assert.NoError(t, err)
}

func TestValidate_EmptySchemaAcceptsAnything(t *testing.T) {
	v := NewArgumentValidator()
	assert.NoError(t, v.Validate("anything", nil, json.RawMessage(`{"whatever": true}`)))
}

func TestValidate_AbsentArgsValidateAsEmptyObject(t *testing.T) {
	v := NewArgumentValidator()

	// Parameterless schemas pass; required parameters fail.
	assert.NoError(t, v.Validate("get_noop", []byte(`{"type":"object"}`), nil))

	err := v.Validate("get_weather", []byte(locationSchema), nil)
	var invalid *ports.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "location", invalid.Param)
}

func TestValidate_MalformedJSON(t *testing.T) {
	v := NewArgumentValidator()

	err := v.Validate("get_weather", []byte(locationSchema), json.RawMessage(`{not json`))
	var invalid *ports.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "not valid JSON")
}

func TestValidate_WrongTypeReportsField(t *testing.T) {
	v := NewArgumentValidator()

	err := v.Validate("get_weather", []byte(locationSchema), json.RawMessage(`{"location": 7}`))
	var invalid *ports.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "get_weather", invalid.Tool)
	assert.Equal(t, "location", invalid.Param)
}
