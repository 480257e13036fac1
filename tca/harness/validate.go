package harness

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// ArgumentValidator checks invocation arguments against a tool's declared
// JSON schema before the executor dispatches them.
type ArgumentValidator struct{}

// NewArgumentValidator creates a validator.
func NewArgumentValidator() *ArgumentValidator {
	return &ArgumentValidator{}
}

// Validate returns *ports.InvalidArgumentError, naming the offending
// parameter where it can be determined, when args do not satisfy schema.
// An empty schema accepts anything; absent args validate as an empty object
// since models omit the arguments field for parameterless calls.
func (v *ArgumentValidator) Validate(tool string, schema []byte, args json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if !json.Valid(args) {
		return &ports.InvalidArgumentError{Tool: tool, Reason: "arguments are not valid JSON"}
	}

	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ports.InvalidArgumentError{Tool: tool, Reason: fmt.Sprintf("schema validation failed: %v", err)}
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return &ports.InvalidArgumentError{
			Tool:   tool,
			Param:  offendingParam(first),
			Reason: first.Description(),
		}
	}
	return nil
}

// offendingParam pulls the parameter name out of a schema violation. Required
// violations report the missing property in details; type violations report
// the field path directly.
func offendingParam(resultErr gojsonschema.ResultError) string {
	if prop, ok := resultErr.Details()["property"].(string); ok {
		return prop
	}
	field := resultErr.Field()
	if field == "(root)" {
		return ""
	}
	return field
}
