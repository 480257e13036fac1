package harnessports

import "fmt"

// DuplicateToolError reports a second registration under an existing name.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError reports a lookup of a name absent from the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// InvalidArgumentError reports arguments that fail the tool's schema.
// Param names the offending parameter when it can be determined.
type InvalidArgumentError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid argument %q for tool %q: %s", e.Param, e.Tool, e.Reason)
}

// ToolExecutionError wraps a failure raised by a tool body. The executor
// captures it into a failed ToolResult; it never aborts the session.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// GatewayError wraps a model-service failure: unreachable service, request
// timeout, or a malformed response. The only error kind that ends a turn.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
