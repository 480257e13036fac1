package harness

import (
	"fmt"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// Registry holds the session's tool set. Registration happens once during
// startup; Freeze marks the set immutable before the agent loop starts, after
// which the registry is read concurrently without locking.
type Registry struct {
	tools  map[string]ports.Tool
	order  []string
	frozen bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ports.Tool)}
}

// Register adds a tool under its name. Registering a duplicate name returns
// *ports.DuplicateToolError; registering after Freeze is a wiring bug and
// fails outright.
func (r *Registry) Register(tool ports.Tool) error {
	if r.frozen {
		return fmt.Errorf("registry is frozen: cannot register %q", tool.Name())
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return &ports.DuplicateToolError{Name: name}
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Freeze forbids further registration. Idempotent.
func (r *Registry) Freeze() { r.frozen = true }

// Lookup returns the tool registered under name, or *ports.UnknownToolError.
func (r *Registry) Lookup(name string) (ports.Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, &ports.UnknownToolError{Name: name}
	}
	return tool, nil
}

// Specs returns the declared ToolSpecs in registration order. The order is
// part of every gateway request, so it must be deterministic.
func (r *Registry) Specs() []ports.ToolSpec {
	specs := make([]ports.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		specs = append(specs, ports.ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			JSONSchema:  tool.Schema(),
		})
	}
	return specs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
