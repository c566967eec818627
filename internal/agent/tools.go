package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nidhogg/echoes/internal/provider"
)

// ToolHandler executes a tool call and returns the result as a string.
type ToolHandler func(ctx context.Context, args string) (string, error)

// ToolRegistry holds available tools and their handlers.
type ToolRegistry struct {
	defs     []provider.Tool
	handlers map[string]ToolHandler
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		handlers: make(map[string]ToolHandler),
	}
}

// Register adds a tool definition and its handler.
func (r *ToolRegistry) Register(def provider.Tool, handler ToolHandler) {
	r.defs = append(r.defs, def)
	r.handlers[def.Function.Name] = handler
}

// Definitions returns all tool definitions for the LLM request.
func (r *ToolRegistry) Definitions() []provider.Tool {
	return r.defs
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	return len(r.defs)
}

// Execute runs a tool by name with the given JSON arguments.
func (r *ToolRegistry) Execute(ctx context.Context, name, args string) (string, error) {
	h, ok := r.handlers[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return h(ctx, args)
}

// Run executes a tool and resolves every failure to an error-describing
// observation string. Tool failures never propagate past this boundary.
func (r *ToolRegistry) Run(ctx context.Context, name, args string) string {
	out, err := r.Execute(ctx, name, args)
	if err != nil {
		return fmt.Sprintf("Error executing tool '%s': %s", name, err)
	}
	return out
}

// decodeArgs turns a JSON argument payload into the map recorded on action
// steps. Malformed payloads are kept verbatim under a "raw" key.
func decodeArgs(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]interface{}{"raw": raw}
	}
	return m
}

// DescribeTools renders the tool list block used inside system prompts.
func DescribeTools(defs []provider.Tool) string {
	var b strings.Builder
	for _, d := range defs {
		fmt.Fprintf(&b, "- **%s**: %s\n", d.Function.Name, d.Function.Description)
		if d.Function.Parameters != nil {
			if schema, err := json.Marshal(d.Function.Parameters); err == nil {
				fmt.Fprintf(&b, "  Input schema: %s\n", schema)
			}
		}
	}
	return b.String()
}
