package lumen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Tool defines an agent capability with one or more tool functions.
type Tool interface {
	Definitions() []ToolDefinition
	Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error)
}

// ToolResult is the outcome of a tool execution. Exactly one of Content and
// Error is meaningful; an Error result is information for the model, not a
// failure of the run.
type ToolResult struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// ToolRegistry holds all registered tools and dispatches execution.
// Tool names are unique within a registry; the handler table is immutable
// after startup, so Execute is safe for concurrent use.
type ToolRegistry struct {
	tools   []Tool
	index   map[string]Tool
	schemas map[string]*gojsonschema.Schema
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		index:   make(map[string]Tool),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Add registers a tool. Duplicate tool names and invalid parameter schemas
// are rejected: both are wiring bugs that must fail at startup, not at
// dispatch time.
func (r *ToolRegistry) Add(t Tool) error {
	for _, d := range t.Definitions() {
		if _, exists := r.index[d.Name]; exists {
			return fmt.Errorf("tool %q: duplicate registration", d.Name)
		}
		if len(d.Parameters) > 0 {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(d.Parameters))
			if err != nil {
				return fmt.Errorf("tool %q: invalid parameter schema: %w", d.Name, err)
			}
			r.schemas[d.Name] = schema
		}
		r.index[d.Name] = t
	}
	r.tools = append(r.tools, t)
	return nil
}

// Definitions returns tool definitions from all registered tools, in
// registration order. This is the catalogue surfaced to the model.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	var defs []ToolDefinition
	for _, t := range r.tools {
		defs = append(defs, t.Definitions()...)
	}
	return defs
}

// Execute dispatches a tool call by name. Unknown tools, arguments that
// fail schema validation, handler errors, and handler panics all come back
// as error ToolResults; a tool call never aborts the orchestration run.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) ToolResult {
	t, ok := r.index[call.Name]
	if !ok {
		return ToolResult{Error: "unknown tool: " + call.Name}
	}

	args := call.Args
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if schema, ok := r.schemas[call.Name]; ok {
		outcome, err := schema.Validate(gojsonschema.NewBytesLoader(args))
		if err != nil {
			return ToolResult{Error: "invalid arguments: " + err.Error()}
		}
		if !outcome.Valid() {
			return ToolResult{Error: "invalid arguments: " + validationErrors(outcome)}
		}
	}

	result, err := safeExecute(ctx, t, call.Name, args)
	if err != nil {
		return ToolResult{Error: err.Error()}
	}
	return result
}

// safeExecute invokes the handler with panic recovery so a buggy tool turns
// into an error result instead of crashing the process.
func safeExecute(ctx context.Context, t Tool, name string, args json.RawMessage) (result ToolResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = ToolResult{}
			err = fmt.Errorf("tool %q panic: %v", name, p)
		}
	}()
	return t.Execute(ctx, name, args)
}

// validationErrors flattens schema validation failures into one message.
func validationErrors(outcome *gojsonschema.Result) string {
	var msg string
	for i, e := range outcome.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
	}
	return msg
}
