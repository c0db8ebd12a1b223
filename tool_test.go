package lumen

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewToolRegistry()
	if err := r.Add(&mockTool{name: "calc"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(&mockTool{name: "calc"}); err == nil {
		t.Fatal("want error for duplicate tool name")
	}
}

func TestRegistryRejectsInvalidSchema(t *testing.T) {
	r := NewToolRegistry()
	err := r.Add(&mockTool{name: "bad", schema: `{"type": ["not a valid`})
	if err == nil {
		t.Fatal("want error for invalid parameter schema")
	}
}

func TestRegistryDefinitionsOrder(t *testing.T) {
	r := NewToolRegistry()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := r.Add(&mockTool{name: name}); err != nil {
			t.Fatal(err)
		}
	}
	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("got %d definitions", len(defs))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if defs[i].Name != want {
			t.Errorf("definition %d = %q, want %q (registration order)", i, defs[i].Name, want)
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewToolRegistry()
	res := r.Execute(context.Background(), ToolCall{ID: "1", Name: "nope"})
	if !strings.Contains(res.Error, "unknown tool") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestExecuteValidatesArgs(t *testing.T) {
	r := NewToolRegistry()
	schema := `{
		"type": "object",
		"properties": {"expression": {"type": "string"}},
		"required": ["expression"]
	}`
	if err := r.Add(echoToolWithSchema("calc", schema)); err != nil {
		t.Fatal(err)
	}

	res := r.Execute(context.Background(), ToolCall{
		ID: "1", Name: "calc", Args: json.RawMessage(`{"expression": 42}`),
	})
	if !strings.Contains(res.Error, "invalid arguments") {
		t.Errorf("wrong-type arg: error = %q", res.Error)
	}

	res = r.Execute(context.Background(), ToolCall{ID: "2", Name: "calc"})
	if !strings.Contains(res.Error, "invalid arguments") {
		t.Errorf("missing required arg (nil args default to {}): error = %q", res.Error)
	}

	res = r.Execute(context.Background(), ToolCall{
		ID: "3", Name: "calc", Args: json.RawMessage(`{"expression": "2+2"}`),
	})
	if res.Error != "" {
		t.Errorf("valid args rejected: %q", res.Error)
	}
}

func echoToolWithSchema(name, schema string) *mockTool {
	tl := echoTool(name)
	tl.schema = schema
	return tl
}

func TestExecuteRecoversPanic(t *testing.T) {
	r := NewToolRegistry()
	err := r.Add(&mockTool{
		name: "explode",
		handler: func(ctx context.Context, args json.RawMessage) (ToolResult, error) {
			panic("handler bug")
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := r.Execute(context.Background(), ToolCall{ID: "1", Name: "explode"})
	if !strings.Contains(res.Error, "panic") {
		t.Errorf("error = %q, want panic report", res.Error)
	}
}

func TestExecuteHandlerError(t *testing.T) {
	r := NewToolRegistry()
	err := r.Add(&mockTool{
		name: "fail",
		handler: func(ctx context.Context, args json.RawMessage) (ToolResult, error) {
			return ToolResult{}, errBoom
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := r.Execute(context.Background(), ToolCall{ID: "1", Name: "fail"})
	if res.Error == "" {
		t.Error("handler error should surface as an error result")
	}
}
