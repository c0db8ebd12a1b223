package lumen

import (
	"context"
	"encoding/json"
	"errors"
)

// mockProvider pops canned responses in order and records every request it
// receives.
type mockProvider struct {
	responses []ChatResponse
	requests  []ChatRequest
	err       error
}

func (m *mockProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return ChatResponse{}, m.err
	}
	if len(m.responses) == 0 {
		return ChatResponse{Content: "out of canned responses"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockProvider) Name() string { return "mock" }

// lastRequest returns the most recent request seen by the provider.
func (m *mockProvider) lastRequest() ChatRequest {
	return m.requests[len(m.requests)-1]
}

// mockEmbedding returns a deterministic vector per text and records inputs.
type mockEmbedding struct {
	dims   int
	inputs [][]string
	err    error
}

func (m *mockEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.inputs = append(m.inputs, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, m.dims)
		for j := range vec {
			vec[j] = float32(len(texts[i]) % 7)
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return m.dims }
func (m *mockEmbedding) Name() string    { return "mock-embedding" }

// mockSearcher returns canned hits.
type mockSearcher struct {
	hits []SearchHit
	err  error
	gotK int
}

func (m *mockSearcher) Search(query []float32, k int) ([]SearchHit, error) {
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

// docHit builds a SearchHit with a DocumentPayload body.
func docHit(id int64, content, source string, score float32) SearchHit {
	p, err := json.Marshal(DocumentPayload{Content: content, Source: source})
	if err != nil {
		panic(err)
	}
	return SearchHit{Payload: p, Score: score, ID: id}
}

// mockTool is a single-function tool with a pluggable handler.
type mockTool struct {
	name    string
	schema  string
	handler func(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

func (m *mockTool) Definitions() []ToolDefinition {
	schema := m.schema
	if schema == "" {
		schema = `{"type": "object"}`
	}
	return []ToolDefinition{
		{Name: m.name, Description: "mock " + m.name, Parameters: json.RawMessage(schema)},
	}
}

func (m *mockTool) Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error) {
	if name != m.name {
		return ToolResult{Error: "unknown tool: " + name}, nil
	}
	if m.handler != nil {
		return m.handler(ctx, args)
	}
	return ToolResult{Content: "ok"}, nil
}

// echoTool returns its arguments as the result content.
func echoTool(name string) *mockTool {
	return &mockTool{
		name: name,
		handler: func(ctx context.Context, args json.RawMessage) (ToolResult, error) {
			return ToolResult{Content: string(args)}, nil
		},
	}
}

var errBoom = errors.New("boom")
