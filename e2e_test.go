package lumen_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	lumen "github.com/pratama/lumen"
	"github.com/pratama/lumen/index"
	"github.com/pratama/lumen/tools/calc"
	"github.com/pratama/lumen/tools/weather"
)

// scriptedProvider pops canned responses in order, recording requests.
type scriptedProvider struct {
	responses []lumen.ChatResponse
	requests  []lumen.ChatRequest
}

func (s *scriptedProvider) Chat(ctx context.Context, req lumen.ChatRequest) (lumen.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return lumen.ChatResponse{Content: "out of responses"}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

// wordEmbedding embeds a text as per-dimension counts of marker words so
// related queries and documents land near each other.
type wordEmbedding struct {
	markers []string
}

func (w *wordEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(w.markers))
		for j, m := range w.markers {
			vec[j] = float32(strings.Count(lower, m))
		}
		out[i] = vec
	}
	return out, nil
}

func (w *wordEmbedding) Dimensions() int { return len(w.markers) }
func (w *wordEmbedding) Name() string    { return "word-count" }

func mustPayload(t *testing.T, content, source string) json.RawMessage {
	t.Helper()
	p, err := json.Marshal(lumen.DocumentPayload{Content: content, Source: source})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newSupportAgent(t *testing.T, provider lumen.Provider) *lumen.Agent {
	t.Helper()
	emb := &wordEmbedding{markers: []string{"refund", "shipping", "password"}}
	ix, err := index.New(emb.Dimensions())
	if err != nil {
		t.Fatal(err)
	}

	docs := []struct{ content, source string }{
		{"Refunds are issued to the original payment method within 5 business days of approval.", "refunds.md"},
		{"Standard shipping takes 3 to 7 days. Express shipping arrives in 1 to 2 days.", "shipping.md"},
		{"To reset your password, use the \"Forgot password\" link on the sign-in page.", "account.md"},
	}
	vectors := make([][]float32, len(docs))
	payloads := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		vecs, err := emb.Embed(context.Background(), []string{d.content})
		if err != nil {
			t.Fatal(err)
		}
		vectors[i] = vecs[0]
		payloads[i] = mustPayload(t, d.content, d.source)
	}
	if err := ix.Upsert(vectors, payloads); err != nil {
		t.Fatal(err)
	}

	registry := lumen.NewToolRegistry()
	if err := registry.Add(calc.New()); err != nil {
		t.Fatal(err)
	}
	if err := registry.Add(weather.New()); err != nil {
		t.Fatal(err)
	}

	retriever := lumen.NewRetriever(ix, emb, lumen.WithTopK(2))
	return lumen.New(provider, retriever, registry)
}

func TestSupportAgentGroundedAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []lumen.ChatResponse{
		{Content: "Refunds reach your original payment method within 5 business days."},
	}}
	agent := newSupportAgent(t, provider)

	resp, err := agent.Run(context.Background(), lumen.Request{
		Message: "how long does a refund take?",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.FinalAnswer == "" {
		t.Fatal("want a final answer")
	}
	if len(resp.Sources) == 0 {
		t.Fatal("want retrieved sources")
	}
	if resp.Sources[0].Source != "refunds.md" {
		t.Errorf("top source = %q, want refunds.md", resp.Sources[0].Source)
	}
	sys := provider.requests[0].Messages[0]
	if sys.Role != lumen.RoleSystem {
		t.Fatalf("first message role = %s", sys.Role)
	}
	if !strings.Contains(sys.Content, "original payment method") {
		t.Error("system turn missing retrieved refund document")
	}
}

func TestSupportAgentCalculatorRoundTrip(t *testing.T) {
	provider := &scriptedProvider{responses: []lumen.ChatResponse{
		{ToolCalls: []lumen.ToolCall{{
			ID:   "c1",
			Name: "calculator",
			Args: json.RawMessage(`{"expression": "12.50 * 3"}`),
		}}},
		{Content: "Three units cost 37.50."},
	}}
	agent := newSupportAgent(t, provider)

	resp, err := agent.Run(context.Background(), lumen.Request{
		Message: "what do three units at 12.50 cost?",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.FinalAnswer != "Three units cost 37.50." {
		t.Errorf("final answer = %q", resp.FinalAnswer)
	}

	var toolTurn *lumen.Turn
	for i := range resp.Transcript {
		if resp.Transcript[i].Role == lumen.RoleTool {
			toolTurn = &resp.Transcript[i]
			break
		}
	}
	if toolTurn == nil {
		t.Fatal("no tool turn in transcript")
	}
	if toolTurn.ToolCallID != "c1" || toolTurn.Content != "37.5" {
		t.Errorf("tool turn = %+v", *toolTurn)
	}
	second := provider.requests[1].Messages[0].Content
	if !strings.Contains(second, "37.5") {
		t.Error("second system turn missing calculator result")
	}
}

func TestSupportAgentWeatherLookup(t *testing.T) {
	provider := &scriptedProvider{responses: []lumen.ChatResponse{
		{ToolCalls: []lumen.ToolCall{{
			ID:   "w1",
			Name: "get_weather",
			Args: json.RawMessage(`{"city": "Tokyo"}`),
		}}},
		{Content: "It is partly cloudy in Tokyo right now."},
	}}
	agent := newSupportAgent(t, provider)

	resp, err := agent.Run(context.Background(), lumen.Request{
		Message: "what's the weather in tokyo?",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.FinalAnswer == "" {
		t.Fatal("want a final answer")
	}
	var toolTurn *lumen.Turn
	for i := range resp.Transcript {
		if resp.Transcript[i].Role == lumen.RoleTool {
			toolTurn = &resp.Transcript[i]
			break
		}
	}
	if toolTurn == nil {
		t.Fatal("no tool turn in transcript")
	}
	if !strings.Contains(toolTurn.Content, "Partly cloudy") {
		t.Errorf("tool turn content = %q", toolTurn.Content)
	}
}

func TestSupportAgentClarification(t *testing.T) {
	provider := &scriptedProvider{responses: []lumen.ChatResponse{
		{Content: "CLARIFY: do you mean standard or express shipping?"},
	}}
	agent := newSupportAgent(t, provider)

	resp, err := agent.Run(context.Background(), lumen.Request{
		Message: "how long does shipping take?",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.ClarifyingQuestion != "do you mean standard or express shipping?" {
		t.Errorf("clarifying question = %q", resp.ClarifyingQuestion)
	}
	if resp.FinalAnswer != "" {
		t.Errorf("unexpected final answer %q", resp.FinalAnswer)
	}

	// The caller carries the transcript forward together with the user's reply.
	followUp := &scriptedProvider{responses: []lumen.ChatResponse{
		{Content: "Express shipping arrives in 1 to 2 days."},
	}}
	agent2 := newSupportAgent(t, followUp)
	resp2, err := agent2.Run(context.Background(), lumen.Request{
		Message: "express, please",
		History: resp.Transcript,
	})
	if err != nil {
		t.Fatalf("Run follow-up: %v", err)
	}
	if resp2.FinalAnswer == "" {
		t.Fatal("want a final answer on follow-up")
	}
}
