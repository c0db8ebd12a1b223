package lumen

import (
	"encoding/json"
	"testing"
)

func TestParseDecision(t *testing.T) {
	calls := []ToolCall{{ID: "1", Name: "calculator", Args: json.RawMessage(`{}`)}}

	tests := []struct {
		name string
		resp ChatResponse
		want DecisionKind
	}{
		{"plain answer", ChatResponse{Content: "The refund takes 5 days."}, DecisionAnswer},
		{"tool calls", ChatResponse{ToolCalls: calls}, DecisionToolCalls},
		{"clarify", ChatResponse{Content: "CLARIFY: which plan are you on?"}, DecisionClarify},
		{"clarify with leading space", ChatResponse{Content: "  CLARIFY: which city?"}, DecisionClarify},
		{"clarify wins over tool calls", ChatResponse{Content: "CLARIFY: which one?", ToolCalls: calls}, DecisionClarify},
		{"marker mid-text is an answer", ChatResponse{Content: "Reply CLARIFY: if unsure."}, DecisionAnswer},
		{"empty response is an answer", ChatResponse{}, DecisionAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDecision(tt.resp)
			if d.Kind != tt.want {
				t.Fatalf("kind = %d, want %d", d.Kind, tt.want)
			}
			switch d.Kind {
			case DecisionClarify:
				if d.Question == "" {
					t.Error("clarify decision with empty question")
				}
			case DecisionToolCalls:
				if len(d.ToolCalls) == 0 {
					t.Error("tool decision with no calls")
				}
			}
		})
	}
}

func TestParseDecisionStripsMarker(t *testing.T) {
	d := ParseDecision(ChatResponse{Content: "CLARIFY:   which account do you mean?  "})
	if d.Question != "which account do you mean?" {
		t.Errorf("question = %q", d.Question)
	}
}
