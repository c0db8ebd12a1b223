package lumen

import "strings"

// ClarifyMarker is the prefix the model is instructed to emit when it needs
// more information from the user instead of answering.
const ClarifyMarker = "CLARIFY:"

// DecisionKind tags the three possible outcomes of one decision step.
type DecisionKind int

const (
	// DecisionAnswer means the model produced a final answer.
	DecisionAnswer DecisionKind = iota
	// DecisionToolCalls means the model requested one or more tool calls.
	DecisionToolCalls
	// DecisionClarify means the model asked the user a clarifying question.
	DecisionClarify
)

// Decision is the tagged variant resolved from a model response. Resolving
// it in a single parse step keeps the downstream state machine free of
// string sniffing: each state switches exhaustively on Kind.
type Decision struct {
	Kind      DecisionKind
	Answer    string     // set when Kind == DecisionAnswer
	Question  string     // set when Kind == DecisionClarify
	ToolCalls []ToolCall // set when Kind == DecisionToolCalls
}

// ParseDecision classifies a model response. The clarify marker wins over
// tool calls: a model that asks a question has decided not to act yet.
func ParseDecision(resp ChatResponse) Decision {
	trimmed := strings.TrimSpace(resp.Content)
	if q, ok := strings.CutPrefix(trimmed, ClarifyMarker); ok {
		return Decision{Kind: DecisionClarify, Question: strings.TrimSpace(q)}
	}
	if len(resp.ToolCalls) > 0 {
		return Decision{Kind: DecisionToolCalls, ToolCalls: resp.ToolCalls}
	}
	return Decision{Kind: DecisionAnswer, Answer: resp.Content}
}
