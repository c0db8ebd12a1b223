package lumen

import "encoding/json"

// --- Conversation types ---

// Roles for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one message unit in a conversation transcript.
// An assistant turn may carry tool calls instead of (or alongside) content.
// A tool turn answers a prior tool call and references it via ToolCallID.
type Turn struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a structured tool invocation requested by the model.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ChatRequest is the transcript plus tool catalogue sent to a Provider.
type ChatRequest struct {
	Messages []Turn           `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// ChatResponse is a Provider's reply: natural-language content, tool
// invocation requests, or both.
type ChatResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ToolDefinition describes one callable tool to the model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// --- Retrieval types ---

// RetrievedDocument is an immutable snapshot of a knowledge-base hit.
// Score is the Euclidean distance between the query embedding and the
// document embedding; lower means closer.
type RetrievedDocument struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
}

// DocumentPayload is the record stored alongside each vector in the index.
// The index treats it as opaque bytes; this is the shape the ingest path
// writes and the retrieval path reads back.
type DocumentPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// --- Turn constructors ---

func SystemTurn(text string) Turn {
	return Turn{Role: RoleSystem, Content: text}
}

func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text}
}

func ToolResultTurn(callID, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: callID}
}
