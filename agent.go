package lumen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// defaultMaxToolCycles bounds the TOOL_EXEC → DECIDE loop. Without a cap a
// model that keeps requesting tools would never terminate the run.
const defaultMaxToolCycles = 5

const (
	defaultLLMTimeout  = 60 * time.Second
	defaultToolTimeout = 15 * time.Second
)

// defaultSystemPrompt instructs the model on its role, how to use the
// retrieved context, and the clarification protocol.
const defaultSystemPrompt = "You are a helpful support agent that answers questions about the provided information. " +
	"Use the relevant context below to answer the user's question accurately and concisely. " +
	"If the question cannot be answered from the provided context, say that you don't have enough information " +
	"and suggest contacting a human agent. " +
	"If you need more information from the user before you can answer, reply with a single line starting with " +
	"\"" + ClarifyMarker + "\" followed by your question."

// errorAnswer is returned when the language model itself is unreachable.
// The run still terminates with a user-visible answer.
const errorAnswer = "Sorry, I couldn't reach the language model to answer your question. Please try again in a moment."

// fallbackAnswer is returned when the tool loop hits its cycle cap.
const fallbackAnswer = "I wasn't able to finish working through my tools on this question. Please try rephrasing or asking something more specific."

// ExecutedToolCall pairs a tool call with its result. One entry per request
// id; a batch of calls in a single assistant turn yields a batch of entries.
type ExecutedToolCall struct {
	ID     string
	Name   string
	Result ToolResult
}

// ConversationState is the unit of work for one orchestration run. It is
// constructed fresh per incoming message, lives for the duration of the run,
// and is not persisted by the orchestrator.
type ConversationState struct {
	// Transcript is append-only within a run, never reordered.
	Transcript []Turn
	// Retrieved is populated once by the retrieval step and consumed,
	// never mutated, by every decision step.
	Retrieved []RetrievedDocument
	// PendingToolResults is set by tool execution, consumed by the next
	// decision step, then cleared.
	PendingToolResults []ExecutedToolCall
	// ClarifyingQuestion terminates the run without a final answer when set.
	ClarifyingQuestion string
}

// Request is one incoming user message plus the caller-held prior transcript.
type Request struct {
	Message string `json:"message"`
	History []Turn `json:"chat_history"`
}

// Response is the terminal outcome of one run. Exactly one of FinalAnswer
// and ClarifyingQuestion is non-empty.
type Response struct {
	FinalAnswer        string              `json:"final_answer"`
	ClarifyingQuestion string              `json:"clarifying_question,omitempty"`
	Transcript         []Turn              `json:"updated_transcript"`
	Sources            []RetrievedDocument `json:"retrieved_sources"`
}

// Agent drives one conversational turn to completion: retrieval, model
// decisioning, tool execution, and loop termination. All collaborators are
// injected at construction; an Agent is safe for concurrent runs.
type Agent struct {
	provider      Provider
	retriever     *Retriever
	tools         *ToolRegistry
	systemPrompt  string
	maxToolCycles int
	llmTimeout    time.Duration
	toolTimeout   time.Duration
	tracer        Tracer
	logger        *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithSystemPrompt replaces the default instruction prompt.
func WithSystemPrompt(p string) AgentOption {
	return func(a *Agent) { a.systemPrompt = p }
}

// WithMaxToolCycles caps TOOL_EXEC → DECIDE cycles per run. Default is 5;
// exceeding the cap forces termination with a fallback answer.
func WithMaxToolCycles(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxToolCycles = n
		}
	}
}

// WithLLMTimeout bounds each model call. Default is 60s.
func WithLLMTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.llmTimeout = d }
}

// WithToolTimeout bounds each tool execution. Default is 15s.
func WithToolTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.toolTimeout = d }
}

// WithTracer enables span emission for runs, retrieval, decisions, and
// tool executions.
func WithTracer(t Tracer) AgentOption {
	return func(a *Agent) { a.tracer = t }
}

// WithLogger sets a structured logger. Default discards.
func WithLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

// New creates an Agent from its collaborators.
func New(provider Provider, retriever *Retriever, tools *ToolRegistry, opts ...AgentOption) *Agent {
	a := &Agent{
		provider:      provider,
		retriever:     retriever,
		tools:         tools,
		systemPrompt:  defaultSystemPrompt,
		maxToolCycles: defaultMaxToolCycles,
		llmTimeout:    defaultLLMTimeout,
		toolTimeout:   defaultToolTimeout,
		logger:        nopLogger,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run executes one orchestration run: RETRIEVE → DECIDE → (TOOL_EXEC →
// DECIDE)* until the model answers or asks for clarification. Dependency
// failures degrade (empty context, apologetic answer); the only error Run
// returns is *ErrTranscript for a malformed caller transcript, checked
// before any work is done.
func (a *Agent) Run(ctx context.Context, req Request) (Response, error) {
	history := append([]Turn(nil), req.History...)
	transcript := append(history, UserTurn(req.Message))
	if err := ValidateTranscript(transcript); err != nil {
		return Response{}, err
	}

	var runSpan Span
	if a.tracer != nil {
		ctx, runSpan = a.tracer.Start(ctx, "agent.run",
			IntAttr("history_turns", len(req.History)))
		defer runSpan.End()
	}

	state := &ConversationState{Transcript: transcript}
	a.retrieve(ctx, state)

	for cycle := 0; ; cycle++ {
		resp, err := a.decide(ctx, state)
		if err != nil {
			a.logger.Error("model call failed, degrading to error answer", "error", err)
			if runSpan != nil {
				runSpan.Error(err)
			}
			state.Transcript = append(state.Transcript, AssistantTurn(errorAnswer))
			return a.answered(state, errorAnswer), nil
		}

		switch d := ParseDecision(resp); d.Kind {
		case DecisionClarify:
			state.ClarifyingQuestion = d.Question
			if runSpan != nil {
				runSpan.SetAttr(StringAttr("outcome", "clarifying"))
			}
			return Response{
				ClarifyingQuestion: d.Question,
				Transcript:         state.Transcript,
				Sources:            state.Retrieved,
			}, nil

		case DecisionToolCalls:
			if cycle >= a.maxToolCycles {
				a.logger.Warn("tool cycle cap reached, forcing termination",
					"cycles", cycle, "requested", len(d.ToolCalls))
				state.Transcript = append(state.Transcript, AssistantTurn(fallbackAnswer))
				return a.answered(state, fallbackAnswer), nil
			}
			a.execTools(ctx, state, resp, d.ToolCalls)

		default: // DecisionAnswer
			state.Transcript = append(state.Transcript, AssistantTurn(d.Answer))
			if runSpan != nil {
				runSpan.SetAttr(StringAttr("outcome", "answered"))
			}
			return a.answered(state, d.Answer), nil
		}
	}
}

// answered builds the terminal Response for a final answer.
func (a *Agent) answered(state *ConversationState, answer string) Response {
	return Response{
		FinalAnswer: answer,
		Transcript:  state.Transcript,
		Sources:     state.Retrieved,
	}
}

// retrieve runs the best-effort RETRIEVE step. No user turn means no query
// (empty context, not an error); embedding or index failures also degrade
// to an empty context.
func (a *Agent) retrieve(ctx context.Context, state *ConversationState) {
	if a.retriever == nil {
		return
	}
	query, ok := lastUserText(state.Transcript)
	if !ok {
		a.logger.Warn("no user turn found, skipping retrieval")
		return
	}

	if a.tracer != nil {
		var span Span
		ctx, span = a.tracer.Start(ctx, "agent.retrieve")
		defer span.End()
	}

	docs, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		a.logger.Warn("retrieval failed, continuing with empty context", "error", err)
		return
	}
	a.logger.Info("retrieved context", "documents", len(docs))
	state.Retrieved = docs
}

// decide runs one DECIDE step: synthesized system turn + full transcript +
// tool catalogue sent to the model. Pending tool results are consumed here
// and cleared.
func (a *Agent) decide(ctx context.Context, state *ConversationState) (ChatResponse, error) {
	sys := a.buildSystemTurn(state)
	state.PendingToolResults = nil

	messages := make([]Turn, 0, len(state.Transcript)+1)
	messages = append(messages, sys)
	messages = append(messages, state.Transcript...)

	if a.tracer != nil {
		var span Span
		ctx, span = a.tracer.Start(ctx, "agent.decide",
			IntAttr("messages", len(messages)))
		defer span.End()
	}

	ctx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()
	return a.provider.Chat(ctx, ChatRequest{
		Messages: messages,
		Tools:    a.tools.Definitions(),
	})
}

// execTools runs the TOOL_EXEC step: every requested call is executed and
// answered with its own tool turn, and the collected results feed the next
// decision step. A failing tool produces an error result, never a failed run.
func (a *Agent) execTools(ctx context.Context, state *ConversationState, resp ChatResponse, calls []ToolCall) {
	state.Transcript = append(state.Transcript, Turn{
		Role:      RoleAssistant,
		Content:   resp.Content,
		ToolCalls: calls,
	})

	executed := make([]ExecutedToolCall, 0, len(calls))
	for _, call := range calls {
		result := a.execOne(ctx, call)
		if result.Error != "" {
			a.logger.Warn("tool call returned error", "tool", call.Name, "error", result.Error)
			state.Transcript = append(state.Transcript, ToolResultTurn(call.ID, "error: "+result.Error))
		} else {
			state.Transcript = append(state.Transcript, ToolResultTurn(call.ID, result.Content))
		}
		executed = append(executed, ExecutedToolCall{ID: call.ID, Name: call.Name, Result: result})
	}
	state.PendingToolResults = executed
}

// execOne executes a single tool call under the tool timeout.
func (a *Agent) execOne(ctx context.Context, call ToolCall) ToolResult {
	if a.tracer != nil {
		var span Span
		ctx, span = a.tracer.Start(ctx, "agent.tool",
			StringAttr("tool", call.Name))
		defer span.End()
	}
	ctx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()
	return a.tools.Execute(ctx, call)
}

// buildSystemTurn synthesizes the per-decision system turn: instructions,
// then serialized retrieved context, then serialized pending tool results.
func (a *Agent) buildSystemTurn(state *ConversationState) Turn {
	var b strings.Builder
	b.WriteString(a.systemPrompt)

	if len(state.Retrieved) > 0 {
		b.WriteString("\n\nRelevant context:\n")
		for i, doc := range state.Retrieved {
			fmt.Fprintf(&b, "--- Document %d (source: %s, score: %.2f) ---\n%s\n",
				i+1, doc.Source, doc.Score, doc.Content)
		}
	}

	if len(state.PendingToolResults) > 0 {
		b.WriteString("\nTool results from your previous calls:\n")
		for _, ex := range state.PendingToolResults {
			if ex.Result.Error != "" {
				fmt.Fprintf(&b, "[%s %s] error: %s\n", ex.ID, ex.Name, ex.Result.Error)
			} else {
				fmt.Fprintf(&b, "[%s %s] %s\n", ex.ID, ex.Name, ex.Result.Content)
			}
		}
	}

	return SystemTurn(b.String())
}

// nopLogger discards all output. Used wherever no logger is configured so
// call sites never nil-check.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
