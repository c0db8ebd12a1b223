// Package server exposes the agent over HTTP: POST /chat runs a
// conversation turn, POST /feedback records user feedback, GET /healthz
// reports liveness.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pratama/lumen"
	"github.com/pratama/lumen/observer"
)

// Server handles the HTTP API.
type Server struct {
	agent    *lumen.Agent
	feedback lumen.FeedbackStore
	inst     *observer.Instruments
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithInstruments enables metric recording on every request.
func WithInstruments(inst *observer.Instruments) Option {
	return func(s *Server) { s.inst = inst }
}

// WithLogger sets a structured logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. feedback may be nil, in which case POST /feedback
// returns 503.
func New(agent *lumen.Agent, feedback lumen.FeedbackStore, opts ...Option) *Server {
	s := &Server{
		agent:    agent,
		feedback: feedback,
		logger:   slog.New(discardHandler{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /feedback", s.handleFeedback)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.inst != nil {
		s.inst.ChatRequests.Add(r.Context(), 1)
		s.inst.ActiveRequests.Add(r.Context(), 1)
		defer func() {
			s.inst.ActiveRequests.Add(context.WithoutCancel(r.Context()), -1)
			s.inst.ChatDuration.Record(context.WithoutCancel(r.Context()),
				float64(time.Since(start).Milliseconds()))
		}()
	}

	var req lumen.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, r, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.agent.Run(r.Context(), req)
	if err != nil {
		var tErr *lumen.ErrTranscript
		if errors.As(err, &tErr) {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("chat request failed", "error", err)
		if s.inst != nil {
			s.inst.ChatErrors.Add(r.Context(), 1)
		}
		s.writeError(w, r, http.StatusInternalServerError, "agent run failed")
		return
	}

	if s.inst != nil {
		if resp.ClarifyingQuestion != "" {
			s.inst.Clarifications.Add(r.Context(), 1)
		}
		if n := countToolCalls(req.History, resp.Transcript); n > 0 {
			s.inst.ToolCalls.Add(r.Context(), int64(n))
		}
	}

	s.logger.Info("chat request served",
		"elapsed", time.Since(start),
		"clarifying", resp.ClarifyingQuestion != "",
		"sources", len(resp.Sources))
	s.writeJSON(w, http.StatusOK, resp)
}

// countToolCalls counts tool calls in transcript turns added after the
// request history.
func countToolCalls(history, transcript []lumen.Turn) int {
	n := 0
	for i := len(history); i < len(transcript); i++ {
		n += len(transcript[i].ToolCalls)
	}
	return n
}

type feedbackRequest struct {
	SessionID      string `json:"session_id"`
	MessageContent string `json:"message_content"`
	FeedbackType   string `json:"feedback_type"`
	Comment        string `json:"comment"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "feedback store not configured")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.FeedbackType != "thumbs_up" && req.FeedbackType != "thumbs_down" {
		s.writeError(w, r, http.StatusBadRequest, `feedback_type must be "thumbs_up" or "thumbs_down"`)
		return
	}
	if strings.TrimSpace(req.MessageContent) == "" {
		s.writeError(w, r, http.StatusBadRequest, "message_content is required")
		return
	}

	fb := lumen.Feedback{
		ID:             lumen.NewID(),
		SessionID:      req.SessionID,
		MessageContent: req.MessageContent,
		FeedbackType:   req.FeedbackType,
		Comment:        req.Comment,
		CreatedAt:      lumen.NowUnix(),
	}
	if err := s.feedback.StoreFeedback(r.Context(), fb); err != nil {
		s.logger.Error("store feedback failed", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "could not store feedback")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": fb.ID, "status": "recorded"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", msg)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", msg)
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
