package lumen

import (
	"fmt"
	"strconv"
	"time"
)

// ErrLLM reports a failure inside an LLM or embedding provider.
type ErrLLM struct {
	Provider string
	Message  string
}

func (e *ErrLLM) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP reports a non-2xx response from a provider API.
// RetryAfter carries the server-requested retry delay, or 0.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ErrTranscript reports a malformed caller-supplied transcript. It is the
// one failure the orchestrator surfaces as a client error instead of
// degrading: a run with a broken transcript is rejected before retrieval.
type ErrTranscript struct {
	Index  int // position of the offending turn
	Reason string
}

func (e *ErrTranscript) Error() string {
	return fmt.Sprintf("transcript turn %d: %s", e.Index, e.Reason)
}

// ParseRetryAfter parses a Retry-After header value in seconds.
// Returns 0 for empty or unparseable input.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
