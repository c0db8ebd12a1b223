package lumen

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyProvider fails with the queued errors before succeeding.
type flakyProvider struct {
	errs  []error
	calls int
}

func (f *flakyProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return ChatResponse{}, err
	}
	return ChatResponse{Content: "ok"}, nil
}

func (f *flakyProvider) Name() string { return "flaky" }

func TestRetryOnTransientError(t *testing.T) {
	inner := &flakyProvider{errs: []error{
		&ErrHTTP{Status: 429, Body: "slow down"},
		&ErrHTTP{Status: 503, Body: "overloaded"},
	}}
	p := WithRetry(inner, RetryBaseDelay(time.Millisecond))

	resp, err := p.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q", resp.Content)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryGivesUpOnPermanentError(t *testing.T) {
	inner := &flakyProvider{errs: []error{
		&ErrHTTP{Status: 400, Body: "bad request"},
	}}
	p := WithRetry(inner, RetryBaseDelay(time.Millisecond))

	_, err := p.Chat(context.Background(), ChatRequest{})
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.Status != 400 {
		t.Fatalf("err = %v, want http 400", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	inner := &flakyProvider{errs: []error{
		&ErrHTTP{Status: 429, Body: "a"},
		&ErrHTTP{Status: 429, Body: "b"},
		&ErrHTTP{Status: 429, Body: "c"},
	}}
	p := WithRetry(inner, RetryMaxAttempts(3), RetryBaseDelay(time.Millisecond))

	_, err := p.Chat(context.Background(), ChatRequest{})
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.Body != "c" {
		t.Fatalf("err = %v, want last transient error", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	inner := &flakyProvider{errs: []error{
		&ErrHTTP{Status: 429, Body: "slow down"},
		&ErrHTTP{Status: 429, Body: "slow down"},
	}}
	p := WithRetry(inner, RetryBaseDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Chat(ctx, ChatRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

type flakyEmbedding struct {
	errs  []error
	calls int
}

func (f *flakyEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return make([][]float32, len(texts)), nil
}

func (f *flakyEmbedding) Dimensions() int { return 4 }
func (f *flakyEmbedding) Name() string    { return "flaky-embedding" }

func TestEmbeddingRetry(t *testing.T) {
	inner := &flakyEmbedding{errs: []error{
		&ErrHTTP{Status: 503, Body: "overloaded"},
	}}
	p := WithEmbeddingRetry(inner, RetryBaseDelay(time.Millisecond))

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Errorf("got %d vectors, want 2", len(vecs))
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
	if p.Dimensions() != 4 {
		t.Errorf("dimensions = %d", p.Dimensions())
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{"0", 0},
		{"-5", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := ParseRetryAfter(tt.in); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
