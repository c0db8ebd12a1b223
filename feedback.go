package lumen

import "context"

// Feedback is one user rating of an assistant answer.
type Feedback struct {
	ID             string `json:"id"`
	SessionID      string `json:"session_id"`
	MessageContent string `json:"message_content"`
	FeedbackType   string `json:"feedback_type"` // "positive" or "negative"
	Comment        string `json:"comment,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

// FeedbackStore persists user feedback. Implementations live in store/sqlite
// and store/postgres; the orchestration core never touches feedback.
type FeedbackStore interface {
	StoreFeedback(ctx context.Context, fb Feedback) error
	ListFeedback(ctx context.Context, limit int) ([]Feedback, error)
	Init(ctx context.Context) error
	Close() error
}
