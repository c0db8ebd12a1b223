// Package postgres implements lumen.FeedbackStore on PostgreSQL via pgx.
// Use it instead of the sqlite store when feedback must be shared across
// replicas.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pratama/lumen"
)

// StoreOption configures a Postgres Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. Default discards.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store persists user feedback in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ lumen.FeedbackStore = (*Store)(nil)

// New connects to the database at connString and returns a Store. The pool
// is created immediately; connections are established lazily.
func New(ctx context.Context, connString string, opts ...StoreOption) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	s := &Store{pool: pool, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Init creates the feedback table.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message_content TEXT NOT NULL,
		feedback_type TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("postgres: init: %w", err)
	}
	return nil
}

// StoreFeedback inserts one feedback record. A missing id or timestamp is
// filled in.
func (s *Store) StoreFeedback(ctx context.Context, fb lumen.Feedback) error {
	if fb.ID == "" {
		fb.ID = lumen.NewID()
	}
	if fb.CreatedAt == 0 {
		fb.CreatedAt = lumen.NowUnix()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feedback (id, session_id, message_content, feedback_type, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fb.ID, fb.SessionID, fb.MessageContent, fb.FeedbackType, fb.Comment, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: store feedback: %w", err)
	}
	s.logger.Debug("postgres: feedback stored", "id", fb.ID, "type", fb.FeedbackType)
	return nil
}

// ListFeedback returns the most recent feedback records, newest first.
func (s *Store) ListFeedback(ctx context.Context, limit int) ([]lumen.Feedback, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, message_content, feedback_type, comment, created_at
		 FROM feedback ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list feedback: %w", err)
	}
	defer rows.Close()

	var out []lumen.Feedback
	for rows.Next() {
		var fb lumen.Feedback
		if err := rows.Scan(&fb.ID, &fb.SessionID, &fb.MessageContent, &fb.FeedbackType, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list feedback: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
