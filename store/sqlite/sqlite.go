// Package sqlite implements lumen.FeedbackStore using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pratama/lumen"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. When set, the store
// emits debug logs for every operation. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store persists user feedback in a local SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ lumen.FeedbackStore = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so that
// all goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: feedback store opened", "path", dbPath)
	return s
}

// Init creates the feedback table.
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message_content TEXT NOT NULL,
		feedback_type TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("sqlite: init: %w", err)
	}
	s.logger.Debug("sqlite: init done", "elapsed", time.Since(start))
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, session_id, message_content, feedback_type, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.SessionID, fb.MessageContent, fb.FeedbackType, fb.Comment, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: store feedback: %w", err)
	}
	s.logger.Debug("sqlite: feedback stored", "id", fb.ID, "type", fb.FeedbackType)
	return nil
}

// ListFeedback returns the most recent feedback records, newest first.
func (s *Store) ListFeedback(ctx context.Context, limit int) ([]lumen.Feedback, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, message_content, feedback_type, comment, created_at
		 FROM feedback ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list feedback: %w", err)
	}
	defer rows.Close()

	var out []lumen.Feedback
	for rows.Next() {
		var fb lumen.Feedback
		if err := rows.Scan(&fb.ID, &fb.SessionID, &fb.MessageContent, &fb.FeedbackType, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list feedback: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
