package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	// sqlite driver for the session audit database.
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on an in-memory SQLite database. The
// in-memory DSN means the audit trail lives exactly as long as the process
// that owns it; nothing is persisted across sessions.
type SQLiteStore struct {
	db *sql.DB
}

// OpenStore opens a fresh in-memory store and runs migrations.
func OpenStore() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	// An in-memory sqlite database exists per connection; pin the pool to
	// one connection so every query sees the same database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping session store: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the store, discarding all entries.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append records an entry, filling ID and CreatedAt when empty.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, session_id, question, intent, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionID, e.Question, e.Intent, e.Summary, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// All returns a session's entries in append order.
func (s *SQLiteStore) All(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, question, intent, summary, created_at
		FROM entries
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Question, &e.Intent, &e.Summary, &created); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

var _ Store = (*SQLiteStore)(nil)
