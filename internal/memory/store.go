// Package memory provides the append-only audit log of resolved queries.
// Entries are written for every outcome, including errors, and are never
// edited or removed during a session.
package memory

import (
	"context"
	"time"
)

// Entry is one resolved question. Immutable once appended.
type Entry struct {
	ID        string
	SessionID string
	Question  string
	Intent    string
	Summary   string
	CreatedAt time.Time
}

// Store persists entries for one or more sessions.
type Store interface {
	// Append records an entry. ID and CreatedAt are filled in when empty.
	Append(ctx context.Context, e Entry) error

	// All returns a session's entries in append order. Each call re-reads
	// the underlying store, so iteration is restartable.
	All(ctx context.Context, sessionID string) ([]Entry, error)

	Close() error
}

// Log is a Store scoped to a single session. The Query Resolution Core owns
// one Log per session; sessions never see each other's entries.
type Log struct {
	store     Store
	sessionID string
}

// NewLog binds a store to a session id.
func NewLog(store Store, sessionID string) *Log {
	return &Log{store: store, sessionID: sessionID}
}

// SessionID returns the session this log writes under.
func (l *Log) SessionID() string { return l.sessionID }

// Append records a resolution outcome.
func (l *Log) Append(ctx context.Context, question, intent, summary string) error {
	return l.store.Append(ctx, Entry{
		SessionID: l.sessionID,
		Question:  question,
		Intent:    intent,
		Summary:   summary,
	})
}

// Entries returns this session's entries in append order.
func (l *Log) Entries(ctx context.Context) ([]Entry, error) {
	return l.store.All(ctx, l.sessionID)
}
