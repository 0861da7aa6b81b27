// Package audit persists a local trail of session transitions and vehicle
// writes in a SQLite database next to the session file. The trail answers
// "when did this console last log in, and what did it change" without
// round-tripping to the backend.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// Event is one audit trail entry.
type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	// Kind identifies the transition, e.g. "session.login" or
	// "vehicle.create".
	Kind string `json:"kind"`
	// Subject is the operator or resource the event concerns.
	Subject string `json:"subject,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// defaultRetention is how many events Prune keeps.
const defaultRetention = 1000

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	ts      TEXT NOT NULL,
	kind    TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	detail  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
`

// Store is the SQLite-backed audit trail. It implements session.Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if needed creates) the audit database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	// The console is the only writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Record appends an event. Audit failures are logged and swallowed; the
// trail must never take the console down.
func (s *Store) Record(ctx context.Context, kind, subject, detail string) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (ts, kind, subject, detail) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), kind, subject, detail)
	if err != nil {
		s.logger.Warn("failed to record audit event", "kind", kind, "error", err)
	}
}

// Recent returns the newest events, newest first, up to limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, kind, subject, detail FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Subject, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			e.Timestamp = parsed
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune deletes everything but the newest keep events. keep <= 0 uses the
// default retention.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		keep = defaultRetention
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE id NOT IN (SELECT id FROM events ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune audit events: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
