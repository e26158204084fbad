// Package capture records received session events to a local SQLite
// file and replays them later through the same dispatch path the live
// stream uses. Recordings are append-only; one file can hold multiple
// sessions.
package capture

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver

	"github.com/agentlens/agentlens/pkg/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    event_id   TEXT NOT NULL,
    type       TEXT NOT NULL,
    timestamp  TEXT NOT NULL,
    payload    BLOB
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events (session_id, seq);
`

// Recorder appends events to a SQLite capture file.
type Recorder struct {
	db *sql.DB
}

// Open opens (creating if needed) a capture file.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create capture schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Append records one event. Sequence numbers are assigned by insertion
// order, which is arrival order.
func (r *Recorder) Append(ctx context.Context, e events.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (session_id, event_id, type, timestamp, payload) VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.EventID, string(e.Type), e.Timestamp, []byte(e.Payload))
	if err != nil {
		return fmt.Errorf("append event %s: %w", e.EventID, err)
	}
	return nil
}

// Events returns all recorded events for a session in arrival order.
func (r *Recorder) Events(ctx context.Context, sessionID string) ([]events.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, event_id, type, timestamp, payload FROM events WHERE session_id = ? ORDER BY seq ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query capture: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var e events.Event
		var typ string
		var payload []byte
		if err := rows.Scan(&e.SessionID, &e.EventID, &typ, &e.Timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan captured event: %w", err)
		}
		e.Type = events.EventType(typ)
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sessions lists the distinct session ids in the capture file.
func (r *Recorder) Sessions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM events ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Count returns the number of recorded events for a session.
func (r *Recorder) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count captured events: %w", err)
	}
	return n, nil
}

// Close closes the capture file.
func (r *Recorder) Close() error {
	return r.db.Close()
}
