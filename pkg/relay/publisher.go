package relay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// notifyLimit is PostgreSQL's practical NOTIFY payload ceiling. Larger
// payloads are replaced with a truncation envelope carrying only
// routing fields; watchers fetch the full event over REST.
const notifyLimit = 7900

// Publisher persists ingested events and broadcasts them via NOTIFY.
// Persistent events are stored in the events table then notified in the
// same transaction (pg_notify is transactional — held until COMMIT).
// High-frequency delta events are notified only, never persisted.
type Publisher struct {
	db *sql.DB
}

// NewPublisher creates a publisher over db.
func NewPublisher(db *sql.DB) *Publisher {
	return &Publisher{db: db}
}

// transientTypes are broadcast but not persisted: they are ephemeral
// streaming fragments whose final content arrives in a terminal event.
var transientTypes = map[events.EventType]bool{
	events.EventTypeAgentMessageDelta: true,
	events.EventTypeToolCallDelta:     true,
}

// Publish routes one event to its session channel. Delta events are
// notify-only; everything else is persisted first.
func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	payloadJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.EventID, err)
	}
	channel := events.SessionChannel(e.SessionID)

	if transientTypes[e.Type] {
		return p.notifyOnly(ctx, channel, payloadJSON)
	}
	return p.persistAndNotify(ctx, e.SessionID, channel, payloadJSON)
}

// persistAndNotify stores the event and fires pg_notify in one
// transaction, so the row is durable exactly when the NOTIFY fires.
func (p *Publisher) persistAndNotify(ctx context.Context, sessionID, channel string, payloadJSON []byte) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rowID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO events (session_id, channel, payload, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		sessionID, channel, payloadJSON, time.Now(),
	).Scan(&rowID)
	if err != nil {
		return fmt.Errorf("persist event: %w", err)
	}

	notifyPayload, err := truncateIfNeeded(payloadJSON)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event transaction: %w", err)
	}
	return nil
}

// notifyOnly broadcasts without persisting.
func (p *Publisher) notifyOnly(ctx context.Context, channel string, payloadJSON []byte) error {
	notifyPayload, err := truncateIfNeeded(payloadJSON)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// EventsSince returns persisted event payloads for a channel with row
// id greater than sinceID, oldest first, up to limit rows. Used for
// optional replay when a watcher connects.
func (p *Publisher) EventsSince(ctx context.Context, channel string, sinceID int64, limit int) ([]json.RawMessage, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM events WHERE channel = $1 AND id > $2 ORDER BY id ASC LIMIT $3`,
		channel, sinceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events since %d: %w", sinceID, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event payload: %w", err)
		}
		out = append(out, payload)
	}
	return out, rows.Err()
}

// LatestEvents returns the most recent n persisted payloads for a
// channel in chronological order.
func (p *Publisher) LatestEvents(ctx context.Context, channel string, n int) ([]json.RawMessage, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM (
			SELECT id, payload FROM events WHERE channel = $1 ORDER BY id DESC LIMIT $2
		) recent ORDER BY id ASC`,
		channel, n)
	if err != nil {
		return nil, fmt.Errorf("query latest events: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event payload: %w", err)
		}
		out = append(out, payload)
	}
	return out, rows.Err()
}

// truncateIfNeeded returns the payload unchanged when it fits the
// NOTIFY limit, otherwise a minimal envelope with routing fields only.
func truncateIfNeeded(payloadJSON []byte) (string, error) {
	if len(payloadJSON) <= notifyLimit {
		return string(payloadJSON), nil
	}

	var routing struct {
		EventID   string `json:"event_id"`
		SessionID string `json:"session_id"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
	}
	if err := json.Unmarshal(payloadJSON, &routing); err != nil {
		return "", fmt.Errorf("extract routing fields for truncation: %w", err)
	}

	truncated, err := json.Marshal(map[string]any{
		"event_id":   routing.EventID,
		"session_id": routing.SessionID,
		"timestamp":  routing.Timestamp,
		"type":       routing.Type,
		"truncated":  true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal truncated payload: %w", err)
	}
	return string(truncated), nil
}
