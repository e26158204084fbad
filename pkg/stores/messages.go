package stores

import (
	"log/slog"
	"sync"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// MessageRecord is one logical assistant message, merged from a
// start/delta*/end series sharing a message_id. Content is append-only
// until the record turns terminal.
type MessageRecord struct {
	MessageID string
	Role      string
	Content   string
	Terminal  bool   // no further deltas merge into this record
	Error     string // set when the message ended with an error
	StartedAt time.Time
	EndedAt   time.Time
}

// MessageStore folds agent-message streaming events into merged
// records: successive deltas for the same message_id concatenate onto
// the last unterminated record for that id, in place, rather than
// appending new items.
type MessageStore struct {
	mu      sync.RWMutex
	max     int
	records []*MessageRecord
	// latest points at the most recent record per message_id so delta
	// lookup is O(1). Entries are dropped when their record is evicted.
	latest map[string]*MessageRecord
}

// NewMessageStore creates a message store with the given retention
// bound. max <= 0 uses DefaultMessagesMax.
func NewMessageStore(max int) *MessageStore {
	if max <= 0 {
		max = DefaultMessagesMax
	}
	return &MessageStore{max: max, latest: make(map[string]*MessageRecord)}
}

// Apply folds one event into the store. Non-message events are ignored.
func (s *MessageStore) Apply(e events.Event) {
	switch e.Type {
	case events.EventTypeAgentMessageStart:
		p, err := e.MessageStart()
		if err != nil {
			slog.Warn("Skipping undecodable message event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		s.appendLocked(&MessageRecord{
			MessageID: p.MessageID,
			Role:      p.Role,
			StartedAt: e.Time(),
		})
		s.mu.Unlock()

	case events.EventTypeAgentMessageDelta:
		p, err := e.MessageDelta()
		if err != nil {
			slog.Warn("Skipping undecodable message event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		if rec := s.latest[p.MessageID]; rec != nil && !rec.Terminal {
			rec.Content += p.Delta
		} else {
			// Delta with no open record: seed a new one with this fragment.
			s.appendLocked(&MessageRecord{
				MessageID: p.MessageID,
				Content:   p.Delta,
				StartedAt: e.Time(),
			})
		}
		s.mu.Unlock()

	case events.EventTypeAgentMessageEnd:
		p, err := e.MessageEnd()
		if err != nil {
			slog.Warn("Skipping undecodable message event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		if rec := s.latest[p.MessageID]; rec != nil && !rec.Terminal {
			rec.Terminal = true
			rec.EndedAt = e.Time()
			rec.Error = p.Error
			if p.Content != "" {
				rec.Content = p.Content
			}
		} else {
			// Terminal event with no preceding start/delta: still recorded.
			s.appendLocked(&MessageRecord{
				MessageID: p.MessageID,
				Content:   p.Content,
				Terminal:  true,
				Error:     p.Error,
				EndedAt:   e.Time(),
			})
		}
		s.mu.Unlock()
	}
}

// appendLocked inserts a record, enforces the bound, and updates the
// per-id index. Caller holds s.mu.
func (s *MessageStore) appendLocked(rec *MessageRecord) {
	var evicted *MessageRecord
	if len(s.records) >= s.max {
		evicted = s.records[0]
	}
	s.records = AppendCapped(s.records, rec, s.max)
	s.latest[rec.MessageID] = rec

	// Drop the index entry for the evicted record so a later delta for
	// its id seeds a fresh record instead of merging into a dead one.
	// Skip when a newer record already owns the id.
	if evicted != nil && s.latest[evicted.MessageID] == evicted {
		delete(s.latest, evicted.MessageID)
	}
}

// Messages returns a snapshot of the merged records in arrival order.
func (s *MessageStore) Messages() []MessageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MessageRecord, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// Len returns the number of logical message records.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset discards all state. Called on session change.
func (s *MessageStore) Reset() {
	s.mu.Lock()
	s.records = nil
	s.latest = make(map[string]*MessageRecord)
	s.mu.Unlock()
}
