package stores

import (
	"fmt"
	"testing"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

var testClock = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

// evt builds a test event with a deterministic timestamp offset in
// milliseconds from the shared base.
func evt(t *testing.T, typ events.EventType, offsetMS int, payload string) events.Event {
	t.Helper()
	return events.Event{
		EventID:   fmt.Sprintf("evt-%s-%d", typ, offsetMS),
		SessionID: "sess-test",
		Timestamp: testClock.Add(time.Duration(offsetMS) * time.Millisecond).Format(time.RFC3339Nano),
		Type:      typ,
		Payload:   []byte(payload),
	}
}
