package relay

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agentlens/agentlens/pkg/events"
)

// replayLimit caps how many persisted events a watcher can request on
// connect. Beyond this, watchers should reload over REST instead.
const replayLimit = 200

// Server is the relay's HTTP surface: an SSE stream per session, an
// ingest endpoint for the agent backend, and health.
type Server struct {
	hub       *Hub
	publisher *Publisher
}

// NewServer creates a relay server.
func NewServer(hub *Hub, publisher *Publisher) *Server {
	return &Server{hub: hub, publisher: publisher}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)

	v1 := r.Group("/api/v1")
	v1.GET("/events/:session_id", s.streamEvents)
	v1.POST("/events", s.ingestEvent)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// streamEvents serves the per-session SSE stream. Each live event is
// written as a named frame (event: <type>) so watchers can bind typed
// listeners; frames whose type cannot be determined go out unnamed.
// The optional replay query parameter delivers up to that many recent
// persisted events before the live tail.
func (s *Server) streamEvents(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	channel := events.SessionChannel(sessionID)

	subID, queue, err := s.hub.Subscribe(c.Request.Context(), channel)
	if err != nil {
		slog.Error("SSE subscribe failed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "subscription failed"})
		return
	}
	defer s.hub.Unsubscribe(channel, subID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	// Replay persisted history first, if requested. LISTEN is already
	// active, so events published during replay queue up behind it.
	if n := replayCount(c.Query("replay")); n > 0 {
		history, err := s.publisher.LatestEvents(c.Request.Context(), channel, n)
		if err != nil {
			slog.Error("Event replay query failed", "session_id", sessionID, "error", err)
		}
		for _, payload := range history {
			writeFrame(c, payload)
		}
		c.Writer.Flush()
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case payload, ok := <-queue:
			if !ok {
				return false
			}
			writeFrame(c, payload)
			return true
		case <-heartbeat.C:
			// Comment frame keeps intermediaries from timing out the stream.
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// writeFrame emits one SSE frame, named by the event's type when it
// can be extracted from the payload.
func writeFrame(c *gin.Context, payload []byte) {
	var envelope struct {
		Type events.EventType `json:"type"`
	}
	name := ""
	if err := json.Unmarshal(payload, &envelope); err == nil && events.Known(envelope.Type) {
		name = string(envelope.Type)
	}
	if name != "" {
		c.SSEvent(name, string(payload))
	} else {
		c.SSEvent("message", string(payload))
	}
}

func replayCount(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	if n > replayLimit {
		return replayLimit
	}
	return n
}

// ingestEvent accepts one event from the agent backend and publishes
// it. Missing event_id and timestamp are filled in; unknown types are
// rejected so the closed enumeration stays closed at the boundary.
func (s *Server) ingestEvent(c *gin.Context) {
	var e events.Event
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event: " + err.Error()})
		return
	}
	if e.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	if !events.Known(e.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type: " + string(e.Type)})
		return
	}
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if err := s.publisher.Publish(c.Request.Context(), e); err != nil {
		slog.Error("Event publish failed",
			"session_id", e.SessionID, "type", e.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish failed"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"event_id": e.EventID})
}
