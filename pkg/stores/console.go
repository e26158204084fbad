package stores

import (
	"fmt"
	"sync"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// LogLevel classifies a console line.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogLine is one derived console entry.
type LogLine struct {
	Level     LogLevel
	Message   string
	Source    string // component that produced the underlying event
	Timestamp time.Time
}

// ConsoleStore derives human-readable log lines from the event stream,
// capped at a fixed length. Level filtering is a read-time projection
// over the stored sequence.
type ConsoleStore struct {
	mu    sync.RWMutex
	max   int
	lines []LogLine
}

// NewConsoleStore creates a console buffer with the given retention
// bound. max <= 0 uses DefaultConsoleMax.
func NewConsoleStore(max int) *ConsoleStore {
	if max <= 0 {
		max = DefaultConsoleMax
	}
	return &ConsoleStore{max: max}
}

// Apply derives a log line from the event, if it is loggable, and
// appends it. Message and tool-call deltas are skipped — they are
// high-frequency fragments, not log-worthy occurrences.
func (s *ConsoleStore) Apply(e events.Event) {
	line, ok := deriveLine(e)
	if !ok {
		return
	}
	s.mu.Lock()
	s.lines = AppendCapped(s.lines, line, s.max)
	s.mu.Unlock()
}

// Lines returns a snapshot of all retained lines in arrival order.
func (s *ConsoleStore) Lines() []LogLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Filtered returns the retained lines whose level is in the given set,
// without mutating the underlying sequence. An empty set returns
// everything.
func (s *ConsoleStore) Filtered(levels ...LogLevel) []LogLine {
	if len(levels) == 0 {
		return s.Lines()
	}
	want := make(map[LogLevel]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LogLine
	for _, line := range s.lines {
		if want[line.Level] {
			out = append(out, line)
		}
	}
	return out
}

// Len returns the number of retained lines.
func (s *ConsoleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Reset discards all state. Called on session change.
func (s *ConsoleStore) Reset() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

// deriveLine maps an event to a console line. Returns ok=false for
// event types the console does not log.
func deriveLine(e events.Event) (LogLine, bool) {
	line := LogLine{Level: LevelInfo, Source: "session", Timestamp: e.Time()}

	switch e.Type {
	case events.EventTypeSessionStarted:
		p, err := e.SessionStarted()
		if err != nil {
			return LogLine{}, false
		}
		line.Message = fmt.Sprintf("session started (agent %s)", p.AgentName)

	case events.EventTypeSessionEnded:
		p, err := e.SessionEnded()
		if err != nil {
			return LogLine{}, false
		}
		line.Message = fmt.Sprintf("session ended: %s", p.Status)

	case events.EventTypeAgentMessageStart:
		line.Source = "agent"
		line.Message = "assistant message streaming"

	case events.EventTypeAgentMessageEnd:
		line.Source = "agent"
		line.Message = "assistant message complete"

	case events.EventTypeAgentThought:
		p, err := e.Thought()
		if err != nil {
			return LogLine{}, false
		}
		line.Level = LevelDebug
		line.Source = "agent"
		line.Message = p.Thought

	case events.EventTypeToolCallStarted:
		p, err := e.ToolCallStarted()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "tools"
		line.Message = fmt.Sprintf("tool %s started", p.ToolName)

	case events.EventTypeToolCallResult:
		p, err := e.ToolCallResult()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "tools"
		if p.Error != "" {
			line.Level = LevelError
			line.Message = fmt.Sprintf("tool call %s failed: %s", p.ToolCallID, p.Error)
		} else {
			line.Message = fmt.Sprintf("tool call %s completed", p.ToolCallID)
		}

	case events.EventTypeWorkflowStarted:
		p, err := e.WorkflowStarted()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "workflow"
		line.Message = fmt.Sprintf("workflow %s started", p.WorkflowName)

	case events.EventTypeWorkflowCompleted:
		p, err := e.WorkflowCompleted()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "workflow"
		line.Message = fmt.Sprintf("workflow finished: %s", p.Status)

	case events.EventTypeWorkflowStepStarted:
		p, err := e.WorkflowStep()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "workflow"
		line.Message = fmt.Sprintf("step %s started", p.StepID)

	case events.EventTypeWorkflowStepCompleted:
		p, err := e.WorkflowStep()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "workflow"
		line.Message = fmt.Sprintf("step %s completed", p.StepID)

	case events.EventTypeWorkflowTransition:
		p, err := e.WorkflowTransition()
		if err != nil {
			return LogLine{}, false
		}
		line.Level = LevelDebug
		line.Source = "workflow"
		line.Message = fmt.Sprintf("transition %s → %s", p.FromStep, p.ToStep)

	case events.EventTypeRunError:
		p, err := e.RunError()
		if err != nil {
			return LogLine{}, false
		}
		line.Level = LevelError
		if p.Source != "" {
			line.Source = p.Source
		}
		line.Message = p.Message

	case events.EventTypeRunRetry:
		p, err := e.RunRetry()
		if err != nil {
			return LogLine{}, false
		}
		line.Level = LevelWarn
		line.Message = fmt.Sprintf("run retrying (attempt %d): %s", p.Attempt, p.Reason)

	case events.EventTypeRunInterrupted:
		line.Level = LevelWarn
		line.Message = "run interrupted"

	case events.EventTypeRetrievalResult:
		p, err := e.RetrievalResult()
		if err != nil {
			return LogLine{}, false
		}
		line.Source = "retrieval"
		line.Message = fmt.Sprintf("retrieval returned %d hits", p.Hits)

	case events.EventTypeAutomationRun:
		line.Source = "automation"
		line.Message = "automation triggered"

	case events.EventTypeMetricsSnapshot:
		line.Level = LevelDebug
		line.Source = "metrics"
		line.Message = "metrics snapshot"

	default:
		return LogLine{}, false
	}

	return line, true
}
