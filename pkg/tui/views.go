package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agentlens/agentlens/pkg/events"
	"github.com/agentlens/agentlens/pkg/stores"
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// timelineFilters are the read-time projections cycled with f on the
// timeline tab. An empty type set means no filtering.
var timelineFilters = []struct {
	name  string
	types []events.EventType
}{
	{"all", nil},
	{"lifecycle", []events.EventType{
		events.EventTypeSessionStarted,
		events.EventTypeSessionEnded,
		events.EventTypeWorkflowStarted,
		events.EventTypeWorkflowCompleted,
		events.EventTypeWorkflowStepStarted,
		events.EventTypeWorkflowStepCompleted,
		events.EventTypeToolCallStarted,
		events.EventTypeToolCallResult,
	}},
	{"errors", []events.EventType{
		events.EventTypeRunError,
		events.EventTypeRunRetry,
		events.EventTypeRunInterrupted,
	}},
}

func (m Model) renderTimeline() string {
	f := timelineFilters[m.timelineFilter]
	evs := m.stores.Timeline.Filtered(f.types...)

	var b strings.Builder
	if m.timelineFilter != 0 {
		b.WriteString(dimStyle.Render("filter: "+f.name) + "\n")
	}
	if len(evs) == 0 {
		if m.timelineFilter != 0 {
			b.WriteString(dimStyle.Render("no events match the filter"))
			return b.String()
		}
		return dimStyle.Render("waiting for events")
	}
	for _, e := range evs {
		ts := dimStyle.Render(e.Time().Format("15:04:05.000"))
		fmt.Fprintf(&b, "%s  %-24s %s\n", ts, e.Type, summarize(e))
	}
	return b.String()
}

// summarize produces the one-line timeline rendering for an event.
func summarize(e events.Event) string {
	switch e.Type {
	case events.EventTypeSessionStarted:
		if p, err := e.SessionStarted(); err == nil {
			return fmt.Sprintf("agent=%s model=%s", p.AgentName, p.Model)
		}
	case events.EventTypeAgentMessageDelta:
		if p, err := e.MessageDelta(); err == nil {
			return dimStyle.Render(truncate(p.Delta, 60))
		}
	case events.EventTypeToolCallStarted:
		if p, err := e.ToolCallStarted(); err == nil {
			return fmt.Sprintf("tool=%s", p.ToolName)
		}
	case events.EventTypeWorkflowStarted:
		if p, err := e.WorkflowStarted(); err == nil {
			return fmt.Sprintf("workflow=%s steps=%d", p.WorkflowName, len(p.Steps))
		}
	case events.EventTypeWorkflowTransition:
		if p, err := e.WorkflowTransition(); err == nil {
			return fmt.Sprintf("%s -> %s", p.FromStep, p.ToStep)
		}
	case events.EventTypeRunError:
		if p, err := e.RunError(); err == nil {
			return errStyle.Render(truncate(p.Message, 60))
		}
	}
	return ""
}

// consoleFilters are the level projections cycled with f on the
// console tab.
var consoleFilters = []struct {
	name   string
	levels []stores.LogLevel
}{
	{"all", nil},
	{"warn+", []stores.LogLevel{stores.LevelWarn, stores.LevelError}},
	{"errors", []stores.LogLevel{stores.LevelError}},
}

func (m Model) renderConsole() string {
	f := consoleFilters[m.consoleFilter]
	lines := m.stores.Console.Filtered(f.levels...)

	var b strings.Builder
	if m.consoleFilter != 0 {
		b.WriteString(dimStyle.Render("filter: "+f.name) + "\n")
	}
	if len(lines) == 0 {
		if m.consoleFilter != 0 {
			b.WriteString(dimStyle.Render("no log lines match the filter"))
			return b.String()
		}
		return dimStyle.Render("no log lines yet")
	}
	for _, l := range lines {
		level := dimStyle.Render(string(l.Level))
		switch l.Level {
		case stores.LevelError:
			level = errStyle.Render(string(l.Level))
		case stores.LevelWarn:
			level = warnStyle.Render(string(l.Level))
		}
		src := ""
		if l.Source != "" {
			src = dimStyle.Render(" [" + l.Source + "]")
		}
		fmt.Fprintf(&b, "%s %-5s%s %s\n",
			dimStyle.Render(l.Timestamp.Format("15:04:05")), level, src, l.Message)
	}
	return b.String()
}

func (m Model) renderMessages() string {
	msgs := m.stores.Messages.Messages()
	if len(msgs) == 0 {
		return dimStyle.Render("no messages yet")
	}
	var b strings.Builder
	for i, rec := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		header := labelStyle.Render(rec.Role)
		if !rec.Terminal {
			header += activeStyle.Render(" (streaming)")
		}
		if rec.Error != "" {
			header += errStyle.Render(" error: " + rec.Error)
		}
		b.WriteString(header + "\n")
		b.WriteString(m.renderMarkdown(rec))
	}
	return b.String()
}

// renderMarkdown renders terminal messages through glamour; streaming
// records are shown raw so partial markdown does not flicker.
func (m Model) renderMarkdown(rec stores.MessageRecord) string {
	if !rec.Terminal || m.renderer == nil {
		return rec.Content + "\n"
	}
	out, err := m.renderer.Render(rec.Content)
	if err != nil {
		return rec.Content + "\n"
	}
	return out
}

func (m Model) renderInspector() string {
	tc := m.stores.Inspector.Current()
	if tc == nil {
		return dimStyle.Render("no tool call yet")
	}
	var b strings.Builder
	status := activeStyle.Render("running")
	if tc.Done {
		status = okStyle.Render("done")
		if tc.Error != "" {
			status = errStyle.Render("failed")
		}
	}
	fmt.Fprintf(&b, "%s %s  %s\n", labelStyle.Render("Tool:"), tc.ToolName, status)
	if !tc.StartedAt.IsZero() {
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("Started:"), tc.StartedAt.Format("15:04:05.000"))
		if !tc.CompletedAt.IsZero() {
			fmt.Fprintf(&b, "  %s %s", labelStyle.Render("Took:"), tc.CompletedAt.Sub(tc.StartedAt))
		}
		b.WriteString("\n")
	}
	if len(tc.Arguments) > 0 {
		b.WriteString(labelStyle.Render("Arguments:") + "\n")
		b.WriteString(indentJSON(tc.Arguments) + "\n")
	}
	if tc.Output != "" {
		b.WriteString(labelStyle.Render("Output:") + "\n")
		b.WriteString(tc.Output + "\n")
	}
	if len(tc.Result) > 0 {
		b.WriteString(labelStyle.Render("Result:") + "\n")
		b.WriteString(indentJSON(tc.Result) + "\n")
	}
	if tc.Error != "" {
		b.WriteString(errStyle.Render("Error: "+tc.Error) + "\n")
	}
	return b.String()
}

func (m Model) renderWorkflow() string {
	runID, name, status := m.stores.Workflow.Run()
	steps := m.stores.Workflow.Steps()
	if name == "" && len(steps) == 0 {
		return dimStyle.Render("no workflow yet")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  run=%s  status=%s\n\n", labelStyle.Render("Workflow:"), name, runID, status)
	for _, s := range steps {
		marker := dimStyle.Render("○")
		switch s.Status {
		case events.StepStatusActive:
			marker = activeStyle.Render("◐")
		case events.StepStatusCompleted:
			marker = okStyle.Render("●")
		}
		line := fmt.Sprintf("%s %s", marker, s.StepName)
		if s.Error != "" {
			line += errStyle.Render("  " + s.Error)
		}
		b.WriteString(line + "\n")
	}
	if trs := m.stores.Workflow.Transitions(); len(trs) > 0 {
		b.WriteString("\n" + labelStyle.Render("Transitions:") + "\n")
		for _, t := range trs {
			line := fmt.Sprintf("%s -> %s", t.FromStep, t.ToStep)
			if t.Reason != "" {
				line += dimStyle.Render("  (" + t.Reason + ")")
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (m Model) renderDebugger() string {
	var b strings.Builder
	if p, ok := m.stores.Debugger.Session(); ok {
		fmt.Fprintf(&b, "%s agent=%s model=%s run=%s\n",
			labelStyle.Render("Session:"), p.AgentName, p.Model, p.RunID)
	}
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Events seen:"), m.stores.Debugger.EventCount())

	if names := m.stores.Debugger.ToolNames(); len(names) > 0 {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Tools used:"), strings.Join(names, ", "))
	}
	if p, at := m.stores.Debugger.LastError(); p != nil {
		fmt.Fprintf(&b, "%s %s %s\n", labelStyle.Render("Last error:"),
			dimStyle.Render(at.Format("15:04:05")), errStyle.Render(p.Message))
	}
	if timings := m.stores.Debugger.Timings(); len(timings) > 0 {
		b.WriteString("\n" + labelStyle.Render("Timings:") + "\n")
		for _, t := range timings {
			label := t.Label
			if label == "" {
				label = t.ID
			}
			if t.End.IsZero() {
				fmt.Fprintf(&b, "  %-30s %s\n", label, activeStyle.Render("in progress"))
			} else {
				fmt.Fprintf(&b, "  %-30s %s\n", label, t.Duration)
			}
		}
	}
	return b.String()
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "  ", "  "); err != nil {
		return "  " + string(raw)
	}
	return "  " + buf.String()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
