// Package tui renders the live session dashboard. It is a read-side
// consumer only: events are applied to the stores before they reach the
// model, and each view renders a snapshot of its store on demand.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentlens/agentlens/pkg/events"
	"github.com/agentlens/agentlens/pkg/stores"
	"github.com/agentlens/agentlens/pkg/stream"
)

// Tab identifies one dashboard view.
type Tab int

const (
	TabTimeline Tab = iota
	TabConsole
	TabMessages
	TabInspector
	TabWorkflow
	TabDebugger
)

var tabNames = []string{"Timeline", "Console", "Messages", "Inspector", "Workflow", "Debugger"}

// Stores bundles the read models the dashboard renders.
type Stores struct {
	Timeline  *stores.TimelineStore
	Console   *stores.ConsoleStore
	Messages  *stores.MessageStore
	Inspector *stores.InspectorStore
	Workflow  *stores.WorkflowStore
	Debugger  *stores.DebuggerStore
}

// EventMsg is sent to the program after an event has been applied to
// the stores, so the active view re-renders.
type EventMsg struct {
	Event events.Event
}

// NoticeMsg surfaces a connection-state notification as a toast line.
type NoticeMsg struct {
	Level stream.NotifyLevel
	Text  string
}

// ConnStateMsg reports whether the stream is currently connected.
type ConnStateMsg struct {
	Connected bool
}

type noticeExpiredMsg struct{ id int }

type notice struct {
	id    int
	level stream.NotifyLevel
	text  string
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	sessionID string
	stores    Stores

	tab       Tab
	width     int
	height    int
	connected bool

	// Indexes into timelineFilters / consoleFilters; cycled with f.
	timelineFilter int
	consoleFilter  int

	viewport viewport.Model
	renderer *glamour.TermRenderer

	notices  []notice
	noticeID int
}

// New builds the dashboard model for a session.
func New(sessionID string, s Stores) Model {
	vp := viewport.New(80, 20)
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(78),
	)
	return Model{
		sessionID: sessionID,
		stores:    s,
		tab:       TabTimeline,
		viewport:  vp,
		renderer:  renderer,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.viewport.SetContent(m.renderTab())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % Tab(len(tabNames))
			m.viewport.SetContent(m.renderTab())
			m.viewport.GotoTop()
			return m, nil
		case "shift+tab", "left", "h":
			m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
			m.viewport.SetContent(m.renderTab())
			m.viewport.GotoTop()
			return m, nil
		case "1", "2", "3", "4", "5", "6":
			m.tab = Tab(int(msg.String()[0] - '1'))
			m.viewport.SetContent(m.renderTab())
			m.viewport.GotoTop()
			return m, nil
		case "f":
			switch m.tab {
			case TabTimeline:
				m.timelineFilter = (m.timelineFilter + 1) % len(timelineFilters)
			case TabConsole:
				m.consoleFilter = (m.consoleFilter + 1) % len(consoleFilters)
			default:
				return m, nil
			}
			m.viewport.SetContent(m.renderTab())
			m.viewport.GotoTop()
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case EventMsg:
		atBottom := m.viewport.AtBottom()
		m.viewport.SetContent(m.renderTab())
		if atBottom {
			m.viewport.GotoBottom()
		}
		return m, nil

	case ConnStateMsg:
		m.connected = msg.Connected
		return m, nil

	case NoticeMsg:
		m.noticeID++
		n := notice{id: m.noticeID, level: msg.Level, text: msg.Text}
		m.notices = append(m.notices, n)
		return m, expireNotice(n.id)

	case noticeExpiredMsg:
		kept := m.notices[:0]
		for _, n := range m.notices {
			if n.id != msg.id {
				kept = append(kept, n)
			}
		}
		m.notices = kept
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func expireNotice(id int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("212"))
	statusOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusBadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyles   = map[stream.NotifyLevel]lipgloss.Style{
		stream.NotifyInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		stream.NotifyWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		stream.NotifyError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func (m Model) View() string {
	var b strings.Builder

	var tabs []string
	for i, name := range tabNames {
		label := fmt.Sprintf("%d:%s", i+1, name)
		if Tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	status := statusBadStyle.Render("● disconnected")
	if m.connected {
		status = statusOKStyle.Render("● connected")
	}
	b.WriteString(fmt.Sprintf("session %s  %s\n", m.sessionID, status))

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if len(m.notices) > 0 {
		var lines []string
		for _, n := range m.notices {
			style, ok := noticeStyles[n.level]
			if !ok {
				style = tabStyle
			}
			lines = append(lines, style.Render(n.text))
		}
		b.WriteString(strings.Join(lines, "  "))
	} else {
		b.WriteString(tabStyle.Render("tab/1-6 switch view  f filter  g/G top/bottom  q quit"))
	}
	return b.String()
}

func (m Model) renderTab() string {
	switch m.tab {
	case TabTimeline:
		return m.renderTimeline()
	case TabConsole:
		return m.renderConsole()
	case TabMessages:
		return m.renderMessages()
	case TabInspector:
		return m.renderInspector()
	case TabWorkflow:
		return m.renderWorkflow()
	case TabDebugger:
		return m.renderDebugger()
	}
	return ""
}
