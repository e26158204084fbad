package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentlens/agentlens/pkg/events"
	"github.com/agentlens/agentlens/pkg/stream"
)

// Bridge connects a stream manager to a running bubbletea program. It
// applies every event to the stores before waking the UI, and forwards
// connection notices as toasts.
type Bridge struct {
	program *tea.Program
	stores  Stores
}

// NewBridge wires the stores and program together.
func NewBridge(program *tea.Program, s Stores) *Bridge {
	return &Bridge{program: program, stores: s}
}

// Apply folds one event into every store, then nudges the UI. It is
// the observer handler installed on the stream registry.
func (b *Bridge) Apply(e events.Event) {
	b.stores.Timeline.Apply(e)
	b.stores.Console.Apply(e)
	b.stores.Messages.Apply(e)
	b.stores.Inspector.Apply(e)
	b.stores.Workflow.Apply(e)
	b.stores.Debugger.Apply(e)
	b.program.Send(EventMsg{Event: e})
}

// Notify implements stream.Notifier.
func (b *Bridge) Notify(level stream.NotifyLevel, message string) {
	b.program.Send(NoticeMsg{Level: level, Text: message})
}

// WatchConnection polls the manager's connection flag and pushes state
// changes into the UI. It returns when stop is closed.
func (b *Bridge) WatchConnection(m *stream.Manager, stop <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	last := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c := m.Connected(); c != last {
				last = c
				b.program.Send(ConnStateMsg{Connected: c})
			}
		}
	}
}
