package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/capture"
	"github.com/agentlens/agentlens/pkg/config"
	"github.com/agentlens/agentlens/pkg/events"
	"github.com/agentlens/agentlens/pkg/stores"
	"github.com/agentlens/agentlens/pkg/stream"
	"github.com/agentlens/agentlens/pkg/tui"
)

func newWatchCmd() *cobra.Command {
	var (
		recordPath string
		logPath    string
	)
	cmd := &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Attach the live dashboard to a session's event stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], recordPath, logPath)
		},
	}
	cmd.Flags().StringVar(&recordPath, "record", "", "record received events to a SQLite capture file")
	cmd.Flags().StringVar(&logPath, "log-file", "agentlens.log", "file to write logs to while the dashboard owns the terminal")
	return cmd
}

func runWatch(sessionID, recordPath, logPath string) error {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	cfg, shutdown, err := setup(logFile)
	if err != nil {
		return err
	}
	defer shutdown()

	s := newStores(cfg)
	program := tea.NewProgram(tui.New(sessionID, s), tea.WithAltScreen())
	bridge := tui.NewBridge(program, s)

	var recorder *capture.Recorder
	observer := bridge.Apply
	if recordPath != "" {
		recorder, err = capture.Open(recordPath)
		if err != nil {
			return err
		}
		defer recorder.Close()
		observer = func(e events.Event) {
			if err := recorder.Append(context.Background(), e); err != nil {
				slog.Error("Failed to record event", "event_id", e.EventID, "error", err)
			}
			bridge.Apply(e)
		}
	}

	manager := stream.NewManager(stream.Config{
		BaseURL: cfg.BaseURL,
		Backoff: stream.Backoff{Base: cfg.BackoffBase, Cap: cfg.BackoffCap},
	}, bridge)
	defer manager.Close()

	manager.SetObserver(observer)
	manager.SetSession(sessionID)

	stop := make(chan struct{})
	go bridge.WatchConnection(manager, stop)
	defer close(stop)

	slog.Info("Watching session", "session_id", sessionID, "base_url", cfg.BaseURL)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

func newStores(cfg config.Config) tui.Stores {
	return tui.Stores{
		Timeline:  stores.NewTimelineStore(cfg.TimelineMax),
		Console:   stores.NewConsoleStore(cfg.ConsoleMax),
		Messages:  stores.NewMessageStore(cfg.MessagesMax),
		Inspector: stores.NewInspectorStore(),
		Workflow:  stores.NewWorkflowStore(),
		Debugger:  stores.NewDebuggerStore(),
	}
}
