package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/capture"
	"github.com/agentlens/agentlens/pkg/tui"
)

func newReplayCmd() *cobra.Command {
	var (
		capturePath string
		logPath     string
		list        bool
	)
	cmd := &cobra.Command{
		Use:   "replay [session-id]",
		Short: "Browse a recorded session from a capture file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listSessions(capturePath)
			}
			if len(args) != 1 {
				return fmt.Errorf("session id required (or use --list)")
			}
			return runReplay(capturePath, args[0], logPath)
		},
	}
	cmd.Flags().StringVar(&capturePath, "file", "agentlens.db", "SQLite capture file")
	cmd.Flags().StringVar(&logPath, "log-file", "agentlens.log", "file to write logs to while the dashboard owns the terminal")
	cmd.Flags().BoolVar(&list, "list", false, "list recorded sessions and exit")
	return cmd
}

func listSessions(path string) error {
	rec, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	ctx := context.Background()
	ids, err := rec.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "no recorded sessions")
		return nil
	}
	for _, id := range ids {
		n, err := rec.Count(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d events\n", id, n)
	}
	return nil
}

func runReplay(path, sessionID, logPath string) error {
	// Same as watch: logs go to a file while bubbletea owns the terminal.
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

	rec, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	recorded, err := rec.Events(context.Background(), sessionID)
	if err != nil {
		return err
	}
	if len(recorded) == 0 {
		return fmt.Errorf("no events recorded for session %s", sessionID)
	}

	// Fold the whole recording into the stores up front; the dashboard
	// then browses the final state.
	s := newStores(cfg)
	for _, e := range recorded {
		s.Timeline.Apply(e)
		s.Console.Apply(e)
		s.Messages.Apply(e)
		s.Inspector.Apply(e)
		s.Workflow.Apply(e)
		s.Debugger.Apply(e)
	}

	program := tea.NewProgram(tui.New(sessionID, s), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
