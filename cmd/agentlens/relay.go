package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/relay"
)

func newRelayCmd() *cobra.Command {
	var httpPort string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the SSE relay server backed by PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(httpPort)
		},
	}
	cmd.Flags().StringVar(&httpPort, "port", getEnvOr("HTTP_PORT", "8080"), "HTTP listen port")
	return cmd
}

func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func runRelay(httpPort string) error {
	_, shutdown, err := setup(nil)
	if err != nil {
		return err
	}
	defer shutdown()

	ctx := context.Background()

	// 1. Connect to PostgreSQL and run migrations
	dbConfig, err := relay.LoadDBConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		return err
	}
	db, err := relay.OpenDB(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Error closing database", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 2. Start the notify listener on a dedicated connection
	hub := relay.NewHub()
	listener := relay.NewNotifyListener(dbConfig.DSN(), hub)
	if err := listener.Start(ctx); err != nil {
		slog.Error("Failed to start notify listener", "error", err)
		return err
	}
	defer listener.Stop(ctx)
	hub.SetListener(listener)
	slog.Info("Notify listener started")

	// 3. HTTP server
	publisher := relay.NewPublisher(db)
	server := relay.NewServer(hub, publisher)
	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 4. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("Shutdown complete")
	return nil
}
