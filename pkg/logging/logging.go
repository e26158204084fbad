// Package logging configures structured logging with optional Sentry
// forwarding. Error-level records (dropped frames, listener faults)
// are mirrored to Sentry when a DSN is configured.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds logging configuration.
type Config struct {
	Level     slog.Level
	SentryDSN string // empty disables Sentry
	Env       string // "development", "production"
	Version   string
	Output    io.Writer // nil means stderr
}

// Init installs the default slog logger. Returns a shutdown function
// that flushes buffered Sentry events.
func Init(cfg Config) (func(), error) {
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     cfg.Version,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry init: %w", err)
		}
		sentryEnabled = true
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	handler := &sentryHandler{
		Handler: slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: cfg.Level,
		}),
		sentryEnabled: sentryEnabled,
	}
	slog.SetDefault(slog.New(handler))

	shutdown := func() {
		if sentryEnabled {
			sentry.Flush(2 * time.Second)
		}
	}
	return shutdown, nil
}

// sentryHandler wraps a slog.Handler and mirrors error records to
// Sentry as captured messages.
type sentryHandler struct {
	slog.Handler
	sentryEnabled bool
}

func (h *sentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.sentryEnabled && r.Level >= slog.LevelError {
		msg := r.Message
		r.Attrs(func(a slog.Attr) bool {
			msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		sentry.CaptureMessage(msg)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sentryHandler{Handler: h.Handler.WithAttrs(attrs), sentryEnabled: h.sentryEnabled}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{Handler: h.Handler.WithGroup(name), sentryEnabled: h.sentryEnabled}
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
