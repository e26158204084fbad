package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Run("writes structured records to the configured output", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Init(Config{Level: slog.LevelDebug, Output: &buf})
		require.NoError(t, err)
		defer shutdown()

		slog.Info("Stream attached", "session_id", "sess-1")
		out := buf.String()
		assert.Contains(t, out, "Stream attached")
		assert.Contains(t, out, "session_id=sess-1")
	})

	t.Run("suppresses records below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Init(Config{Level: slog.LevelWarn, Output: &buf})
		require.NoError(t, err)
		defer shutdown()

		slog.Info("too quiet to matter")
		slog.Warn("worth keeping")
		out := buf.String()
		assert.NotContains(t, out, "too quiet to matter")
		assert.Contains(t, out, "worth keeping")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("anything else"))
}
