package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewWritesServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "rag-chat-api", "warn")

	logger.Info("dropped")
	logger.Warn("chat_reply_failed", "session_id", "s1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "chat_reply_failed", record["msg"])
	assert.Equal(t, "rag-chat-api", record["service"])
	assert.Equal(t, "s1", record["session_id"])
}
