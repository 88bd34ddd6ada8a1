package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"DEBUG", func(l *DispatcherLogger) { l.Debug("handled", "topic", "/apollo/planning", "bytes", 42) }},
		{"INFO", func(l *DispatcherLogger) { l.Info("handled", "topic", "/apollo/planning", "bytes", 42) }},
		{"ERROR", func(l *DispatcherLogger) { l.Error("handled", "topic", "/apollo/planning", "bytes", 42) }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			tt.log(NewDispatcherLogger(logger))

			entry := decodeEntry(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "handled", entry["msg"])
			assert.Equal(t, "dispatcher", entry["component"])
			assert.Equal(t, "/apollo/planning", entry["topic"])
			assert.Equal(t, float64(42), entry["bytes"]) // JSON numbers are float64
		})
	}
}

func TestDispatcherLogger_ImplementsInterface(t *testing.T) {
	var _ interface {
		Debug(msg string, keysAndValues ...any)
		Info(msg string, keysAndValues ...any)
		Error(msg string, keysAndValues ...any)
	} = NewDispatcherLogger(slog.Default())
}
