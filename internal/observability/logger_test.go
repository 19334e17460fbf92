package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "chatbot-test"})

	logger.Info().Str("category", "tech").Int("docs", 3).Err(errors.New("boom")).Msg("classified")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chatbot-test", entry["service"])
	assert.Equal(t, "tech", entry["category"])
	assert.Equal(t, float64(3), entry["docs"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "classified", entry["message"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden too")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_WithContextAndSession(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf})

	ctx := ContextWithTraceID(context.Background(), "trace-123")
	logger.WithContext(ctx).WithSession("sess-1").WithOperation("process_question").Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "process_question", entry["operation"])
}

func TestLogger_WithSessionEmpty(t *testing.T) {
	logger := NopLogger()
	assert.Same(t, logger, logger.WithSession(""))
	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warning", "warn"},
		{"error", "error"},
		{"", "info"},
		{"bogus", "info"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in).String())
		})
	}
}
