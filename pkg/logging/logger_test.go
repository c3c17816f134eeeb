package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("aq-test", "0.0.1", DebugLevel)
	logger.SetOutput(&buf)

	ctx := WithRequestID(context.Background(), "req-42")
	logger.Info(ctx, "[TEST] hello", Fields{"rows": 3})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]

	assert.Equal(t, "[TEST] hello", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "aq-test", entry["service"])
	assert.Equal(t, "req-42", entry["request_id"])

	fields, ok := entry["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, fields["rows"])
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("aq-test", "0.0.1", WarnLevel)
	logger.SetOutput(&buf)

	logger.Debug(context.Background(), "dropped", nil)
	logger.Info(context.Background(), "dropped", nil)
	logger.Warn(context.Background(), "kept", nil)
	logger.Error(context.Background(), "kept with error", nil, errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[1]["error"])

	logger.SetLevel(DebugLevel)
	logger.Debug(context.Background(), "now visible", nil)
	assert.Len(t, decodeLines(t, &buf), 3)
}

func TestContextLogger_MergesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("aq-test", "0.0.1", InfoLevel)
	logger.SetOutput(&buf)

	cl := logger.WithFields(Fields{"view": "eda", "column": "PM10"})
	cl.Info(context.Background(), "merged", Fields{"column": "PM2.5"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	fields := entries[0]["fields"].(map[string]interface{})
	assert.Equal(t, "eda", fields["view"])
	assert.Equal(t, "PM2.5", fields["column"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Info(context.Background(), "ignored", Fields{"a": 1})
		logger.Error(context.Background(), "ignored", nil, errors.New("x"))
	})
}
