package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" Warn ":  LevelWarn,
		"error":   LevelError,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestStdLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerWithWriter(&buf, LevelWarn)
	ctx := context.Background()

	l.Debug(ctx, "debug line")
	l.Info(ctx, "info line")
	l.Warn(ctx, "warn line")
	l.Error(ctx, errors.New("boom"), "error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "[WARN] warn line")
	assert.Contains(t, out, "[ERROR] error line | error: boom")
}

func TestStdLogger_SortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerWithWriter(&buf, LevelDebug)

	l.Info(context.Background(), "signal", map[string]interface{}{
		"symbol":   "AAPL",
		"notional": 500.0,
		"decision": "trade",
	})

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "| decision=trade notional=500 symbol=AAPL"), line)
}

func TestStdLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	root := NewStdLoggerWithWriter(&buf, LevelInfo)
	child := root.Named("strategy").Named("gap_down")

	child.Info(context.Background(), "evaluated")
	assert.Contains(t, buf.String(), "[INFO] (strategy.gap_down) evaluated")

	buf.Reset()
	child.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}
