package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesync/internal/config"
)

func TestNewLoggerConsoleOnly(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.File.Enabled = false

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewLoggerFileHandlers(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = t.TempDir()
	cfg.Console.Enabled = false
	cfg.File.Enabled = true

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Warn("disk almost full")
	require.NoError(t, Shutdown())
}

func TestLevelFilterDropsBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := NewLevelFilter(inner, slog.LevelWarn)

	logger := slog.New(h)
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestLevelFilterEnabled(t *testing.T) {
	inner := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := NewLevelFilter(inner, slog.LevelWarn)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)

	logger := slog.New(h)
	logger.Info("hello")
	logger.Warn("trouble")

	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, a.String(), "trouble")
	assert.NotContains(t, b.String(), "hello")
	assert.Contains(t, b.String(), "trouble")
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&buf, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "test")}))
	logger.Info("tagged")

	assert.Contains(t, buf.String(), "component=test")
}
