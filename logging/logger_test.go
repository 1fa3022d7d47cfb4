package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/logging"
	"github.com/m-mizutani/gt"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in    string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			level, ok := logging.ParseLevel(tc.in)
			gt.Equal(t, level, tc.level)
			gt.Equal(t, ok, tc.ok)
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("warn", buf)
	gt.V(t, logger).NotNil()

	logger.Info("info message")
	logger.Warn("warn message")

	gt.S(t, buf.String()).NotContains("info message")
	gt.S(t, buf.String()).Contains("warn message")
}

func TestNewWarnsOnInvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.New("verbose", buf)
	gt.S(t, buf.String()).Contains("invalid log level")
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf)

	ctx := logging.With(context.Background(), logger)
	gt.Equal(t, logging.From(ctx), logger)

	logging.Component(ctx, "indexer").Info("built index")
	gt.S(t, buf.String()).Contains("built index")
	gt.S(t, buf.String()).Contains("indexer")
}

func TestFromUsesDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	custom := logging.New("info", buf)
	logging.SetDefault(custom)

	gt.Equal(t, logging.From(context.Background()), custom)
	logging.From(context.Background()).Info("from default")
	gt.S(t, buf.String()).Contains("from default")
}

func TestSetupInstallsDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logger := logging.Setup("debug", buf)
	gt.Equal(t, logging.Default(), logger)

	logging.Component(context.Background(), "corpus").Debug("loaded partition")
	gt.S(t, buf.String()).Contains("loaded partition")
	gt.S(t, buf.String()).Contains("corpus")
}
