// Package logging holds the service logger. Request handlers put a request
// scoped logger into the context; everything below them logs through From or
// Component so that request IDs follow the call.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/clog"
)

type ctxLoggerKey struct{}

var fallback atomic.Pointer[slog.Logger]

func init() {
	fallback.Store(New("info", os.Stdout))
}

// ParseLevel maps a --log-level value to a slog level. Unknown values map to
// info and report false.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds a clog console logger at level. goerr values are expanded into
// their context attributes.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	lvl, ok := ParseLevel(level)
	logger := slog.New(clog.New(
		clog.WithWriter(w),
		clog.WithLevel(lvl),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	))
	if !ok {
		logger.Warn("invalid log level, falling back to info", "level", level)
	}
	return logger
}

// Setup builds the service logger and makes it the fallback of From.
func Setup(level string, w io.Writer) *slog.Logger {
	logger := New(level, w)
	SetDefault(logger)
	return logger
}

// Default is the logger used when a context carries none.
func Default() *slog.Logger {
	return fallback.Load()
}

func SetDefault(logger *slog.Logger) {
	fallback.Store(logger)
}

// With attaches logger to ctx.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger attached to ctx, or Default.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return Default()
}

// Component tags the logger from ctx with the pipeline stage that logs,
// e.g. "indexer" or "synthesizer".
func Component(ctx context.Context, name string) *slog.Logger {
	return From(ctx).With("component", name)
}
