// Package testutil provides test utilities for structured logging.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(newTestHandler(t))
}

func newTestHandler(t testing.TB) slog.Handler {
	return slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// LogRecorder keeps the level and message of every record it handles,
// in addition to writing them to t.Log().
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
	next    slog.Handler
}

// LogEntry is one recorded log call.
type LogEntry struct {
	Level   slog.Level
	Message string
}

// NewLogRecorder returns a recorder for t.
func NewLogRecorder(t testing.TB) *LogRecorder {
	t.Helper()
	return &LogRecorder{next: newTestHandler(t)}
}

// Logger returns a logger that feeds the recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(recordingHandler{r: r, next: r.next})
}

// Entries returns a copy of what has been recorded so far.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// Has reports whether a record with level and msg was logged.
func (r *LogRecorder) Has(level slog.Level, msg string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

type recordingHandler struct {
	r    *LogRecorder
	next slog.Handler
}

func (h recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h recordingHandler) Handle(ctx context.Context, rec slog.Record) error {
	h.r.mu.Lock()
	h.r.entries = append(h.r.entries, LogEntry{Level: rec.Level, Message: rec.Message})
	h.r.mu.Unlock()
	return h.next.Handle(ctx, rec)
}

func (h recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return recordingHandler{r: h.r, next: h.next.WithAttrs(attrs)}
}

func (h recordingHandler) WithGroup(name string) slog.Handler {
	return recordingHandler{r: h.r, next: h.next.WithGroup(name)}
}
