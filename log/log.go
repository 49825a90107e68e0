// Package log supplies the structured, level-aware logging used across the
// VM, Executive, and World State packages. It is a thin layer over
// log/slog: a process-wide logger plus a Module(name) pattern that lets each
// subsystem attach its own identity to every record it emits.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger is a structured logger bound to a set of fixed attributes (at
// minimum, a "module" name). All logging in this repository goes through a
// Logger rather than slog directly, so subsystems never need to repeat
// their own module attribute on every call.
type Logger struct {
	h slog.Handler
}

var root atomic.Pointer[Logger]

func init() {
	root.Store(newLogger(slog.LevelInfo, os.Stderr))
}

func newLogger(level slog.Level, w *os.File) *Logger {
	return &Logger{h: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})}
}

// SetLevel rebuilds the process-wide root logger at the given minimum level.
// It does not affect Loggers already obtained via Module or With.
func SetLevel(level slog.Level) {
	root.Store(newLogger(level, os.Stderr))
}

// SetHandler replaces the process-wide root logger's handler, e.g. to
// redirect records to an in-memory buffer during tests.
func SetHandler(h slog.Handler) {
	root.Store(&Logger{h: h})
}

// Module returns a Logger scoped to the named subsystem, e.g.
// log.Module("vm") or log.Module("executive"). Every record the returned
// Logger emits carries a "module" attribute set to name.
func Module(name string) *Logger {
	return root.Load().with(slog.String("module", name))
}

func (l *Logger) with(attrs ...slog.Attr) *Logger {
	h := l.h
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}
	return &Logger{h: h}
}

// With returns a child Logger carrying the supplied key/value pairs in
// addition to this Logger's existing attributes.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{h: slog.New(l.h).With(kv...).Handler()}
}

func (l *Logger) log(level slog.Level, msg string, kv ...any) {
	slog.New(l.h).Log(context.Background(), level, msg, kv...)
}

// Debug logs a development-only diagnostic record.
func (l *Logger) Debug(msg string, kv ...any) { l.log(slog.LevelDebug, msg, kv...) }

// Info logs a routine operational record (block imported, genesis written).
func (l *Logger) Info(msg string, kv ...any) { l.log(slog.LevelInfo, msg, kv...) }

// Warn logs a record describing a recoverable, unexpected condition.
func (l *Logger) Warn(msg string, kv ...any) { l.log(slog.LevelWarn, msg, kv...) }

// Error logs a record describing an operation that failed outright.
func (l *Logger) Error(msg string, kv ...any) { l.log(slog.LevelError, msg, kv...) }

// package-level convenience functions operate on the process-wide root
// logger, with no module attribute. Subsystems should prefer Module(name)
// loggers; these exist for call sites outside any one subsystem (cmd entry
// points, top-level glue).

func Debug(msg string, kv ...any) { root.Load().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { root.Load().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { root.Load().Warn(msg, kv...) }
func Error(msg string, kv ...any) { root.Load().Error(msg, kv...) }
