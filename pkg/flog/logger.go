// Package flog provides the CLI logger used across farmctl.
package flog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with convenience constructors and Fatal helpers.
type Logger struct {
	*slog.Logger
}

// cliHandler renders records as single human-readable lines instead of the
// machine-oriented slog defaults.
type cliHandler struct {
	level  slog.Level
	output io.Writer
	attrs  []slog.Attr
}

func (h *cliHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *cliHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	switch r.Level {
	case slog.LevelDebug:
		b.WriteString("· ")
	case slog.LevelWarn:
		b.WriteString("! ")
	case slog.LevelError:
		b.WriteString("✗ ")
	default:
		b.WriteString("› ")
	}

	b.WriteString(r.Message)

	writeAttr := func(a slog.Attr) {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Value.String())
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})

	b.WriteString("\n")
	_, err := h.output.Write([]byte(b.String()))
	return err
}

func (h *cliHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &cliHandler{level: h.level, output: h.output, attrs: merged}
}

func (h *cliHandler) WithGroup(string) slog.Handler {
	// Groups are not used by any farmctl call site.
	return h
}

// NewLogger creates a logger with the given level writing to output.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{Logger: slog.New(&cliHandler{level: level, output: output})}
}

// NewDefault creates a logger with INFO level writing to stderr.
func NewDefault() *Logger {
	return NewLogger(slog.LevelInfo, os.Stderr)
}

// NewQuiet creates a logger with WARN level (suppresses info/debug).
func NewQuiet() *Logger {
	return NewLogger(slog.LevelWarn, os.Stderr)
}

// NewVerbose creates a logger with DEBUG level.
func NewVerbose() *Logger {
	return NewLogger(slog.LevelDebug, os.Stderr)
}

// Discard creates a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return NewLogger(slog.LevelError+1, io.Discard)
}

// Fatal logs at ERROR level and exits with code 1.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}

// Fatalf formats and logs at ERROR level, then exits with code 1.
func (l *Logger) Fatalf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
