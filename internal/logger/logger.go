// Package logger provides leveled logging for the deckscore CLI.
// Warnings and errors are always printed to stderr. When verbose mode is
// enabled via the --verbose flag, debug and info messages are printed too
// so users can follow each scoring stage.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Format selects how log lines are rendered.
type Format string

const (
	// FormatText renders "[LEVEL] message" lines.
	FormatText Format = "text"
	// FormatJSON renders one slog JSON object per line.
	FormatJSON Format = "json"
)

// quietLevel is the minimum level printed outside verbose mode.
const quietLevel = slog.LevelWarn

var (
	mu      sync.RWMutex
	level   = newLevel(quietLevel)
	output  io.Writer = os.Stderr
	format            = FormatText
	jsonLog           = newJSONLogger(os.Stderr)
)

func newLevel(l slog.Level) *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(l)
	return v
}

func newJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	if v {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(quietLevel)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	return level.Level() <= slog.LevelDebug
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	jsonLog = newJSONLogger(w)
}

// SetFormat switches between text and JSON output.
// Unknown formats fall back to text.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	if f != FormatJSON {
		f = FormatText
	}
	format = f
}

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(slog.LevelDebug, "[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	if !IsVerbose() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if format == FormatJSON {
		jsonLog.Debug("section", slog.String("name", name))
		return
	}
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(slog.LevelInfo, "[INFO] ", format, args...)
}

// Warn prints a warning message regardless of verbose mode.
func Warn(format string, args ...any) {
	emit(slog.LevelWarn, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	emit(slog.LevelError, "[ERROR] ", format, args...)
}

func emit(l slog.Level, prefix string, msg string, args ...any) {
	if l < level.Level() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if format == FormatJSON {
		jsonLog.Log(context.Background(), l, fmt.Sprintf(msg, args...))
		return
	}
	fmt.Fprintf(output, prefix+msg+"\n", args...)
}
