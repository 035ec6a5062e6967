// Package logger provides process-wide structured logging for Glance.
// Warnings and errors are always written. Debug and info messages, which
// trace the capture pipeline, are only written in verbose mode.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	level   slog.LevelVar
	base    = newLogger(os.Stderr)
)

func init() {
	level.Set(slog.LevelWarn)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(w)
}

// Logger returns the underlying slog logger, for components that take one.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Section writes a section marker if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Info("=== " + name + " ===")
	}
}

// Debug logs a pipeline trace message. Args are slog key-value pairs.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning. Always written.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error. Always written.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}
