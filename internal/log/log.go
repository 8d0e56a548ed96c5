// Package log is the structured logger shared by both lectern binaries.  The TUI client writes to a file so output
// never lands on the terminal it draws on, while lectern-server logs to stdout.  Packages log through the
// package-level functions, which are no-ops until a binary installs a default logger.
package log

import "sync"

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// SetDefaultLogger sets the logger used by the package-level logging functions
func SetDefaultLogger(logger *Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// DefaultLogger returns the current default logger, nil before one is installed
func DefaultLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func withDefault(fn func(*Logger)) {
	if logger := DefaultLogger(); logger != nil {
		fn(logger)
	}
}

// Debug logs at debug Level using the default logger.
// See (*Logger).Debug for more information.
func Debug(msg string, args ...any) {
	withDefault(func(l *Logger) { l.Debug(msg, args...) })
}

// Info logs at info Level using the default logger
func Info(msg string, args ...any) {
	withDefault(func(l *Logger) { l.Info(msg, args...) })
}

// Warn logs at warn Level using the default logger
func Warn(msg string, args ...any) {
	withDefault(func(l *Logger) { l.Warn(msg, args...) })
}

// Error logs at error Level using the default logger
func Error(msg string, args ...any) {
	withDefault(func(l *Logger) { l.Error(msg, args...) })
}

// Trace logs at debug level when trace logging is enabled.  It carries per-query and per-key chatter.
func Trace(msg string, args ...any) {
	withDefault(func(l *Logger) {
		if l.traceEnabled {
			l.Debug("TRACE: "+msg, args...)
		}
	})
}
