// Package logging provides structured logging infrastructure for avctc.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level aliases for slog levels.
const (
	LevelDebug    = slog.LevelDebug
	LevelInfo     = slog.LevelInfo
	LevelWarn     = slog.LevelWarn
	LevelError    = slog.LevelError
	LevelCritical = slog.LevelError + 4
)

// Logger wraps slog.Logger with avctc-specific configuration.
type Logger struct {
	*slog.Logger
}

// Config contains logger configuration options.
type Config struct {
	Level   slog.Level
	Output  io.Writer
	Enabled bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelWarn,
		Output:  os.Stderr,
		Enabled: true,
	}
}

// ConfigForVerbosity maps the 0-5 command line verbosity to a logger config:
// 0 off, 1 critical, 2 error, 3 warning, 4 info, 5 debug.
func ConfigForVerbosity(verbosity int, w io.Writer) Config {
	cfg := Config{Output: w, Enabled: true}
	switch {
	case verbosity <= 0:
		cfg.Enabled = false
	case verbosity == 1:
		cfg.Level = LevelCritical
	case verbosity == 2:
		cfg.Level = LevelError
	case verbosity == 3:
		cfg.Level = LevelWarn
	case verbosity == 4:
		cfg.Level = LevelInfo
	default:
		cfg.Level = LevelDebug
	}
	return cfg
}

// New creates a new logger with the given configuration.
func New(cfg Config) *Logger {
	if !cfg.Enabled {
		return &Logger{
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		}
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: cfg.Level,
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Global logger instance.
var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// Global returns the global logger instance.
func Global() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = New(DefaultConfig())
	}
	return globalLogger
}

// SetGlobal sets the global logger instance.
func SetGlobal(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Init initializes the global logger from a 0-5 verbosity and output.
func Init(verbosity int, w io.Writer) {
	SetGlobal(New(ConfigForVerbosity(verbosity, w)))
}

// Package-level convenience functions that delegate to the global logger.

// Debug logs a debug message to the global logger.
func Debug(msg string, args ...any) {
	Global().Debug(msg, args...)
}

// Info logs an informational message to the global logger.
func Info(msg string, args ...any) {
	Global().Info(msg, args...)
}

// Warn logs a warning message to the global logger.
func Warn(msg string, args ...any) {
	Global().Warn(msg, args...)
}

// Error logs an error message to the global logger.
func Error(msg string, args ...any) {
	Global().Error(msg, args...)
}
