package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Global logger instance
var defaultLogger *slog.Logger

// output is where Initialize and InitializeText write; tests swap it.
var output io.Writer = os.Stdout

// ParseLevel maps DEBUG, INFO, WARN or ERROR (any case) to a slog level.
// Unknown values yield INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the global logger from configuration values.
func Setup(level string, jsonOutput bool) {
	if jsonOutput {
		Initialize(ParseLevel(level))
		return
	}
	InitializeText(ParseLevel(level))
}

// Initialize sets up the global structured logger
func Initialize(level slog.Level) {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(output, opts)
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// InitializeText sets up a text-based logger (better for development)
func InitializeText(level slog.Level) {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewTextHandler(output, opts)
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// Logger returns the default logger
func Logger() *slog.Logger {
	if defaultLogger == nil {
		Initialize(slog.LevelInfo)
	}
	return defaultLogger
}

// With returns a logger with additional attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// WithRequestID returns a logger with request ID attached
func WithRequestID(requestID string) *slog.Logger {
	return Logger().With("request_id", requestID)
}

// WithDashboard returns a logger scoped to one dashboard
func WithDashboard(dashboardID string) *slog.Logger {
	return Logger().With("dashboard_id", dashboardID)
}

// WithService returns a logger with service name attached
func WithService(serviceName string) *slog.Logger {
	return Logger().With("service", serviceName)
}

// Convenience methods that use the default logger

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}
