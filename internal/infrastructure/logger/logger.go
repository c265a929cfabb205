// Package logger builds the root zerolog.Logger used across the module,
// grounded on the teacher's backend/internal/infrastructure/logger
// package shape (level parsing, JSON-vs-console format switch, package
// level default logger) rewired onto zerolog instead of log/slog.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level ("debug", "info",
// "warn", "error"), writing JSON to stdout unless pretty is set, in
// which case it writes a human-readable console format.
func New(level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	w := os.Stdout
	logger := zerolog.New(w).With().Timestamp().Logger()
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}

	return logger.Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var defaultLogger = New("info", false)

// Default returns the package-level default logger.
func Default() zerolog.Logger {
	return defaultLogger
}

// SetDefault replaces the package-level default logger.
func SetDefault(l zerolog.Logger) {
	defaultLogger = l
}
