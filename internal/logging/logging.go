// Package logging configures the process-wide slog logger for the walkthrough binary.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// FormatEnv selects the handler: "json" for JSON lines, anything else for text.
const FormatEnv = "OXY_LOG_FORMAT"

// ParseLogLevel returns the appropriate slog.Level based on string configuration.
// Returns an error if the provided log level string is not recognized.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unrecognized log level: %q", level)
	}
}

// New builds a logger writing to w at the given level. format "json" selects the JSON handler.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Setup installs a stderr logger at level as the slog default and returns it.
// The handler format is read from OXY_LOG_FORMAT.
func Setup(level string) (*slog.Logger, error) {
	logger, err := New(os.Stderr, level, os.Getenv(FormatEnv))
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
