// Package logging configures the zerolog logger shared by an export run.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug adds per-request and per-stage detail.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs progress lines and the output path.
	LevelInfo LogLevel = "info"

	// LevelWarn logs degraded results only.
	LevelWarn LogLevel = "warn"

	// LevelError logs failed runs only.
	LevelError LogLevel = "error"
)

// Component names attached to component loggers.
const (
	ComponentClient   = "store-client"
	ComponentExporter = "exporter"
	ComponentQuota    = "quota"
	ComponentCLI      = "cli"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug:
//   - Each store request (endpoint, status, attempt, duration)
//   - Quota header updates
//   - Stage timings inside a run
//
// Info:
//   - "Page i of n filtered" per listing page
//   - "Calling API for custom fields: batch i of n"
//   - Run start and the saved CSV path
//
// Warn:
//   - Listing truncated by a non-200 page (run continues)
//   - 429 retries and retry exhaustion
//   - Custom field lookups that fell back to the sentinel
//   - Quota pauses and quota store failures
//
// Error:
//   - Aborted runs (listing failure, unwritable output)
//   - Configuration errors
//
// Context Fields:
//   - run_id: one per export run
//   - component: store-client, exporter, quota, cli
//   - listing: products, pages, template_associations
//   - endpoint: request path with numeric IDs replaced by {id}
//   - product_id: product whose custom fields were fetched
//   - status_code / error_class: failed request detail
//   - requests_left: remaining quota in the current window
