// Package logging configures structured logging for the loop scheduler
// using zerolog.
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
	// LevelDebug logs per-block plans, fetches and short results.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs page render summaries and server lifecycle.
	LevelInfo LogLevel = "info"

	// LevelWarn logs failed blocks and failed item renders.
	LevelWarn LogLevel = "warn"

	// LevelError logs configuration and startup failures only.
	LevelError LogLevel = "error"
)

// Component names used with NewLogger.
const (
	ComponentScheduler = "loop-scheduler"
	ComponentServer    = "loop-server"
	ComponentStore     = "store"
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

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger creates a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Context Fields:
//   - page: 1-based page number being rendered
//   - block: block index within the page sequence
//   - stream: stream name
//   - collection: store collection read for a stream
//   - limit / returned: requested and returned item counts
//   - item_id: item identity
//   - template: template ref
//   - duration: render or request duration
