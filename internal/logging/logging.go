// Package logging provides structured logging for the data layer.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output overrides the log destination. Defaults to stderr.
	Output io.Writer
}

// New creates a zerolog logger configured for the data layer.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// Nop returns a disabled logger for components that were not given one.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "":
		return zerolog.InfoLevel
	default:
		if l, err := zerolog.ParseLevel(level); err == nil {
			return l
		}
		return zerolog.InfoLevel
	}
}
