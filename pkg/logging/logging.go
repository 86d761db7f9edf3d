// Package logging holds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the package-level logger used when a component is not given one.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init sets up the global zerolog logger with structured JSON output on stdout.
// Level is parsed from the given string ("debug", "info", "warn", "error").
func Init(level, service string) zerolog.Logger {
	return InitWriter(os.Stdout, level, service)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	Logger = zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
	return Logger
}

// Component returns a child of Logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
