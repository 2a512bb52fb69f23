// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haasonsaas/darkan/pkg/config"
)

// Bootstrap installs a console logger whose level comes from envVar, for use
// before any config file has been read.
func Bootstrap(envVar string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	level := zerolog.InfoLevel
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv(envVar))); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	return install(New(os.Stdout, false), level)
}

// Apply rebuilds the global logger from the loaded config.
func Apply(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}
	return install(New(os.Stdout, cfg.JSON || !cfg.HumanReadable), level)
}

// New returns a timestamped logger writing JSON or console output to w.
func New(w io.Writer, json bool) zerolog.Logger {
	if json {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}

func install(logger zerolog.Logger, level zerolog.Level) zerolog.Logger {
	log.Logger = logger.Level(level)
	zerolog.SetGlobalLevel(level)
	return log.Logger
}
