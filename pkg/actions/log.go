package actions

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes alerts to the server log.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "alert").Logger()}
}

func (l *Log) Name() string        { return "Log" }
func (l *Log) Description() string { return "Writes alerts to the server log" }

func (l *Log) Fire(_ context.Context, alert Alert) error {
	l.logger.Warn().
		Uint("trigger_id", alert.TriggerID).
		Str("trigger", alert.TriggerName).
		Str("hostname", alert.Hostname).
		Str("expression", alert.Expression).
		Fields(alert.Values).
		Msg("ALERT")
	return nil
}
