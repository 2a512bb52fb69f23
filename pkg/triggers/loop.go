// Package triggers evaluates stored trigger conditions against the latest
// report of each host and fires the configured action on a rising edge.
package triggers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/haasonsaas/darkan/pkg/actions"
	"github.com/haasonsaas/darkan/pkg/store"
)

const (
	DefaultInterval = 30 * time.Second
	tracerName      = "github.com/haasonsaas/darkan/pkg/triggers"
)

// Firer delivers an alert through a named action.
type Firer interface {
	Fire(ctx context.Context, name string, alert actions.Alert) error
}

// CycleStats summarizes one pass over all triggers.
type CycleStats struct {
	Evaluated int
	Fired     int
	Failed    int
}

// Loop periodically evaluates every trigger.
type Loop struct {
	st       store.Store
	firer    Firer
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	compiled map[string]Expr
}

func NewLoop(st store.Store, firer Firer, interval time.Duration, logger zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		st:       st,
		firer:    firer,
		interval: interval,
		logger:   logger.With().Str("component", "triggers").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
		compiled: make(map[string]Expr),
	}
}

// Run evaluates all triggers immediately and then once per interval until ctx
// is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().Dur("interval", l.interval).Msg("TriggerCheck started")
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single cycle. A failing trigger is logged and skipped.
func (l *Loop) RunOnce(ctx context.Context) CycleStats {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "triggers.cycle")
	defer span.End()

	l.logger.Debug().Msg("Checking triggers")
	var stats CycleStats

	triggers, err := l.st.Triggers(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to load triggers")
		span.RecordError(err)
		span.SetStatus(codes.Error, "load triggers")
		return stats
	}

	for _, t := range triggers {
		if ctx.Err() != nil {
			break
		}
		stats.Evaluated++
		fired, err := l.evaluate(ctx, t)
		if err != nil {
			stats.Failed++
			l.logger.Warn().Err(err).
				Uint("trigger_id", t.ID).
				Str("trigger", t.Name).
				Str("expression", t.Expression).
				Msg("Trigger evaluation failed")
			continue
		}
		if fired {
			stats.Fired++
		}
	}

	span.SetAttributes(
		attribute.Int("triggers.evaluated", stats.Evaluated),
		attribute.Int("triggers.fired", stats.Fired),
		attribute.Int("triggers.failed", stats.Failed),
	)
	return stats
}

func (l *Loop) evaluate(ctx context.Context, t store.Trigger) (bool, error) {
	expr, err := l.compile(t.Expression)
	if err != nil {
		return false, fmt.Errorf("parse expression: %w", err)
	}

	host, err := l.st.HostByID(ctx, t.HostID)
	if err != nil {
		return false, fmt.Errorf("load host %d: %w", t.HostID, err)
	}
	report, err := l.st.LatestReport(ctx, t.HostID)
	if errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("host %s has no reports", host.Hostname)
	}
	if err != nil {
		return false, fmt.Errorf("load latest report: %w", err)
	}

	values := make(map[Ref]any, len(report.Values))
	for _, v := range report.Values {
		if payload := v.Interface(); payload != nil {
			values[Ref{Key: v.Key, Arg: v.Arg}] = payload
		}
	}
	matched, err := expr.Eval(func(r Ref) (any, bool) {
		v, ok := values[r]
		return v, ok
	})
	if err != nil {
		return false, err
	}

	state, err := l.st.TriggerState(ctx, t.ID)
	if err != nil {
		return false, fmt.Errorf("load trigger state: %w", err)
	}
	rising := matched && !state.Triggered
	now := l.now()
	state.Triggered = matched
	state.EvaluatedAt = now
	if rising {
		state.FiredAt = &now
	}
	// Persisting before firing keeps delivery at-most-once across restarts.
	if err := l.st.SaveTriggerState(ctx, state); err != nil {
		return false, fmt.Errorf("save trigger state: %w", err)
	}
	if !rising {
		return false, nil
	}

	alert := actions.Alert{
		TriggerID:   t.ID,
		TriggerName: t.Name,
		Description: t.Description,
		Expression:  t.Expression,
		HostID:      host.ID,
		Hostname:    host.Hostname,
		Values:      make(map[string]any),
		FiredAt:     now,
	}
	for _, r := range expr.Refs() {
		if v, ok := values[r]; ok {
			alert.Values[r.String()] = v
		}
	}
	if err := l.firer.Fire(ctx, t.Action, alert); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Loop) compile(src string) (Expr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expr, ok := l.compiled[src]; ok {
		return expr, nil
	}
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	l.compiled[src] = expr
	return expr, nil
}
