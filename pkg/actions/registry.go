// Package actions holds the alert backends triggers can fire.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownAction is returned for names missing from the registry.
var ErrUnknownAction = errors.New("unknown action")

// Alert is the context handed to an action when a trigger fires.
type Alert struct {
	TriggerID   uint           `json:"trigger_id"`
	TriggerName string         `json:"trigger_name"`
	Description string         `json:"description"`
	Expression  string         `json:"expression"`
	HostID      uint           `json:"host_id"`
	Hostname    string         `json:"hostname"`
	Values      map[string]any `json:"values"`
	FiredAt     time.Time      `json:"fired_at"`
}

// Action is one alert delivery backend.
type Action interface {
	Name() string
	Description() string
	Fire(ctx context.Context, alert Alert) error
}

// Info describes a registered action.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry is the fixed table of actions built at process start.
type Registry struct {
	order   []string
	actions map[string]Action
	logger  zerolog.Logger
}

// NewRegistry registers actions in the given order. Names must be unique.
func NewRegistry(logger zerolog.Logger, actions ...Action) (*Registry, error) {
	r := &Registry{
		actions: make(map[string]Action, len(actions)),
		logger:  logger.With().Str("component", "actions").Logger(),
	}
	for _, a := range actions {
		name := a.Name()
		if _, dup := r.actions[name]; dup {
			return nil, fmt.Errorf("action %q registered twice", name)
		}
		r.actions[name] = a
		r.order = append(r.order, name)
	}
	return r, nil
}

// Enumerate lists the registered actions in registration order.
func (r *Registry) Enumerate() []Info {
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Info{Name: name, Description: r.actions[name].Description()})
	}
	return out
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.actions[name]
	return ok
}

// Fire delivers alert through the named action. Delivery failures are logged
// and dropped; only an unknown name is reported to the caller.
func (r *Registry) Fire(ctx context.Context, name string, alert Alert) error {
	action, ok := r.actions[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	if err := action.Fire(ctx, alert); err != nil {
		r.logger.Error().Err(err).
			Str("action", name).
			Uint("trigger_id", alert.TriggerID).
			Msg("Alert delivery failed")
		return nil
	}
	r.logger.Info().Str("action", name).Uint("trigger_id", alert.TriggerID).Str("hostname", alert.Hostname).Msg("Alert fired")
	return nil
}
