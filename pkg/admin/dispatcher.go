// Package admin dispatches administration commands of the form
// "<subject>.<action>" against the host registry, storage and action table.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/haasonsaas/darkan/pkg/actions"
	"github.com/haasonsaas/darkan/pkg/hosts"
	"github.com/haasonsaas/darkan/pkg/store"
	"github.com/haasonsaas/darkan/pkg/triggers"
)

var (
	ErrInvalidCommand = errors.New("missing or invalid command")
	ErrHostNotFound   = errors.New("host not found")
)

// UnrecognizedCommandError reports a well-formed command nobody handles.
type UnrecognizedCommandError struct {
	Command string
}

func (e *UnrecognizedCommandError) Error() string {
	return "unrecognized command " + e.Command
}

// ArgumentError reports a missing or malformed positional argument.
type ArgumentError struct {
	Command string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Command, e.Message)
}

// Request is one administration command.
type Request struct {
	Command string            `json:"command"`
	Args    []json.RawMessage `json:"args"`
}

// Result is the per-command payload of a successful reply.
type Result map[string]any

// ActionCatalog is the part of the action registry the dispatcher needs.
type ActionCatalog interface {
	Enumerate() []actions.Info
	Has(name string) bool
}

type handler func(ctx context.Context, cmd string, args []json.RawMessage) (Result, error)

// Dispatcher routes commands to their handlers.
type Dispatcher struct {
	st       store.Store
	registry *hosts.Registry
	catalog  ActionCatalog
	logger   zerolog.Logger
	handlers map[string]handler
}

func NewDispatcher(st store.Store, registry *hosts.Registry, catalog ActionCatalog, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		st:       st,
		registry: registry,
		catalog:  catalog,
		logger:   logger.With().Str("component", "admin").Logger(),
	}
	d.handlers = map[string]handler{
		"hosts.list":        d.hostsList,
		"hosts.details":     d.hostsDetails,
		"autohosts.list":    d.autohostsList,
		"autohosts.add":     d.autohostsAdd,
		"autohosts.decline": d.autohostsDecline,
		"values.latest":     d.valuesLatest,
		"triggers.list":     d.triggersList,
		"triggers.add":      d.triggersAdd,
		"actions.list":      d.actionsList,
	}
	return d
}

// Dispatch validates the command string and runs the matching handler.
// Malformed commands are rejected before any storage access.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	subject, action, ok := splitCommand(req.Command)
	if !ok {
		return nil, ErrInvalidCommand
	}
	cmd := subject + "." + action
	h, ok := d.handlers[cmd]
	if !ok {
		return nil, &UnrecognizedCommandError{Command: cmd}
	}

	d.logger.Debug().Str("command", cmd).Int("args", len(req.Args)).Msg("Received command")
	return h(ctx, cmd, req.Args)
}

func splitCommand(command string) (string, string, bool) {
	if strings.Count(command, ".") != 1 {
		return "", "", false
	}
	subject, action, _ := strings.Cut(command, ".")
	if subject == "" || action == "" {
		return "", "", false
	}
	return subject, action, true
}

func (d *Dispatcher) hostsList(ctx context.Context, _ string, _ []json.RawMessage) (Result, error) {
	list, err := d.st.AcceptedHosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accepted hosts: %w", err)
	}
	return Result{"hosts": hostViews(list)}, nil
}

func (d *Dispatcher) hostsDetails(ctx context.Context, cmd string, args []json.RawMessage) (Result, error) {
	id, err := idArg(cmd, args)
	if err != nil {
		return nil, err
	}
	host, err := d.st.HostByID(ctx, id)
	if err != nil {
		return nil, hostError(err)
	}
	return Result{"host": newHostView(*host)}, nil
}

func (d *Dispatcher) autohostsList(ctx context.Context, _ string, _ []json.RawMessage) (Result, error) {
	list, err := d.st.NewHosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list new hosts: %w", err)
	}
	return Result{"hosts": hostViews(list)}, nil
}

func (d *Dispatcher) autohostsAdd(ctx context.Context, cmd string, args []json.RawMessage) (Result, error) {
	id, err := idArg(cmd, args)
	if err != nil {
		return nil, err
	}
	var key string
	err = d.st.Transaction(ctx, func(tx store.Store) error {
		var err error
		key, err = d.registry.WithStore(tx).Approve(ctx, id)
		return err
	})
	if err != nil {
		return nil, hostError(err)
	}
	d.logger.Info().Uint("host_id", id).Msg("Host approved")
	return Result{"key": key}, nil
}

func (d *Dispatcher) autohostsDecline(ctx context.Context, cmd string, args []json.RawMessage) (Result, error) {
	id, err := idArg(cmd, args)
	if err != nil {
		return nil, err
	}
	err = d.st.Transaction(ctx, func(tx store.Store) error {
		return d.registry.WithStore(tx).Decline(ctx, id)
	})
	if err != nil {
		return nil, hostError(err)
	}
	d.logger.Info().Uint("host_id", id).Bool("soft", d.registry.SoftDecline()).Msg("Host declined")
	return Result{}, nil
}

func (d *Dispatcher) valuesLatest(ctx context.Context, cmd string, args []json.RawMessage) (Result, error) {
	id, err := idArg(cmd, args)
	if err != nil {
		return nil, err
	}
	if _, err := d.st.HostByID(ctx, id); err != nil {
		return nil, hostError(err)
	}

	views := []ValueView{}
	report, err := d.st.LatestReport(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load latest report: %w", err)
	default:
		for _, v := range report.Values {
			views = append(views, newValueView(v))
		}
	}
	return Result{"values": views}, nil
}

func (d *Dispatcher) triggersList(ctx context.Context, _ string, _ []json.RawMessage) (Result, error) {
	list, err := d.st.Triggers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	views := make([]TriggerView, 0, len(list))
	for _, t := range list {
		views = append(views, newTriggerView(t))
	}
	return Result{"triggers": views}, nil
}

// TriggerSpec is the argument of triggers.add.
type TriggerSpec struct {
	Host        ID     `json:"host"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Expression  string `json:"expression"`
	Action      string `json:"action"`
}

func (d *Dispatcher) triggersAdd(ctx context.Context, cmd string, args []json.RawMessage) (Result, error) {
	if len(args) != 1 {
		return nil, &ArgumentError{Command: cmd, Message: "expected one trigger object"}
	}
	var spec TriggerSpec
	if err := json.Unmarshal(args[0], &spec); err != nil {
		return nil, &ArgumentError{Command: cmd, Message: err.Error()}
	}
	switch {
	case spec.Host == 0:
		return nil, &ArgumentError{Command: cmd, Message: "host is required"}
	case strings.TrimSpace(spec.Name) == "":
		return nil, &ArgumentError{Command: cmd, Message: "name is required"}
	case !d.catalog.Has(spec.Action):
		return nil, &ArgumentError{Command: cmd, Message: fmt.Sprintf("unknown action %q", spec.Action)}
	}
	if _, err := triggers.Parse(spec.Expression); err != nil {
		return nil, &ArgumentError{Command: cmd, Message: "expression: " + err.Error()}
	}

	trigger := &store.Trigger{
		HostID:      uint(spec.Host),
		Name:        spec.Name,
		Description: spec.Description,
		Expression:  spec.Expression,
		Action:      spec.Action,
	}
	err := d.st.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.HostByID(ctx, trigger.HostID); err != nil {
			return err
		}
		return tx.CreateTrigger(ctx, trigger)
	})
	if err != nil {
		return nil, hostError(err)
	}
	d.logger.Info().Uint("trigger_id", trigger.ID).Str("trigger", trigger.Name).Msg("Trigger added")
	return Result{"id": trigger.ID}, nil
}

func (d *Dispatcher) actionsList(_ context.Context, _ string, _ []json.RawMessage) (Result, error) {
	return Result{"actions": d.catalog.Enumerate()}, nil
}

func idArg(cmd string, args []json.RawMessage) (uint, error) {
	if len(args) != 1 {
		return 0, &ArgumentError{Command: cmd, Message: fmt.Sprintf("expected one id, got %d arguments", len(args))}
	}
	var id ID
	if err := json.Unmarshal(args[0], &id); err != nil {
		return 0, &ArgumentError{Command: cmd, Message: err.Error()}
	}
	return uint(id), nil
}

func hostError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrHostNotFound
	}
	return err
}
