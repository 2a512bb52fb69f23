// Package hosts implements host admission: resolving incoming hostnames,
// approving pending hosts with a fresh key, and declining them.
package hosts

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/haasonsaas/darkan/pkg/store"
)

// AdmissionError rejects a submission before anything is stored.
type AdmissionError struct {
	Message string
}

func (e *AdmissionError) Error() string {
	return e.Message
}

var (
	ErrDeclined          = &AdmissionError{"host declined"}
	ErrAlreadyRegistered = &AdmissionError{"hostname already registered"}
	ErrUnknownHostKey    = &AdmissionError{"unknown host/key combination"}
)

// ErrNotPending is returned when approve or decline targets a host that is not New.
var ErrNotPending = errors.New("host is not pending approval")

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Host *store.Host
	// Created is set when this call registered the host.
	Created bool
}

// Registry owns host creation, key issuance and status transitions.
type Registry struct {
	st          store.Store
	softDecline bool
	newKey      func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithSoftDecline keeps declined hosts as Declined rows instead of deleting them.
func WithSoftDecline(enabled bool) Option {
	return func(r *Registry) { r.softDecline = enabled }
}

// WithKeyGenerator replaces the uuid based key generator.
func WithKeyGenerator(fn func() string) Option {
	return func(r *Registry) { r.newKey = fn }
}

func NewRegistry(st store.Store, opts ...Option) *Registry {
	r := &Registry{
		st:     st,
		newKey: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithStore returns a copy of the registry bound to st, typically a transaction.
func (r *Registry) WithStore(st store.Store) *Registry {
	cp := *r
	cp.st = st
	return &cp
}

// SoftDecline reports whether decline keeps the host row.
func (r *Registry) SoftDecline() bool {
	return r.softDecline
}

// Resolve finds the host submitting under hostname and key, registering it as
// New on first anonymous contact.
func (r *Registry) Resolve(ctx context.Context, hostname, key string, interval int) (Resolution, error) {
	host, err := r.st.HostByHostname(ctx, hostname)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Resolution{}, fmt.Errorf("lookup host %q: %w", hostname, err)
	}
	if host != nil && host.Status() == store.StatusDeclined {
		return Resolution{}, ErrDeclined
	}

	if key == "" {
		if host == nil {
			host = &store.Host{Hostname: hostname, Interval: interval}
			if err := r.st.CreateHost(ctx, host); err != nil {
				return Resolution{}, fmt.Errorf("register host %q: %w", hostname, err)
			}
			return Resolution{Host: host, Created: true}, nil
		}
		if host.Status() == store.StatusAccepted {
			return Resolution{}, ErrAlreadyRegistered
		}
		return Resolution{Host: host}, nil
	}

	if host == nil || host.Key == nil || !secureCompare(*host.Key, key) {
		return Resolution{}, ErrUnknownHostKey
	}
	return Resolution{Host: host}, nil
}

// Approve accepts a New host and returns the freshly issued key.
func (r *Registry) Approve(ctx context.Context, id uint) (string, error) {
	host, err := r.pending(ctx, id)
	if err != nil {
		return "", err
	}

	key := r.newKey()
	if key == "" {
		return "", fmt.Errorf("approve host %d: key generator returned an empty key", id)
	}
	host.Key = &key
	host.Acknowledged = true
	if err := r.st.SaveHost(ctx, host); err != nil {
		return "", fmt.Errorf("approve host %d: %w", id, err)
	}
	return key, nil
}

// Decline rejects a New host. Without soft decline the host and its reports
// are deleted and a later anonymous contact registers it again.
func (r *Registry) Decline(ctx context.Context, id uint) error {
	host, err := r.pending(ctx, id)
	if err != nil {
		return err
	}

	if !r.softDecline {
		if err := r.st.DeleteHost(ctx, id); err != nil {
			return fmt.Errorf("delete host %d: %w", id, err)
		}
		return nil
	}

	host.Acknowledged = true
	host.Key = nil
	if err := r.st.SaveHost(ctx, host); err != nil {
		return fmt.Errorf("decline host %d: %w", id, err)
	}
	return nil
}

func (r *Registry) pending(ctx context.Context, id uint) (*store.Host, error) {
	host, err := r.st.HostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load host %d: %w", id, err)
	}
	if host.Status() != store.StatusNew {
		return nil, ErrNotPending
	}
	return host, nil
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
