// Package ingest validates incoming agent packages and stores them as reports.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/haasonsaas/darkan/pkg/hosts"
	"github.com/haasonsaas/darkan/pkg/store"
)

// ErrMissingHostname rejects packages without a hostname.
var ErrMissingHostname = errors.New("missing hostname")

// Package is one agent submission.
type Package struct {
	Hostname string   `json:"hostname"`
	Key      string   `json:"key"`
	Interval int      `json:"interval"`
	Values   []Sample `json:"values"`
}

// Sample is a single metric reading as sent on the wire. Type is an optional
// discriminator; without it the kind is inferred from the JSON token.
type Sample struct {
	Key  string          `json:"key"`
	Arg  string          `json:"arg"`
	Type string          `json:"type,omitempty"`
	Val  json.RawMessage `json:"val"`
}

// Outcome describes what a successful Submit did.
type Outcome struct {
	HostID  uint
	Created bool
	// Stored is false for repeat anonymous contact from a pending host.
	Stored bool
}

// Service stores packages from admitted hosts.
type Service struct {
	st       store.Store
	registry *hosts.Registry
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(st store.Store, registry *hosts.Registry, logger zerolog.Logger) *Service {
	return &Service{
		st:       st,
		registry: registry,
		logger:   logger.With().Str("component", "ingest").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit admits the package and stores its report. Host registration, the
// report and its values are written in one transaction, so a rejected sample
// leaves no trace of the package.
func (s *Service) Submit(ctx context.Context, pkg Package) (Outcome, error) {
	if pkg.Hostname == "" {
		return Outcome{}, ErrMissingHostname
	}

	var out Outcome
	err := s.st.Transaction(ctx, func(tx store.Store) error {
		res, err := s.registry.WithStore(tx).Resolve(ctx, pkg.Hostname, pkg.Key, pkg.Interval)
		if err != nil {
			return err
		}
		out = Outcome{HostID: res.Host.ID, Created: res.Created}

		if res.Host.Status() != store.StatusAccepted && !res.Created {
			return nil
		}

		values := make([]store.Value, 0, len(pkg.Values))
		for _, sample := range pkg.Values {
			v, err := Classify(sample)
			if err != nil {
				return err
			}
			values = append(values, v)
		}

		report := &store.Report{HostID: res.Host.ID, Values: values}
		if err := tx.CreateReport(ctx, report); err != nil {
			return fmt.Errorf("store report: %w", err)
		}

		now := s.now()
		res.Host.LastReport = &now
		if pkg.Interval > 0 {
			res.Host.Interval = pkg.Interval
		}
		if err := tx.SaveHost(ctx, res.Host); err != nil {
			return fmt.Errorf("update host: %w", err)
		}
		out.Stored = true
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Debug().
		Str("hostname", pkg.Hostname).
		Uint("host_id", out.HostID).
		Bool("created", out.Created).
		Bool("stored", out.Stored).
		Int("values", len(pkg.Values)).
		Msg("Received package")
	return out, nil
}
