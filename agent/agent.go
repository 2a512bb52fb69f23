package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/haasonsaas/darkan/pkg/auth"
	"github.com/haasonsaas/darkan/pkg/collector"
	"github.com/haasonsaas/darkan/pkg/config"
	"github.com/haasonsaas/darkan/pkg/ingest"
)

const tracerName = "github.com/haasonsaas/darkan/agent"

// Agent periodically submits collected samples to the ingestion endpoint.
type Agent struct {
	cfg       *config.AgentConfig
	hostname  string
	client    *http.Client
	collector *collector.Collector
	retrier   *retrier
	logger    zerolog.Logger
}

func NewAgent(cfg *config.AgentConfig, hostname string, c *collector.Collector, logger zerolog.Logger) *Agent {
	return &Agent{
		cfg:      cfg,
		hostname: hostname,
		client: &http.Client{
			Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		},
		collector: c,
		retrier:   newRetrier(cfg.Server.RetryInitialMs, cfg.Server.RetryMaxMs, cfg.Server.RetryMaxRetries, logger),
		logger:    logger,
	}
}

// rejectedError is an ERROR reply the server will keep giving until an
// operator acts, so it is never retried.
type rejectedError struct {
	status  int
	message string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("server rejected package (%d): %s", e.status, e.message)
}

type reply struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Run reports immediately and then every interval until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.reportAndLog(ctx)

	jitter := time.Duration(a.cfg.Reporting.Jitter) * time.Second
	ticker := time.NewTicker(time.Duration(a.cfg.Reporting.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		// Spread agents that started together.
		if jitter > 0 {
			if err := sleepContext(ctx, time.Duration(rand.Int63n(int64(jitter)))); err != nil {
				return nil
			}
		}
		a.reportAndLog(ctx)
	}
}

func (a *Agent) reportAndLog(ctx context.Context) {
	if err := a.Report(ctx); err != nil && ctx.Err() == nil {
		a.logger.Error().Err(err).Msg("Failed sending package")
	}
}

// Report collects one round of samples and submits them.
func (a *Agent) Report(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.report")
	defer span.End()

	res := a.collector.Collect(ctx)
	for probe, msg := range res.Errors {
		a.logger.Warn().Str("probe", probe).Str("error", msg).Msg("Probe failed")
	}

	// Re-read every round so a key installed with -set-key is picked up
	// without a restart.
	key, err := auth.ResolveKey(a.cfg.Host.Key, a.cfg.Host.KeyFile, a.hostname)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve key")
		return err
	}

	values := res.Samples
	if values == nil {
		values = []ingest.Sample{}
	}
	body, err := json.Marshal(ingest.Package{
		Hostname: a.hostname,
		Key:      key,
		Interval: a.cfg.Reporting.Interval,
		Values:   values,
	})
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("host.name", a.hostname),
		attribute.Int("package.values", len(values)),
		attribute.Bool("package.anonymous", key == ""),
	)

	if err := a.retrier.do(ctx, func(ctx context.Context) error { return a.submit(ctx, body) }, isRetryableHTTP); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit")
		return err
	}
	a.logger.Info().Int("values", len(values)).Bool("anonymous", key == "").Msg("Package accepted")
	return nil
}

func (a *Agent) submit(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v1/package"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		r.Error = strings.TrimSpace(string(data))
	}

	if isRetryableStatus(resp.StatusCode) {
		return retryableStatusError{status: resp.StatusCode, message: r.Error}
	}
	if resp.StatusCode != http.StatusOK || r.Status != "OK" {
		return &rejectedError{status: resp.StatusCode, message: r.Error}
	}
	return nil
}

func (a *Agent) endpoint(path string) string {
	return strings.TrimRight(a.cfg.Server.URL, "/") + path
}
