package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// retrier repeats a submission with capped exponential backoff.
type retrier struct {
	initial    time.Duration
	max        time.Duration
	maxRetries int
	logger     zerolog.Logger
	sleep      func(context.Context, time.Duration) error
}

func newRetrier(initialMs, maxMs, maxRetries int, logger zerolog.Logger) *retrier {
	if initialMs <= 0 {
		initialMs = 500
	}
	if maxMs < initialMs {
		maxMs = initialMs
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retrier{
		initial:    time.Duration(initialMs) * time.Millisecond,
		max:        time.Duration(maxMs) * time.Millisecond,
		maxRetries: maxRetries,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is cancelled.
func (r *retrier) do(ctx context.Context, fn func(context.Context) error, retryable func(error) bool) error {
	var attempt int
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.maxRetries || !retryable(err) || ctx.Err() != nil {
			return err
		}
		delay := backoffWithJitter(r.initial, r.max, attempt)
		r.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("sleep", delay).Msg("Retrying submission")
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
		attempt++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffWithJitter(initial, max time.Duration, attempt int) time.Duration {
	b := float64(initial) * math.Pow(2, float64(attempt))
	if b > float64(max) {
		b = float64(max)
	}
	j := b / 2
	return time.Duration(j + rand.Float64()*j)
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var statusErr retryableStatusError
	return errors.As(err, &statusErr)
}

func isRetryableStatus(code int) bool {
	return code >= 500 && code < 600 || code == http.StatusTooManyRequests
}

type retryableStatusError struct {
	status  int
	message string
}

func (e retryableStatusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%s: %s", http.StatusText(e.status), e.message)
	}
	return http.StatusText(e.status)
}
