package main

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func instantRetrier(maxRetries int) *retrier {
	r := newRetrier(100, 200, maxRetries, zerolog.Nop())
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}

func TestBackoffWithJitterBounds(t *testing.T) {
	initial := 100 * time.Millisecond
	maxDelay := 800 * time.Millisecond
	for attempt := 0; attempt < 6; attempt++ {
		delay := backoffWithJitter(initial, maxDelay, attempt)
		require.GreaterOrEqual(t, delay, initial/2, "attempt %d", attempt)
		require.LessOrEqual(t, delay, maxDelay, "attempt %d", attempt)
	}
}

func TestRetrierStopsAfterSuccess(t *testing.T) {
	var attempts int
	err := instantRetrier(3).do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 2 {
			return retryableStatusError{status: 503}
		}
		return nil
	}, isRetryableHTTP)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestRetrierGivesUp(t *testing.T) {
	var attempts int
	err := instantRetrier(2).do(context.Background(), func(context.Context) error {
		attempts++
		return retryableStatusError{status: 502}
	}, isRetryableHTTP)
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetrierSkipsPermanentErrors(t *testing.T) {
	var attempts int
	err := instantRetrier(5).do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("unknown host/key combination")
	}, isRetryableHTTP)
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetrierStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int
	err := instantRetrier(5).do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return retryableStatusError{status: 503}
	}, isRetryableHTTP)
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestIsRetryableHTTP(t *testing.T) {
	require.False(t, isRetryableHTTP(nil))
	require.True(t, isRetryableHTTP(retryableStatusError{status: 503}))
	require.False(t, isRetryableHTTP(errors.New("generic")))
	require.True(t, isRetryableHTTP(&net.DNSError{IsTemporary: true}))
	require.False(t, isRetryableHTTP(context.Canceled))
}

func TestIsRetryableStatus(t *testing.T) {
	require.True(t, isRetryableStatus(500))
	require.True(t, isRetryableStatus(429))
	require.False(t, isRetryableStatus(403))
	require.False(t, isRetryableStatus(200))
}
