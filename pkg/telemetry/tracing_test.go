package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/haasonsaas/darkan/pkg/config"
)

func TestSetupTracingDefaults(t *testing.T) {
	ctx := context.Background()
	provider, err := SetupTracing(ctx, "darkan-server", "test", config.TracingConfig{}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, provider)
	require.NoError(t, provider.Shutdown(ctx))
}

func TestSetupTracingLogSpans(t *testing.T) {
	ctx := context.Background()
	writer := &captureWriter{}
	provider, err := SetupTracing(ctx, "darkan-server", "test", config.TracingConfig{LogSpans: true, SampleRatio: 1}, zerolog.New(writer))
	require.NoError(t, err)

	_, span := provider.Tracer("test").Start(ctx, "ingest.package")
	span.End()
	require.NoError(t, provider.Shutdown(ctx))
	require.NotEmpty(t, writer.entries)
}

func TestSetupTracingRejectsEmptyEndpoint(t *testing.T) {
	_, err := SetupTracing(context.Background(), "darkan-server", "test", config.TracingConfig{Endpoint: "https://"}, zerolog.Nop())
	require.Error(t, err)
}

func TestSpanRecorder(t *testing.T) {
	recorder := NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := provider.Tracer("test").Start(context.Background(), "admin.command")
	span.End()

	require.Len(t, recorder.Completed(), 1)
	require.NotNil(t, recorder.FirstSpanNamed("admin.command"))
	require.Nil(t, recorder.FirstSpanNamed("missing"))
}
