package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type captureWriter struct {
	entries []string
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.entries = append(c.entries, string(p))
	return len(p), nil
}

func TestLoggingExporterEmitsSpan(t *testing.T) {
	writer := &captureWriter{}
	exporter := newLoggingExporter(zerolog.New(writer))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	ctx := context.Background()
	_, span := provider.Tracer("test").Start(ctx, "triggers.cycle")
	span.SetAttributes(attribute.Int("triggers.fired", 2))
	span.End()
	require.NoError(t, provider.Shutdown(ctx))

	require.Len(t, writer.entries, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(writer.entries[0]), &entry))
	require.Equal(t, "triggers.cycle", entry["span_name"])
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, map[string]any{"triggers.fired": float64(2)}, entry["attributes"])
	require.Equal(t, "Span finished", entry["message"])
}

func TestLoggingExporterWarnsOnErrorSpans(t *testing.T) {
	writer := &captureWriter{}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(newLoggingExporter(zerolog.New(writer))),
	)
	ctx := context.Background()
	_, span := provider.Tracer("test").Start(ctx, "agent.report")
	span.RecordError(errors.New("connection refused"))
	span.SetStatus(codes.Error, "submit")
	span.End()
	require.NoError(t, provider.Shutdown(ctx))

	require.Len(t, writer.entries, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(writer.entries[0]), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "submit", entry["span_error"])
	require.Equal(t, float64(1), entry["span_events"])
}
