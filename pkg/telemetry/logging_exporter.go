package telemetry

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// loggingExporter writes each finished span as one debug line, or a warn
// line when the span ended in error.
type loggingExporter struct {
	logger zerolog.Logger
}

func newLoggingExporter(logger zerolog.Logger) sdktrace.SpanExporter {
	return &loggingExporter{logger: logger}
}

func (l *loggingExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		l.spanEvent(span).Msg("Span finished")
	}
	return nil
}

func (l *loggingExporter) spanEvent(span sdktrace.ReadOnlySpan) *zerolog.Event {
	status := span.Status()
	event := l.logger.Debug()
	if status.Code == codes.Error {
		event = l.logger.Warn().Str("span_error", status.Description)
	}

	sc := span.SpanContext()
	event = event.
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Str("span_name", span.Name()).
		Str("span_kind", span.SpanKind().String()).
		Dur("duration", span.EndTime().Sub(span.StartTime()))
	if parent := span.Parent(); parent.IsValid() {
		event = event.Str("parent_span_id", parent.SpanID().String())
	}

	if attrs := span.Attributes(); len(attrs) > 0 {
		dict := zerolog.Dict()
		for _, kv := range attrs {
			dict = dict.Interface(string(kv.Key), kv.Value.AsInterface())
		}
		event = event.Dict("attributes", dict)
	}
	if n := len(span.Events()); n > 0 {
		event = event.Int("span_events", n)
	}
	return event
}

func (l *loggingExporter) Shutdown(context.Context) error   { return nil }
func (l *loggingExporter) ForceFlush(context.Context) error { return nil }
