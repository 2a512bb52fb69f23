package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/darkan/pkg/admin"
	"github.com/haasonsaas/darkan/pkg/hosts"
	"github.com/haasonsaas/darkan/pkg/ingest"
	"github.com/haasonsaas/darkan/pkg/store"
)

const (
	requestIDContextKey     = "request_id"
	requestLoggerContextKey = "request_logger"
	requestIDHeader         = "X-Request-ID"

	statusOK    = "OK"
	statusError = "ERROR"
)

const tracerName = "github.com/haasonsaas/darkan/server"

var errRateLimited = errors.New("rate limit exceeded")

func withRequestContext(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = xid.New().String()
		}
		c.Set(requestIDContextKey, reqID)
		c.Writer.Header().Set(requestIDHeader, reqID)

		logger := base.With().Str("request_id", reqID).Str("method", c.Request.Method).Str("path", c.FullPath()).Logger()
		c.Set(requestLoggerContextKey, logger)

		propagator := otel.GetTextMapPropagator()
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		spanName := c.Request.Method + " " + c.FullPath()
		ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.String("request.id", reqID),
		)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		span.End()
	}
}

func requestLogger(c *gin.Context, fallback zerolog.Logger) zerolog.Logger {
	if value, ok := c.Get(requestLoggerContextKey); ok {
		if logger, ok := value.(zerolog.Logger); ok {
			return logger
		}
	}
	return fallback
}

func requestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDContextKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// respondOK writes {"status":"OK"} merged with payload.
func respondOK(c *gin.Context, payload map[string]any) {
	body := gin.H{"status": statusOK}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func respondError(c *gin.Context, status int, message string, fallback zerolog.Logger) {
	logger := requestLogger(c, fallback)
	entry := logger.Warn()
	if status >= http.StatusInternalServerError {
		entry = logger.Error()
	}
	entry.Int("status", status).Msg(message)
	if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
		span.AddEvent("http.error", trace.WithAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("error.message", message),
		))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"status":     statusError,
		"error":      message,
		"request_id": requestID(c),
	})
}

// respondFailure maps err onto an ERROR reply. Errors that are not part of the
// protocol are logged and reported as "internal error".
func respondFailure(c *gin.Context, err error, fallback zerolog.Logger) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger := requestLogger(c, fallback)
		logger.Error().Err(err).Msg("Request failed")
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.RecordError(err)
		}
	}
	respondError(c, status, message, fallback)
}

func classify(err error) (int, string) {
	var (
		admission    *hosts.AdmissionError
		valueType    *ingest.ValueTypeError
		unrecognized *admin.UnrecognizedCommandError
		argument     *admin.ArgumentError
	)
	switch {
	case errors.As(err, &admission):
		return http.StatusForbidden, admission.Error()
	case errors.As(err, &valueType):
		return http.StatusBadRequest, valueType.Error()
	case errors.As(err, &unrecognized):
		return http.StatusBadRequest, unrecognized.Error()
	case errors.As(err, &argument):
		return http.StatusBadRequest, argument.Error()
	case errors.Is(err, ingest.ErrMissingHostname),
		errors.Is(err, admin.ErrInvalidCommand):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, admin.ErrHostNotFound):
		return http.StatusNotFound, admin.ErrHostNotFound.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, store.ErrNotFound.Error()
	case errors.Is(err, hosts.ErrNotPending):
		return http.StatusConflict, hosts.ErrNotPending.Error()
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, errRateLimited.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
