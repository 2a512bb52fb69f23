package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/haasonsaas/darkan/pkg/admin"
	"github.com/haasonsaas/darkan/pkg/hosts"
	"github.com/haasonsaas/darkan/pkg/ingest"
	"github.com/haasonsaas/darkan/pkg/store"
)

func TestWithRequestContextSetsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	baseLogger := zerolog.Nop()
	r := gin.New()
	r.Use(withRequestContext(baseLogger))
	r.GET("/ping", func(c *gin.Context) {
		if requestID(c) == "" {
			t.Error("request ID not set")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request ID header")
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
}

func TestWithRequestContextKeepsClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withRequestContext(zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "abc123")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get(requestIDHeader); got != "abc123" {
		t.Fatalf("request ID = %q", got)
	}
}

func TestRespondErrorIncludesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	baseLogger := zerolog.Nop()
	r := gin.New()
	r.Use(withRequestContext(baseLogger))
	r.GET("/fail", func(c *gin.Context) {
		respondError(c, http.StatusBadRequest, "boom", baseLogger)
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != statusError || body["error"] != "boom" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["request_id"] == "" || body["request_id"] != resp.Header().Get(requestIDHeader) {
		t.Fatalf("request ID mismatch: %v", body)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{hosts.ErrDeclined, http.StatusForbidden, "host declined"},
		{fmt.Errorf("resolve: %w", hosts.ErrUnknownHostKey), http.StatusForbidden, "unknown host/key combination"},
		{&ingest.ValueTypeError{Key: "cpu", Arg: "load", Type: "bool"}, http.StatusBadRequest, "unknown value type bool for value cpu.load"},
		{ingest.ErrMissingHostname, http.StatusBadRequest, "missing hostname"},
		{admin.ErrInvalidCommand, http.StatusBadRequest, "missing or invalid command"},
		{&admin.UnrecognizedCommandError{Command: "a.b"}, http.StatusBadRequest, "unrecognized command a.b"},
		{&admin.ArgumentError{Command: "hosts.details", Message: "bad"}, http.StatusBadRequest, "invalid arguments for hosts.details: bad"},
		{admin.ErrHostNotFound, http.StatusNotFound, "host not found"},
		{fmt.Errorf("load: %w", store.ErrNotFound), http.StatusNotFound, "record not found"},
		{hosts.ErrNotPending, http.StatusConflict, "host is not pending approval"},
		{errRateLimited, http.StatusTooManyRequests, "rate limit exceeded"},
		{errors.New("database is locked"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		status, message := classify(tt.err)
		if status != tt.status || message != tt.message {
			t.Errorf("classify(%v) = %d %q, want %d %q", tt.err, status, message, tt.status, tt.message)
		}
	}
}
