package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextIncludesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	ctx := WithRequestID(context.Background(), "req-123")
	FromContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-123" {
		t.Fatalf("expected request_id %q, got %v", "req-123", got)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("development", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := New("production", "warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGinMiddlewareSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got == "" {
		t.Fatalf("expected X-Request-Id header to be set")
	}
}

func TestGinMiddlewareKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "abc" {
		t.Fatalf("expected handler to see request id abc, got %q", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for 4xx, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusTeapot) {
		t.Fatalf("expected status 418, got %v", got)
	}
}
