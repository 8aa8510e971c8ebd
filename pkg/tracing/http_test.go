package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestWrapHTTPClientPropagatesTraceContext(t *testing.T) {
	orig := otel.GetTextMapPropagator()
	EnablePropagation()
	defer otel.SetTextMapPropagator(orig)

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	traceID, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	spanID, _ := trace.SpanIDFromHex("0123456789abcdef")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := WrapHTTPClient(nil).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, traceparent, traceID.String())
}

func TestWrapHTTPClientAddsNothingWithoutSpan(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := WrapHTTPClient(&http.Client{}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, headers.Get("traceparent"))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
