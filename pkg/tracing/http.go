package tracing

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// WrapHTTPClient instruments an http.Client with client spans and propagation.
func WrapHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}
	clone := *client
	base := clone.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone.Transport = &transport{base: base, tracer: otel.Tracer(instrumentationName)}
	return &clone
}

type transport struct {
	base   http.RoundTripper
	tracer trace.Tracer
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), "HTTP "+strings.ToUpper(req.Method), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req = req.Clone(ctx)
	InjectContext(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "client error")
		return resp, err
	}

	span.SetName("HTTP " + strings.ToUpper(req.Method) + " " + req.URL.Path)
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.host", req.URL.Host),
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int64("http.client_duration_ms", time.Since(start).Milliseconds()),
	)
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, "server error")
	}
	return resp, nil
}
