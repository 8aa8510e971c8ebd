package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Config configures the tracer provider and exporter.
type Config struct {
	ServiceName   string
	Environment   string
	Endpoint      string
	Insecure      bool
	SamplingRatio float64
}

// Enabled reports whether spans should be exported.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// NewProvider installs a global tracer provider exporting over OTLP/HTTP and
// returns its shutdown function. Without an endpoint the global provider is
// left as the no-op default and shutdown does nothing.
func NewProvider(ctx context.Context, cfg Config, log *zap.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	exportCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(exportCtx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := newProvider(cfg, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	if log != nil {
		log.Info("tracing initialized",
			zap.String("endpoint", cfg.Endpoint),
			zap.Float64("sampling_ratio", clampRatio(cfg.SamplingRatio)),
		)
	}
	return provider.Shutdown, nil
}

func newProvider(cfg Config, processor sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	)
	return sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SamplingRatio)))),
	)
}

func clampRatio(value float64) float64 {
	if value <= 0 {
		return 1
	}
	if value > 1 {
		return 1
	}
	return value
}
