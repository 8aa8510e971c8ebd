package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// New builds a zap logger: JSON in production, console output otherwise.
func New(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(environment, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, err
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id stored by the middleware, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// FromContext returns the global logger annotated with the request id.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if id := RequestIDFromContext(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return log
}
