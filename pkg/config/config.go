package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBackendURL     = "http://localhost:5000"
	DefaultBackendTimeout = 30 * time.Second
	DefaultPort           = "3000"
	DefaultBackendPort    = "5000"
)

// Config holds runtime settings for both the gateway and the extraction backend
type Config struct {
	Environment string
	LogLevel    string

	// Gateway
	Port           string
	BackendURL     string
	BackendTimeout time.Duration

	// Extraction backend
	BackendPort         string
	DatabaseURL         string
	AzureVisionEndpoint string
	AzureVisionKey      string

	TracePropagation bool
	// OTLP/HTTP collector; empty disables span export
	TraceEndpoint      string
	TraceInsecure      bool
	TraceSamplingRatio float64
}

// Load reads an optional .env file and then the process environment
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Environment:         valueOr(getenv("APP_ENV"), "development"),
		LogLevel:            valueOr(getenv("LOG_LEVEL"), "info"),
		Port:                valueOr(getenv("PORT"), DefaultPort),
		BackendURL:          strings.TrimRight(valueOr(getenv("INVOICE_BACKEND_URL"), DefaultBackendURL), "/"),
		BackendTimeout:      DefaultBackendTimeout,
		BackendPort:         valueOr(getenv("BACKEND_PORT"), DefaultBackendPort),
		DatabaseURL:         strings.TrimSpace(getenv("DATABASE_URL")),
		AzureVisionEndpoint: strings.TrimSpace(getenv("AZURE_VISION_ENDPOINT")),
		AzureVisionKey:      strings.TrimSpace(getenv("AZURE_VISION_KEY")),
		TraceEndpoint:       strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if raw := strings.TrimSpace(getenv("BACKEND_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BACKEND_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("invalid BACKEND_TIMEOUT %q: must be positive", raw)
		}
		cfg.BackendTimeout = d
	}

	if raw := strings.TrimSpace(getenv("TRACE_PROPAGATION")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRACE_PROPAGATION %q: %w", raw, err)
		}
		cfg.TracePropagation = enabled
	}

	if raw := strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_INSECURE")); raw != "" {
		insecure, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OTEL_EXPORTER_OTLP_INSECURE %q: %w", raw, err)
		}
		cfg.TraceInsecure = insecure
	}

	if raw := strings.TrimSpace(getenv("OTEL_SAMPLING_RATIO")); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return Config{}, fmt.Errorf("invalid OTEL_SAMPLING_RATIO %q: must be between 0 and 1", raw)
		}
		cfg.TraceSamplingRatio = ratio
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production defaults
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ValidateBackend checks the settings the extraction backend cannot start without
func (c Config) ValidateBackend() error {
	var missing []string
	if c.AzureVisionEndpoint == "" {
		missing = append(missing, "AZURE_VISION_ENDPOINT")
	}
	if c.AzureVisionKey == "" {
		missing = append(missing, "AZURE_VISION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

func valueOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
