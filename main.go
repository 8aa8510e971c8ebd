package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoice-ai/pkg/config"
	"invoice-ai/pkg/logger"
	"invoice-ai/pkg/tracing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "invoice-ai",
		Short:         "Invoice extraction gateway and backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var envFile string
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(
		newGatewayCmd(&envFile),
		newBackendCmd(&envFile),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the global logger and tracer
// provider. The returned cleanup flushes both.
func setup(ctx context.Context, envFile, service string) (config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zap.ReplaceGlobals(log)
	if cfg.TracePropagation {
		tracing.EnablePropagation()
	}

	shutdownTracing, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:   service,
		Environment:   cfg.Environment,
		Endpoint:      cfg.TraceEndpoint,
		Insecure:      cfg.TraceInsecure,
		SamplingRatio: cfg.TraceSamplingRatio,
	}, log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
		_ = log.Sync()
	}
	return cfg, log, cleanup, nil
}
