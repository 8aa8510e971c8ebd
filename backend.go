package main

import (
	"net/http"
	"time"

	"invoice-ai/pkg/backend"
	"invoice-ai/pkg/metrics"
	"invoice-ai/pkg/pipeline"
	"invoice-ai/pkg/server"
	"invoice-ai/pkg/services/ocr"
	"invoice-ai/pkg/services/validation"
	"invoice-ai/pkg/store"
	"invoice-ai/pkg/tracing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const imageFetchTimeout = 30 * time.Second

func newBackendCmd(envFile *string) *cobra.Command {
	var uploadDir string
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Serve the OCR extraction backend the gateway delegates to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, cleanup, err := setup(cmd.Context(), *envFile, "invoice-backend")
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cfg.ValidateBackend(); err != nil {
				return err
			}

			m := metrics.New("invoice_backend")
			opts := []pipeline.Option{pipeline.WithMetrics(m), pipeline.WithLogger(log)}

			var lister backend.InvoiceLister
			if cfg.DatabaseURL != "" {
				invoiceStore, err := store.Open(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer invoiceStore.Close()
				opts = append(opts, pipeline.WithStore(invoiceStore))
				lister = invoiceStore
			} else {
				log.Info("DATABASE_URL not set, processed invoices will not be stored")
			}

			downloader := ocr.NewDownloader(tracing.WrapHTTPClient(&http.Client{Timeout: imageFetchTimeout}), uploadDir)
			p := pipeline.New(
				ocr.NewService(cfg.AzureVisionEndpoint, cfg.AzureVisionKey),
				downloader,
				validation.New(validation.DefaultRules()),
				opts...,
			)

			r := server.NewEngine(log, m, cfg.IsProduction())
			r.Use(server.CORS())
			backend.New(p, lister, uploadDir, log).Register(r)

			log.Info("backend configured", zap.Bool("storage", lister != nil))
			return server.Run(cmd.Context(), ":"+cfg.BackendPort, r, log)
		},
	}
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "", "directory for temporary image files (default system temp)")
	return cmd
}
