package main

import (
	"net/http"

	"invoice-ai/pkg/gateway"
	"invoice-ai/pkg/metrics"
	"invoice-ai/pkg/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGatewayCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Serve the public invoice submission endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, cleanup, err := setup(cmd.Context(), *envFile, "invoice-gateway")
			if err != nil {
				return err
			}
			defer cleanup()

			m := metrics.New("invoice_gateway")
			client := gateway.NewClient(cfg.BackendURL, cfg.BackendTimeout)
			gw := gateway.New(client, log, m)

			r := server.NewEngine(log, m, cfg.IsProduction())
			r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
			gw.Register(r)

			log.Info("gateway configured",
				zap.String("backend", client.Endpoint()),
				zap.Duration("timeout", cfg.BackendTimeout),
			)
			return server.Run(cmd.Context(), ":"+cfg.Port, r, log)
		},
	}
}
