package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hubgate/hubgate/internal/config"
	"github.com/hubgate/hubgate/internal/observability"
	"github.com/hubgate/hubgate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the rate limit probe over HTTP",
	Long: `Start an HTTP server exposing the probe for dashboards:

  GET /health
  GET /version
  GET /v1/ratelimit/{username}

SIGINT or SIGTERM triggers a graceful shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Bind host (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "Bind port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if host, err := cmd.Flags().GetString("host"); err == nil && host != "" {
		viper.Set("server.host", host)
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil && port != 0 {
		viper.Set("server.port", port)
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	observability.InitServerLogger("hubgate", cfg.Logging.Level)
	observability.ServerLogger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	srv := server.New(cfg.Server, buildProber(cfg), versionInfo.Version)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		observability.ServerLogger.Info("HTTP server stopped gracefully")
		return nil
	})

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	listenDone := make(chan error, 1)
	go func() {
		listenDone <- signals.Listen(cmd.Context())
	}()

	select {
	case err := <-errChan:
		return err
	case err := <-listenDone:
		return err
	}
}
