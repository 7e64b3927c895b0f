package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lindaliu1/endangered-ocean/internal/api"
	"github.com/lindaliu1/endangered-ocean/internal/config"
	"github.com/lindaliu1/endangered-ocean/internal/observability"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the species read API",
	Long: `Serve runs the JSON API backed by Postgres:

  GET /api/health              liveness probe
  GET /api/debug/db            redacted connection info
  GET /api/species             species list with status/threat filters and paging
  GET /api/species/:id         one species with its threats
  GET /api/threats             distinct threat names
  GET /api/image/bg-remove     background-removed image proxy (NOAA hosts only)

Prometheus metrics are exposed on a second listener when
api.metrics_addr is set. Shuts down cleanly on SIGINT/SIGTERM.

Example:
  oceand serve
  oceand serve --addr :8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: api.addr config, :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.API.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newServerLogger("api")
	metrics := observability.NewMetrics()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	server := api.NewServer(api.Options{
		Store:         st,
		CORSOrigins:   cfg.API.CORSOrigins,
		ImageCacheDir: cfg.ImageCacheDir(),
		Metrics:       metrics,
		Logger:        logger,
	})

	if cfg.API.MetricsAddr != "" {
		go func() {
			if err := observability.Serve(ctx, cfg.API.MetricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	logger.Info().Str("addr", addr).Str("db", st.RedactedURL()).Msg("serving species API")
	return server.Run(ctx, addr)
}
