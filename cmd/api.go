package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/initia-labs/transfervolume/api"
	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/log"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/orm"
)

func apiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run transfer volume API server",
		Long: `
Run the transfer volume API server.

This command starts the HTTP API service serving the projected TransferVolume rows and the
indexer status.

You can configure database, chain, logging, and server options via environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}

			logger := log.NewLogger(cfg)
			metrics.Init(cfg.GetChainId())

			db, err := orm.OpenDB(cfg.GetDBConfig(), logger)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			metrics.StartDBStatsUpdater(db, logger)
			metricsServer := metrics.NewServer(cfg, logger)
			server := api.New(cfg, logger, db)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(server.Start)
			g.Go(metricsServer.Start)
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down API server...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					logger.Error("metrics server shutdown failed", slog.Any("error", err))
				}
				return server.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	return cmd
}
