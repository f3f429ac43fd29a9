package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/indexer"
	"github.com/initia-labs/transfervolume/log"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/orm"
	"github.com/initia-labs/transfervolume/patcher"
	"github.com/initia-labs/transfervolume/sentry_integration"
)

const shutdownTimeout = 10 * time.Second

func indexerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexer",
		Short: "Run the transfer volume indexer",
		Long: `
Run the transfer volume indexer.

Blocks are fetched from the JSON-RPC endpoint in height order. Transfer logs of tokens whose name
matches NAME_FILTER are counted and projected into the transfer_volume table.

You can configure database, chain, logging, and metrics options via environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}

			logger := log.NewLogger(cfg)
			metrics.Init(cfg.GetChainId())

			if err := sentry_integration.Init(cfg.GetSentryConfig(), config.Version); err != nil {
				return err
			}
			defer sentry_integration.Flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := orm.OpenDB(cfg.GetDBConfig(), logger)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			if cfg.GetDBConfig().AutoMigrate {
				if err := patcher.Patch(cfg, db, logger); err != nil {
					return err
				}
			}

			metrics.StartDBStatsUpdater(db, logger)
			server := metrics.NewServer(cfg, logger)

			idxer, err := indexer.New(ctx, cfg, logger, db)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(server.Start)
			g.Go(func() error {
				return idxer.Run(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("metrics server shutdown failed", slog.Any("error", err))
				}
				return nil
			})

			return g.Wait()
		},
	}

	return cmd
}
