package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/log"
	"github.com/initia-labs/transfervolume/orm"
	"github.com/initia-labs/transfervolume/patcher"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(migrateDiffCmd())
	cmd.AddCommand(migrateApplyCmd())

	return cmd
}

func migrateDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Generate a new database migration file",
		Long: `
Generate a new database migration file.

This command diffs the GORM models against the migration directory using Atlas.

You can configure database options via environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			dsn := cfg.GetDBConfig().DSN
			migrationDir := fmt.Sprintf("file://%s", cfg.GetDBConfig().MigrationDir)

			// #nosec G204
			rawCmd := exec.CommandContext(cmd.Context(), "atlas", "migrate", "diff",
				"migration",
				"--env", "gorm",
				"--dev-url", dsn,
				"--dir", migrationDir,
			)
			rawCmd.Stdout = os.Stdout
			rawCmd.Stderr = os.Stderr

			return rawCmd.Run()
		},
	}

	return cmd
}

func migrateApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending migrations and data patches to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}

			logger := log.NewLogger(cfg)
			dbCfg := cfg.GetDBConfig()
			dbCfg.AutoMigrate = true

			db, err := orm.OpenDB(dbCfg, logger)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			return patcher.Patch(cfg, db, logger)
		},
	}

	return cmd
}
