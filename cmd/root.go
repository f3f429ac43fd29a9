package cmd

import (
	"github.com/spf13/cobra"

	"github.com/initia-labs/transfervolume/config"
)

func SetVersion(version, commit string) {
	config.SetBuildInfo(version, commit)
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "transfervolume",
		Short:        "Index ERC-20 transfer volume of Ape tokens",
		SilenceUsage: true,
	}

	cmd.AddCommand(indexerCmd())
	cmd.AddCommand(apiCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(schemaCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and commit hash",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s (%s)\n", config.Version, config.CommitHash)
		},
	}
}
