package cmd

import (
	"github.com/spf13/cobra"

	"github.com/initia-labs/transfervolume/orm"
)

// schemaCmd is the external program atlas.hcl loads the desired schema from
func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL of every indexer table",
		RunE: func(cmd *cobra.Command, args []string) error {
			stmts, err := orm.SchemaStatements()
			if err != nil {
				return err
			}
			cmd.Print(stmts)
			return nil
		},
	}
}
