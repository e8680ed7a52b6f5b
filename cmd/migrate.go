package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create catalog tables and seed the default categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := initCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()

		if err := cat.Migrate(cmd.Context()); err != nil {
			return err
		}
		zap.L().Info("catalog migrated", zap.String("driver", cfg.Catalog.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
