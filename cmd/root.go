package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shopsync",
	Short: "Marktplaats catalog sync for the JVW Trading shop",
	Long:  "Scrapes the Marktplaats seller profile, extracts listings, and reconciles them into the shop catalog: new items are imported, returned items reactivated, removed items deactivated.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
