package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	shopsync "github.com/juraprus2018-boop/jvw-trading-shop/internal/sync"
)

var syncProfileURL string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scrape the Marktplaats profile and reconcile it into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		profileURL := syncProfileURL
		if profileURL == "" {
			profileURL = cfg.Scrape.ProfileURL
		}
		if profileURL == "" {
			return eris.New("profile URL is required (--profile-url or SHOPSYNC_SCRAPE_PROFILE_URL)")
		}

		cat, err := initCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()

		if err := cat.Migrate(cmd.Context()); err != nil {
			return eris.Wrap(err, "migrate catalog")
		}

		pipeline := shopsync.New(cfg.Scrape, newFetcher(), cat)
		result, err := pipeline.Run(cmd.Context(), profileURL, true)
		if err != nil {
			return err
		}

		zap.L().Info("sync run finished",
			zap.Int("listings", len(result.Listings)),
			zap.Int("imported", result.Sync.Imported),
			zap.Int("updated", result.Sync.Updated),
			zap.Int("deactivated", result.Sync.Deactivated),
		)
		if result.Sync.Error != "" {
			zap.L().Warn("sync run degraded", zap.String("first_error", result.Sync.Error))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncProfileURL, "profile-url", "", "Marktplaats seller profile URL")
	rootCmd.AddCommand(syncCmd)
}
