package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	shopsync "github.com/juraprus2018-boop/jvw-trading-shop/internal/sync"
)

var scrapeProfileURL string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the Marktplaats profile without touching the catalog",
	Long:  "Manual mode: fetches the profile page, extracts all listings, and prints them as JSON. Used by the admin review UI before a curated import.",
	RunE: func(cmd *cobra.Command, args []string) error {
		profileURL := scrapeProfileURL
		if profileURL == "" {
			profileURL = cfg.Scrape.ProfileURL
		}
		if profileURL == "" {
			return eris.New("profile URL is required (--profile-url or SHOPSYNC_SCRAPE_PROFILE_URL)")
		}

		pipeline := shopsync.New(cfg.Scrape, newFetcher(), nil)
		result, err := pipeline.Run(cmd.Context(), profileURL, false)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Listings)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeProfileURL, "profile-url", "", "Marktplaats seller profile URL")
	rootCmd.AddCommand(scrapeCmd)
}
