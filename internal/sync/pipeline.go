// Package sync runs the Marktplaats scraping-and-reconciliation pipeline:
// discover listing URLs on a seller profile page, extract fields from each
// listing, categorize, and reconcile the result against the shop catalog.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/catalog"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/config"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/fetcher"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/scrape"
)

// RunResult is what one pipeline run produced. Sync is nil in manual mode.
type RunResult struct {
	Listings []model.Listing
	Sync     *model.SyncResult
}

// Pipeline sequences fetcher, URL extraction, field extraction,
// categorization, and reconciliation.
type Pipeline struct {
	cfg     config.ScrapeConfig
	fetcher fetcher.Fetcher
	urls    *scrape.URLExtractor
	catalog catalog.Catalog
}

// New creates a Pipeline. catalog may be nil when only manual-mode runs are
// needed (autoSync then fails fast).
func New(cfg config.ScrapeConfig, f fetcher.Fetcher, cat catalog.Catalog) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fetcher: f,
		urls:    scrape.NewURLExtractor(cfg.BaseURL),
		catalog: cat,
	}
}

// Run scrapes the profile page at profileURL. With autoSync false it returns
// the extracted listings and leaves the catalog untouched; with autoSync
// true it reconciles them into the catalog and fills in the sync counts.
//
// A failed index-page fetch is fatal. Per-listing failures only drop that
// listing. Reconciliation runs strictly after all listing fetches complete:
// a partial set would read as "everything else was delisted" and deactivate
// still-active products, so cancellation mid-scrape aborts the run without
// mutating the catalog.
func (p *Pipeline) Run(ctx context.Context, profileURL string, autoSync bool) (*RunResult, error) {
	log := zap.L().With(zap.String("profile_url", profileURL))

	var release func()
	if autoSync {
		if p.catalog == nil {
			return nil, eris.New("pipeline: auto-sync requires a catalog")
		}
		var err error
		release, err = p.catalog.AcquireSyncLock(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: acquire sync lock")
		}
		defer release()
	}

	indexHTML, err := p.fetcher.Fetch(ctx, profileURL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch profile page")
	}

	urls := p.urls.Extract(indexHTML)
	log.Info("pipeline: listing urls discovered", zap.Int("count", len(urls)))

	listings, err := p.scrapeListings(ctx, urls)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: listings scraped",
		zap.Int("found", len(urls)),
		zap.Int("scraped", len(listings)),
	)

	result := &RunResult{Listings: listings}
	if !autoSync {
		return result, nil
	}

	categories, err := p.catalog.ListCategories(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load categories")
	}
	existing, err := p.catalog.ListSourceLinked(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load source-linked products")
	}

	plan := Plan(listings, existing, categories, time.Now())
	syncResult := NewReconciler(p.catalog).Apply(ctx, plan)
	result.Sync = &syncResult

	log.Info("pipeline: sync complete",
		zap.Int("imported", syncResult.Imported),
		zap.Int("updated", syncResult.Updated),
		zap.Int("deactivated", syncResult.Deactivated),
	)
	return result, nil
}

// scrapeListings fetches and extracts every listing page with bounded
// concurrency. The fetcher's shared politeness limiter keeps the request
// interval regardless of how many workers run. Returns an error only on
// cancellation; ordinary per-listing failures just drop the listing.
func (p *Pipeline) scrapeListings(ctx context.Context, urls []string) ([]model.Listing, error) {
	concurrency := p.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	results := make([]*model.Listing, len(urls))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range urls {
		g.Go(func() error {
			html, err := p.fetcher.Fetch(gCtx, u)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				zap.L().Warn("pipeline: listing fetch failed, skipping",
					zap.String("url", u),
					zap.Error(err),
				)
				return nil
			}

			listing := scrape.ExtractListing(html, u)
			if !listing.Known() {
				zap.L().Warn("pipeline: listing title unresolved, skipping",
					zap.String("url", u),
				)
				return nil
			}

			mu.Lock()
			results[i] = &listing
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: scrape aborted")
	}

	// Compact in discovery order.
	listings := make([]model.Listing, 0, len(urls))
	for _, l := range results {
		if l != nil {
			listings = append(listings, *l)
		}
	}
	return listings, nil
}
