package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/catalog"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/fetcher"
)

func initCatalog(ctx context.Context) (catalog.Catalog, error) {
	switch cfg.Catalog.Driver {
	case "sqlite":
		dsn := cfg.Catalog.DatabaseURL
		if dsn == "" {
			dsn = "shop.db"
		}
		return catalog.NewSQLite(dsn)
	case "postgres":
		return catalog.NewPostgres(ctx, cfg.Catalog.DatabaseURL, &catalog.PoolConfig{
			MaxConns: cfg.Catalog.MaxConns,
			MinConns: cfg.Catalog.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported catalog driver: %s", cfg.Catalog.Driver)
	}
}

// newFetcher builds the shared Marktplaats fetcher. One limiter for the
// whole process keeps the politeness interval across concurrent workers.
func newFetcher() *fetcher.HTTPFetcher {
	delay := time.Duration(cfg.Scrape.DelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return fetcher.New(fetcher.Options{
		UserAgent:    cfg.Scrape.UserAgent,
		Timeout:      time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		MaxRedirects: cfg.Scrape.MaxRedirects,
		Limiter:      rate.NewLimiter(rate.Every(delay), 1),
	})
}
