package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/catalog"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/categorize"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
)

// defaultDescription is stored when a listing carries no description.
const defaultDescription = "Geïmporteerd van Marktplaats"

// Reactivation re-enables a product that returned to Marktplaats after a
// prior run deactivated it, refreshing its price.
type Reactivation struct {
	ProductID string
	Price     float64
}

// SyncPlan is the computed set of catalog mutations for one run. Plans are a
// pure function of (scraped listings, existing source-linked products):
// applying a plan and re-planning against the same listing set yields an
// empty plan.
type SyncPlan struct {
	Inserts       []model.Product
	Reactivations []Reactivation
	Deactivations []string // product IDs
}

// Empty reports whether the plan contains no mutations.
func (p SyncPlan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Reactivations) == 0 && len(p.Deactivations) == 0
}

// Plan diffs the freshly scraped listing set against the catalog's existing
// source-linked products:
//
//   - a listing whose URL no product carries becomes an insert,
//   - a listing matching an inactive product becomes a reactivation
//     (an active match is left untouched; only availability is tracked,
//     content drift on still-listed items is not resynced),
//   - an active product whose URL the fresh set no longer contains becomes
//     a deactivation.
//
// now seeds the slug uniqueness suffix. Products without a source URL never
// appear in existing and are never touched.
func Plan(listings []model.Listing, existing []model.Product, categories []model.Category, now time.Time) SyncPlan {
	byURL := make(map[string]*model.Product, len(existing))
	for i := range existing {
		byURL[existing[i].SourceURL] = &existing[i]
	}

	fresh := make(map[string]bool, len(listings))
	var plan SyncPlan

	for i, listing := range listings {
		if !listing.Known() {
			continue
		}
		fresh[listing.URL] = true

		prior, ok := byURL[listing.URL]
		if !ok {
			plan.Inserts = append(plan.Inserts, buildProduct(listing, categories, now, i))
			continue
		}
		if !prior.Active {
			plan.Reactivations = append(plan.Reactivations, Reactivation{
				ProductID: prior.ID,
				Price:     ParsePrice(listing.Price),
			})
		}
	}

	for i := range existing {
		p := &existing[i]
		if p.Active && !fresh[p.SourceURL] {
			plan.Deactivations = append(plan.Deactivations, p.ID)
		}
	}

	return plan
}

// buildProduct maps a new listing onto a catalog product row. The slug
// suffix is the run timestamp offset by the listing's position, keeping
// slugs unique even when one run imports identical titles.
func buildProduct(listing model.Listing, categories []model.Category, now time.Time, seq int) model.Product {
	slug := fmt.Sprintf("%s-%d", SlugifyTitle(listing.Title), now.UnixMilli()+int64(seq))

	description := listing.Description
	if description == "" {
		description = defaultDescription
	}

	var images []string
	if listing.ImageURL != "" {
		images = []string{listing.ImageURL}
	}

	var categoryID string
	if cat := categorize.Categorize(listing, categories); cat != nil {
		categoryID = cat.ID
	}

	return model.Product{
		Name:        listing.Title,
		Slug:        slug,
		Description: description,
		Price:       ParsePrice(listing.Price),
		Condition:   model.ConditionUsed,
		Stock:       1,
		Images:      images,
		Active:      true,
		CategoryID:  categoryID,
		SourceURL:   listing.URL,
	}
}

// Reconciler applies sync plans to a catalog.
type Reconciler struct {
	catalog catalog.Catalog
}

// NewReconciler creates a Reconciler writing to the given catalog.
func NewReconciler(cat catalog.Catalog) *Reconciler {
	return &Reconciler{catalog: cat}
}

// Apply executes the plan. Per-item write failures (constraint violations
// and the like) are logged and counted but never abort the loop; the first
// failure's message is surfaced in the result so a degraded run still
// reports whatever succeeded.
func (r *Reconciler) Apply(ctx context.Context, plan SyncPlan) model.SyncResult {
	var result model.SyncResult
	var firstErr error

	recordErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, p := range plan.Inserts {
		if err := r.catalog.InsertProduct(ctx, p); err != nil {
			zap.L().Error("sync: insert failed",
				zap.String("source_url", p.SourceURL),
				zap.Error(err),
			)
			recordErr(err)
			continue
		}
		result.Imported++
	}

	for _, re := range plan.Reactivations {
		if err := r.catalog.ReactivateProduct(ctx, re.ProductID, re.Price); err != nil {
			zap.L().Error("sync: reactivate failed",
				zap.String("product_id", re.ProductID),
				zap.Error(err),
			)
			recordErr(err)
			continue
		}
		result.Updated++
	}

	for _, id := range plan.Deactivations {
		if err := r.catalog.DeactivateProduct(ctx, id); err != nil {
			zap.L().Error("sync: deactivate failed",
				zap.String("product_id", id),
				zap.Error(err),
			)
			recordErr(err)
			continue
		}
		result.Deactivated++
	}

	if firstErr != nil {
		result.Error = firstErr.Error()
	}
	return result
}
