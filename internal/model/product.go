package model

import "time"

// ConditionUsed is the condition assigned to every scraped product.
const ConditionUsed = "gebruikt"

// FallbackCategorySlug is the reserved slug of the catch-all category used
// when keyword scoring matches nothing.
const FallbackCategorySlug = "overig"

// Category is a catalog category with its categorization keywords.
// Owned by the catalog; read-only to the sync pipeline.
type Category struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Keywords []string `json:"keywords,omitempty"`
}

// Product holds the catalog product fields the sync pipeline touches.
// A non-empty SourceURL marks the product as source-linked: its active flag
// follows the Marktplaats listing with that URL. Products without a SourceURL
// are staff-created and never modified by the pipeline.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Condition   string    `json:"condition"`
	Stock       int       `json:"stock"`
	Images      []string  `json:"images"`
	Active      bool      `json:"active"`
	Featured    bool      `json:"featured"`
	CategoryID  string    `json:"category_id,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	Imported    int    `json:"imported"`
	Updated     int    `json:"updated"`
	Deactivated int    `json:"deactivated"`
	Error       string `json:"error,omitempty"`
}

// Empty reports whether the run produced no catalog mutations.
func (r SyncResult) Empty() bool {
	return r.Imported == 0 && r.Updated == 0 && r.Deactivated == 0
}
