// Package catalog persists products and categories for the shop and gives
// the sync pipeline its narrow read/write surface: category lookup, the set
// of source-linked products, and the insert/reactivate/deactivate mutations.
package catalog

import (
	"context"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
)

// Catalog is the persistence interface consumed by the sync pipeline.
// The pipeline never deletes products; deactivation is its terminal state.
type Catalog interface {
	// ListCategories returns all categories with their keywords, in stable
	// creation order. That order is the categorization tie-break.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// ListSourceLinked returns every product with a non-empty source_url,
	// active or not. Staff-created products are excluded by definition.
	ListSourceLinked(ctx context.Context) ([]model.Product, error)

	InsertProduct(ctx context.Context, p model.Product) error
	ReactivateProduct(ctx context.Context, id string, price float64) error
	DeactivateProduct(ctx context.Context, id string) error

	// AcquireSyncLock serializes whole-pipeline runs against this catalog.
	// Two concurrent runs computing deactivation sets from stale snapshots
	// would race, so a run that cannot get the lock must not reconcile.
	// The returned release func is safe to call once.
	AcquireSyncLock(ctx context.Context) (release func(), err error)

	Migrate(ctx context.Context) error
	Close() error
}

// seedCategory is one default category with its categorization keywords.
type seedCategory struct {
	Name     string
	Slug     string
	Keywords []string
}

// seedCategories are the tool-shop categories the catalog starts with.
// Keywords are matched as lowercase substrings against listing text.
var seedCategories = []seedCategory{
	{"Zaagmachines", "zaagmachines", []string{
		"zaag", "zaagtafel", "cirkelzaag", "decoupeerzaag", "verstekzaag",
		"kettingzaag", "afkortzaag", "lintzaag", "reciprozaag",
	}},
	{"Elektrisch gereedschap", "elektrisch-gereedschap", []string{
		"boormachine", "boor", "slijptol", "schuurmachine", "haakse slijper",
		"accuschroef", "klopboor", "freesmachine", "polijstmachine",
		"heteluchtpistool", "elektrisch", "accu", "oplader", "multitool",
	}},
	{"Handgereedschap", "handgereedschap", []string{
		"hamer", "tang", "schroevendraaier", "moersleutel", "sleutelset",
		"steeksleutel", "ringsleutel", "waterpomptang", "kniptang",
		"combinatietang", "nijptang", "meetlint", "waterpas", "beitel",
		"vijl", "rasp", "schaaf", "handzaag",
	}},
	{"Machines", "machines", []string{
		"machine", "compressor", "generator", "lasapparaat", "lasmachine",
		"draaibank", "freesbank", "pers", "werkbank", "statief", "stamper",
		"wacker",
	}},
	{"Bouw & Verbouw", "bouw-verbouw", []string{
		"bouw", "verbouw", "isolatie", "kit", "lijm", "mortelmixer",
		"tegelsnijder", "tegels", "afvoer", "drainage", "infiltratie",
		"buizen", "pvc", "koppeling", "afdichting", "cement", "beton",
		"palletbox", "kratten",
	}},
	{"Accessoires", "accessoires", []string{
		"bit", "schijf", "blad", "zaagblad", "schuurpapier", "schuurschijf",
		"doorslijpschijf", "diamant", "spijker", "schroef", "plug", "set",
		"koffer", "opbergbox",
	}},
	{"Tuin & Buiten", "tuin-buiten", []string{
		"tuin", "grasmaaier", "heggenschaar", "bladblazer", "snoeischaar",
		"tuinslang", "sproeier", "hogedruk", "terras", "bestrating",
	}},
	{"Overig", model.FallbackCategorySlug, nil},
}
