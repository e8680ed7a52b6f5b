// Package categorize assigns catalog categories to scraped listings by
// keyword scoring. Pure functions, no I/O.
package categorize

import (
	"strings"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
)

// Categorize scores every category by the number of its distinct keywords
// occurring as substrings in the listing's combined title and description
// (case-insensitive) and returns the strictly highest scorer. Ties keep the
// earlier category in the supplied slice, so the result is deterministic for
// a stable category ordering. When nothing scores, the category with the
// reserved fallback slug is returned if present, else nil.
func Categorize(listing model.Listing, categories []model.Category) *model.Category {
	text := strings.ToLower(listing.SearchText())

	var best *model.Category
	bestScore := 0

	for i := range categories {
		cat := &categories[i]
		score := 0
		for _, kw := range cat.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = cat
		}
	}

	if best != nil {
		return best
	}
	return Fallback(categories)
}

// Fallback returns the category with the reserved fallback slug, or nil.
func Fallback(categories []model.Category) *model.Category {
	for i := range categories {
		if categories[i].Slug == model.FallbackCategorySlug {
			return &categories[i]
		}
	}
	return nil
}
