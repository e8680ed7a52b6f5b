package sync

import (
	"regexp"
	"strconv"
	"strings"
)

const slugMaxLen = 50

var (
	nonPriceRe    = regexp.MustCompile(`[^0-9.,]`)
	numericLeadRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParsePrice converts a scraped human-readable price ("€ 12,50") into a
// numeric value: strip everything outside digits and separators, normalize
// the decimal comma to a dot, then parse the leading numeric run. Anything
// unparseable yields 0 — a zero price is valid downstream and is surfaced to
// catalog staff for correction rather than treated as an error.
//
// Thousand-separated values are ambiguous under this scheme ("1.234,56"
// becomes 1.234). Known edge case, inherited from upstream data that never
// uses thousand separators in practice.
func ParsePrice(s string) float64 {
	cleaned := nonPriceRe.ReplaceAllString(s, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	m := numericLeadRe.FindString(cleaned)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// SlugifyTitle derives a URL-safe slug base from a listing title: lowercase,
// non-alphanumeric runs collapsed to single dashes, trimmed, capped. The
// caller appends a uniqueness suffix; the base alone is not unique.
func SlugifyTitle(title string) string {
	slug := nonAlnumRe.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		return "product"
	}
	return slug
}
