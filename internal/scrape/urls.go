// Package scrape extracts listing URLs and listing fields from raw
// Marktplaats HTML. The markup is not a single stable template: depending on
// the rendering path, the same data shows up as server-rendered anchors, as
// meta tags, or inside embedded JSON state. Every extractor here therefore
// runs multiple independent passes over the raw text and merges the results.
package scrape

import (
	"regexp"
	"strings"
)

// DefaultBaseURL is the origin that relative listing paths resolve against.
const DefaultBaseURL = "https://www.marktplaats.nl"

// The four listing-URL shapes observed across Marktplaats rendering paths.
var (
	// Server-rendered anchors with a relative /v/ path.
	relativeHrefRe = regexp.MustCompile(`(?i)href="(/v/[^"]+)"`)
	// Anchors carrying the fully-qualified listing URL.
	absoluteHrefRe = regexp.MustCompile(`(?i)href="(https?://(?:www\.)?marktplaats\.nl/v/[^"]+)"`)
	// URL values in attribute-like or JSON-like context ("url": "https://…/v/…").
	embeddedURLRe = regexp.MustCompile(`(?i)(?:url|href|link)['":\s]*["']?(https?://(?:www\.)?marktplaats\.nl/v/[^"'\s,}]+)`)
	// Listing-path string literals inside inline script/JSON blobs.
	pathLiteralRe = regexp.MustCompile(`(?i)["'](/v/[a-z0-9-]+/[a-z0-9-]+/m\d+-[^"']+)["']`)
)

// CanonicalURL strips the query string and fragment. Canonical URLs are the
// deduplication and reconciliation key: two listings with the same canonical
// URL are the same item.
func CanonicalURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// URLExtractor discovers listing URLs on a profile/index page.
type URLExtractor struct {
	baseURL string
}

// NewURLExtractor creates a URLExtractor resolving relative paths against
// baseURL (DefaultBaseURL when empty).
func NewURLExtractor(baseURL string) *URLExtractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &URLExtractor{baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract runs all four passes over the index HTML and returns absolute
// listing URLs, deduplicated by canonical URL, first-seen order preserved.
// Running every pass and merging is deliberately redundant: whichever
// rendering path produced the page, at least one pass matches.
func (e *URLExtractor) Extract(html string) []string {
	var urls []string
	seen := make(map[string]bool)

	add := func(raw string) {
		u := CanonicalURL(raw)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	for _, m := range relativeHrefRe.FindAllStringSubmatch(html, -1) {
		add(e.baseURL + m[1])
	}
	for _, m := range absoluteHrefRe.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	for _, m := range embeddedURLRe.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	for _, m := range pathLiteralRe.FindAllStringSubmatch(html, -1) {
		add(e.baseURL + m[1])
	}

	return urls
}
