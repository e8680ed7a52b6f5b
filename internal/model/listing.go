package model

// TitleUnknown is the sentinel title assigned when no extraction strategy
// resolved a title. Listings carrying it are dropped before categorization
// and reconciliation.
const TitleUnknown = "Onbekend"

// Listing is one scraped Marktplaats offer. URL is the canonical source URL
// (query string and fragment stripped) and identifies the real-world item:
// two listings with equal URLs are the same item regardless of other fields.
type Listing struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	ImageURL    string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// Known returns false when the listing's title never resolved.
func (l Listing) Known() bool {
	return l.Title != "" && l.Title != TitleUnknown
}

// SearchText is the combined text used for categorization.
func (l Listing) SearchText() string {
	if l.Description == "" {
		return l.Title
	}
	return l.Title + " " + l.Description
}
