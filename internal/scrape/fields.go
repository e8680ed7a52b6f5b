package scrape

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
)

// page bundles the raw HTML with its parsed document. The document is nil
// when parsing failed; strategies that need it must tolerate that, since the
// regex-based fallbacks still work on broken markup.
type page struct {
	html string
	doc  *goquery.Document
}

func newPage(html string) *page {
	p := &page{html: html}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		p.doc = doc
	}
	return p
}

// meta returns the content attribute of the first matching meta tag.
func (p *page) meta(selector string) string {
	if p.doc == nil {
		return ""
	}
	return strings.TrimSpace(p.doc.Find(selector).First().AttrOr("content", ""))
}

// strategy is one named extraction attempt for a single field.
type strategy struct {
	name string
	fn   func(*page) string
}

// firstHit runs the chain in order and returns the first non-empty decoded
// value together with the name of the strategy that produced it.
func firstHit(p *page, chain []strategy) (string, string) {
	for _, s := range chain {
		if v := s.fn(p); v != "" {
			return DecodeEntities(v), s.name
		}
	}
	return "", ""
}

var (
	priceCentsRe = regexp.MustCompile(`"priceCents"\s*:\s*(\d+)`)
	priceClassRe = regexp.MustCompile(`class="[^"]*[Pp]rice[^"]*"[^>]*>\s*€?\s*([\d.,]+)`)
	jsonLdRe     = regexp.MustCompile(`(?is)<script type="application/ld\+json">(.*?)</script>`)
	cdnImageRe   = regexp.MustCompile(`(?i)https://[^"'\s]+\.marktplaats\.com/[^"'\s]+(?:jpg|jpeg|png|webp)[^"'\s]*`)
	imageURLsRe  = regexp.MustCompile(`"imageUrls"\s*:\s*\["([^"]+)"`)
)

var titleChain = []strategy{
	{"og_title", func(p *page) string {
		return p.meta(`meta[property="og:title"]`)
	}},
	{"html_title", func(p *page) string {
		if p.doc == nil {
			return ""
		}
		title := p.doc.Find("title").First().Text()
		// Titles read "Item Name | Marktplaats" or "Item Name - Marktplaats";
		// keep only the item name.
		if i := strings.IndexByte(title, '|'); i >= 0 {
			title = title[:i]
		}
		if i := strings.IndexByte(title, '-'); i >= 0 {
			title = title[:i]
		}
		return strings.TrimSpace(title)
	}},
}

var priceChain = []strategy{
	// Structured price meta carries major currency units already.
	{"og_price", func(p *page) string {
		if v := p.meta(`meta[property="product:price:amount"]`); v != "" {
			return "€ " + v
		}
		return ""
	}},
	// Embedded script state carries cents.
	{"price_cents", func(p *page) string {
		m := priceCentsRe.FindStringSubmatch(p.html)
		if m == nil {
			return ""
		}
		cents, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("€ %.2f", float64(cents)/100)
	}},
	// Visible markup: a number next to a price-styled element.
	{"price_markup", func(p *page) string {
		if m := priceClassRe.FindStringSubmatch(p.html); m != nil {
			return "€ " + m[1]
		}
		return ""
	}},
}

var imageChain = []strategy{
	{"og_image", func(p *page) string {
		return p.meta(`meta[property="og:image"]`)
	}},
	{"twitter_image", func(p *page) string {
		return p.meta(`meta[name="twitter:image"]`)
	}},
	{"json_ld", func(p *page) string {
		m := jsonLdRe.FindStringSubmatch(p.html)
		if m == nil {
			return ""
		}
		var data struct {
			Image any `json:"image"`
		}
		if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
			return ""
		}
		switch img := data.Image.(type) {
		case string:
			return img
		case []any:
			if len(img) > 0 {
				if s, ok := img[0].(string); ok {
					return s
				}
			}
		}
		return ""
	}},
	{"cdn_url", func(p *page) string {
		return cdnImageRe.FindString(p.html)
	}},
	{"image_urls", func(p *page) string {
		if m := imageURLsRe.FindStringSubmatch(p.html); m != nil {
			return m[1]
		}
		return ""
	}},
}

var descriptionChain = []strategy{
	{"og_description", func(p *page) string {
		return p.meta(`meta[property="og:description"]`)
	}},
}

// ExtractListing pulls normalized listing fields out of one listing page.
// Each field tries its fallback chain in priority order and takes the first
// non-empty value. A missing price, image, or description is a valid partial
// result; a missing title yields the sentinel and the caller drops the
// listing.
func ExtractListing(html, url string) model.Listing {
	p := newPage(html)

	title, titleSrc := firstHit(p, titleChain)
	if title == "" {
		title = model.TitleUnknown
	}
	price, priceSrc := firstHit(p, priceChain)
	image, imageSrc := firstHit(p, imageChain)
	description, _ := firstHit(p, descriptionChain)

	zap.L().Debug("scrape: listing extracted",
		zap.String("url", url),
		zap.String("title_via", titleSrc),
		zap.String("price_via", priceSrc),
		zap.String("image_via", imageSrc),
	)

	return model.Listing{
		Title:       title,
		Price:       price,
		URL:         url,
		ImageURL:    image,
		Description: description,
	}
}
