package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://www.marktplaats.nl/v/a/b/m1-x",
		CanonicalURL("https://www.marktplaats.nl/v/a/b/m1-x?ref=home#photos"))
	assert.Equal(t, "/v/a/b/m1-x", CanonicalURL("/v/a/b/m1-x#frag"))
	assert.Equal(t, "/v/a/b/m1-x", CanonicalURL("/v/a/b/m1-x"))
}

func TestExtract_RelativeHrefs(t *testing.T) {
	html := `<a href="/v/gereedschap/zaagmachines/m123-makita">x</a>
	         <a href="/v/gereedschap/boren/m456-bosch?casData=abc">y</a>`

	urls := NewURLExtractor("").Extract(html)

	assert.Equal(t, []string{
		"https://www.marktplaats.nl/v/gereedschap/zaagmachines/m123-makita",
		"https://www.marktplaats.nl/v/gereedschap/boren/m456-bosch",
	}, urls)
}

func TestExtract_AbsoluteHrefs(t *testing.T) {
	html := `<a href="https://www.marktplaats.nl/v/tuin/maaiers/m789-stihl?r=1">z</a>
	         <a href="http://marktplaats.nl/v/tuin/maaiers/m790-honda">w</a>`

	urls := NewURLExtractor("").Extract(html)

	assert.Equal(t, []string{
		"https://www.marktplaats.nl/v/tuin/maaiers/m789-stihl",
		"http://marktplaats.nl/v/tuin/maaiers/m790-honda",
	}, urls)
}

func TestExtract_EmbeddedJSONURLs(t *testing.T) {
	html := `<script>window.__STATE__={"items":[{"url":"https://www.marktplaats.nl/v/a/b/m1-item","id":1}]}</script>`

	urls := NewURLExtractor("").Extract(html)

	assert.Equal(t, []string{"https://www.marktplaats.nl/v/a/b/m1-item"}, urls)
}

func TestExtract_PathLiteralsInScripts(t *testing.T) {
	html := `<script>var links=["/v/gereedschap/zagen/m55-festool-kapzaag","/v/gereedschap/zagen/m56-metabo"];</script>`

	urls := NewURLExtractor("").Extract(html)

	assert.Equal(t, []string{
		"https://www.marktplaats.nl/v/gereedschap/zagen/m55-festool-kapzaag",
		"https://www.marktplaats.nl/v/gereedschap/zagen/m56-metabo",
	}, urls)
}

// The same listing rendered as an anchor, as embedded JSON, and as a script
// path literal must come out once, keyed by its canonical URL.
func TestExtract_DeduplicatesAcrossPasses(t *testing.T) {
	html := `
	<a href="/v/gereedschap/zagen/m55-festool?ref=profile">a</a>
	<a href="https://www.marktplaats.nl/v/gereedschap/zagen/m55-festool#top">b</a>
	<script>{"url":"https://www.marktplaats.nl/v/gereedschap/zagen/m55-festool"}</script>
	<script>var p="/v/gereedschap/zagen/m55-festool";</script>`

	urls := NewURLExtractor("").Extract(html)

	assert.Equal(t, []string{"https://www.marktplaats.nl/v/gereedschap/zagen/m55-festool"}, urls)
}

func TestExtract_PreservesFirstSeenOrder(t *testing.T) {
	html := `
	<a href="/v/a/b/m2-second">x</a>
	<a href="/v/a/b/m1-first">y</a>
	<script>var p="/v/a/b/m3-third";</script>`

	urls := NewURLExtractor("").Extract(html)

	assert.Equal(t, []string{
		"https://www.marktplaats.nl/v/a/b/m2-second",
		"https://www.marktplaats.nl/v/a/b/m1-first",
		"https://www.marktplaats.nl/v/a/b/m3-third",
	}, urls)
}

func TestExtract_IgnoresNonListingLinks(t *testing.T) {
	html := `<a href="/u/verkoper/123/">profile</a>
	         <a href="https://www.marktplaats.nl/q/zoeken/">search</a>
	         <a href="/help/faq">help</a>`

	urls := NewURLExtractor("").Extract(html)

	assert.Empty(t, urls)
}

func TestExtract_CustomBaseURL(t *testing.T) {
	html := `<a href="/v/a/b/m1-x">x</a>`

	urls := NewURLExtractor("https://www.marktplaats.nl/").Extract(html)

	assert.Equal(t, []string{"https://www.marktplaats.nl/v/a/b/m1-x"}, urls)
}
