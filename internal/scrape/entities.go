package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decEntityRe = regexp.MustCompile(`&#(\d+);`)
	hexEntityRe = regexp.MustCompile(`&#[xX]([0-9A-Fa-f]+);`)
)

var namedEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
	"&amp;", "&",
)

// DecodeEntities decodes the HTML entities Marktplaats actually emits:
// the common named entities plus numeric character references in decimal
// and hexadecimal form.
func DecodeEntities(s string) string {
	s = hexEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		hex := hexEntityRe.FindStringSubmatch(m)[1]
		n, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
	s = decEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		dec := decEntityRe.FindStringSubmatch(m)[1]
		n, err := strconv.ParseInt(dec, 10, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
	return namedEntities.Replace(s)
}
