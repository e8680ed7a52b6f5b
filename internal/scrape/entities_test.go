package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEntities_Named(t *testing.T) {
	assert.Equal(t, "Boor & Schroef", DecodeEntities("Boor &amp; Schroef"))
	assert.Equal(t, `<a href="x">`, DecodeEntities("&lt;a href=&quot;x&quot;&gt;"))
	assert.Equal(t, "It's", DecodeEntities("It&#39;s"))
	assert.Equal(t, "a b", DecodeEntities("a&nbsp;b"))
}

func TestDecodeEntities_Numeric(t *testing.T) {
	assert.Equal(t, "é", DecodeEntities("&#233;"))
	assert.Equal(t, "é", DecodeEntities("&#xE9;"))
	assert.Equal(t, "é", DecodeEntities("&#xe9;"))
	assert.Equal(t, "€ 50", DecodeEntities("&#8364; 50"))
}

func TestDecodeEntities_Mixed(t *testing.T) {
	assert.Equal(t, "Gépro's \"zaag\" & co",
		DecodeEntities("G&#233;pro&#39;s &quot;zaag&quot; &amp; co"))
}

func TestDecodeEntities_Passthrough(t *testing.T) {
	assert.Equal(t, "plain text", DecodeEntities("plain text"))
	assert.Equal(t, "", DecodeEntities(""))
	// Malformed references stay as-is.
	assert.Equal(t, "&#zz;", DecodeEntities("&#zz;"))
}
