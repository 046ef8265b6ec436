package exposure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeKeywordsNilBag(t *testing.T) {
	kws := decodeKeywords(nil)
	assert.NotNil(t, kws)
	assert.Empty(t, kws)
}

func TestDecodeKeywordsSingleItem(t *testing.T) {
	bag := &keywordBag{}
	bag.Bag.Items = []string{"kywd:||irina|"}

	kws := decodeKeywords(bag)
	assert.Equal(t, []string{"irina"}, kws)
}

func TestDecodeKeywordsSkipsOtherVirtualPaths(t *testing.T) {
	bag := &keywordBag{}
	bag.Bag.Items = []string{
		"kywd:||landscape|",
		"coll:||some-collection|",
		"kywd:||mountain|",
	}

	kws := decodeKeywords(bag)
	assert.Equal(t, []string{"landscape", "mountain"}, kws)
}

func TestDecodeKeywordsPreservesOrder(t *testing.T) {
	bag := &keywordBag{}
	bag.Bag.Items = []string{
		"kywd:||zebra|",
		"kywd:||alpha|",
		"kywd:||mid|",
	}

	kws := decodeKeywords(bag)
	assert.Equal(t, []string{"zebra", "alpha", "mid"}, kws)
}
