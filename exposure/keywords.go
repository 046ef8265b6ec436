package exposure

import "strings"

const keywordPrefix = "kywd"

// keywordBag mirrors the RDF bag structure Exposure stores under the
// virtual-paths element. A single scalar item decodes to a one-element Items
// slice, so the scalar-vs-sequence distinction of the source format needs no
// special handling here.
type keywordBag struct {
	Bag struct {
		Items []string `xml:"li"`
	} `xml:"Bag"`
}

// decodeKeywords flattens a parsed keyword bag into the bare keyword texts.
// A missing or malformed bag is expected variability, not an error: it
// yields an empty list. Tokens without the keyword namespace prefix are
// virtual paths of other kinds and are skipped. Output order follows input
// order.
func decodeKeywords(bag *keywordBag) []string {
	keywords := []string{}
	if bag == nil {
		return keywords
	}
	for _, item := range bag.Bag.Items {
		if !strings.HasPrefix(item, keywordPrefix) {
			continue
		}
		kw := strings.ReplaceAll(item, "kywd:||", "")
		kw = strings.ReplaceAll(kw, "|", "")
		keywords = append(keywords, kw)
	}
	return keywords
}
