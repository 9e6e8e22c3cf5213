package model

// Page is one page of extracted document text. Start and End are rune
// offsets into the concatenated full text, with End covering the page
// separator appended after the page text. Pages are contiguous and
// non-overlapping in extraction order.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// PageRange is the offset view of a Page kept for chunk provenance after
// the page texts themselves are discarded.
type PageRange struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Range returns the offset view of the page.
func (p Page) Range() PageRange {
	return PageRange{Page: p.Number, Start: p.Start, End: p.End}
}
