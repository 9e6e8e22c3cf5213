// Package extract adapts PDF text extraction into an ordered page
// sequence with rune offsets into the concatenated full text.
package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"docchat/internal/model"
)

// PageSeparator joins page texts in the concatenated full text. Each
// page's End offset covers its separator.
const PageSeparator = "\n\n"

// Progress reports extraction progress as (currentPage, totalPages).
type Progress func(page, total int)

// Pages extracts text page by page and returns the pages with their
// offsets plus the concatenated full text. Offsets are in runes so they
// line up with the chunker's windows.
func Pages(ra io.ReaderAt, size int64, progress Progress) ([]model.Page, string, error) {
	reader, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, "", fmt.Errorf("open pdf failed: %w", err)
	}

	total := reader.NumPage()
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if progress != nil {
			progress(i, total)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, "", fmt.Errorf("extract page %d failed: %w", i, err)
		}
		texts = append(texts, text)
	}

	pages, fullText := Assemble(texts)
	return pages, fullText, nil
}

// Assemble builds the page sequence and concatenated full text from raw
// per-page texts. Page texts are trimmed; ranges are contiguous and
// non-overlapping, each ending after the page separator.
func Assemble(pageTexts []string) ([]model.Page, string) {
	pages := make([]model.Page, 0, len(pageTexts))
	var full strings.Builder
	cursor := 0

	for i, raw := range pageTexts {
		text := strings.TrimSpace(raw)
		start := cursor
		full.WriteString(text)
		full.WriteString(PageSeparator)
		cursor += utf8.RuneCountInString(text) + utf8.RuneCountInString(PageSeparator)
		pages = append(pages, model.Page{
			Number: i + 1,
			Text:   text,
			Start:  start,
			End:    cursor,
		})
	}

	return pages, full.String()
}
