// Package chunker slides a fixed-size window with overlap over extracted
// text, keeping page provenance for every chunk.
package chunker

import (
	"fmt"
	"strings"

	"docchat/internal/model"
)

// Chunk splits fullText into overlapping windows of size chunkSize. The
// stored text is trimmed, but CharStart/CharEnd keep the untrimmed window
// bounds (rune offsets) so the page overlap test stays exact. Overlap must
// satisfy 0 <= overlap < chunkSize or the window could stop advancing.
func Chunk(fullText string, pageRanges []model.PageRange, chunkSize, overlap int) ([]model.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d", overlap, chunkSize)
	}

	runes := []rune(fullText)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []model.Chunk
	i := 0
	for i < len(runes) {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, model.Chunk{
			ID:        fmt.Sprintf("C%d", len(chunks)+1),
			Text:      strings.TrimSpace(string(runes[i:end])),
			Page:      displayPage(i, end, pageRanges),
			CharStart: i,
			CharEnd:   end,
		})

		if end == len(runes) {
			break
		}
		i = end - overlap
		if i < 0 {
			i = 0
		}
	}

	return chunks, nil
}

// displayPage returns the first page whose range overlaps [start, end),
// or nil when none does. Half-open intervals: a chunk touching a page
// boundary with zero width does not overlap it.
func displayPage(start, end int, pageRanges []model.PageRange) *int {
	for _, r := range pageRanges {
		if end <= r.Start || start >= r.End {
			continue
		}
		page := r.Page
		return &page
	}
	return nil
}

// OverlappingPages returns every page number whose range overlaps
// [start, end), in page order.
func OverlappingPages(start, end int, pageRanges []model.PageRange) []int {
	var out []int
	for _, r := range pageRanges {
		if end <= r.Start || start >= r.End {
			continue
		}
		out = append(out, r.Page)
	}
	return out
}
