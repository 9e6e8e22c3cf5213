package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/model"
)

func TestChunkWindowsAndOverlap(t *testing.T) {
	text := strings.Repeat("a", 900) + strings.Repeat("b", 900)

	chunks, err := Chunk(text, nil, 900, 150)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "C1", chunks[0].ID)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 900, chunks[0].CharEnd)

	assert.Equal(t, "C2", chunks[1].ID)
	assert.Equal(t, 750, chunks[1].CharStart)
	assert.Equal(t, 1650, chunks[1].CharEnd)

	assert.Equal(t, "C3", chunks[2].ID)
	assert.Equal(t, 1500, chunks[2].CharStart)
	assert.Equal(t, 1800, chunks[2].CharEnd)
}

func TestChunkCoversEveryRune(t *testing.T) {
	text := strings.Repeat("x", 2500)

	chunks, err := Chunk(text, nil, 400, 80)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// ceil((len - overlap) / (size - overlap)) windows cover the text.
	want := (2500 - 80 + (400 - 80) - 1) / (400 - 80)
	assert.Len(t, chunks, want)

	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 2500, chunks[len(chunks)-1].CharEnd)
	for i := 1; i < len(chunks); i++ {
		// Consecutive windows share exactly the overlap.
		assert.Equal(t, chunks[i-1].CharEnd-80, chunks[i].CharStart)
	}
}

func TestChunkTrimsTextButKeepsBounds(t *testing.T) {
	text := "  hello  "

	chunks, err := Chunk(text, nil, 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "hello", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 9, chunks[0].CharEnd)
}

func TestChunkRuneOffsets(t *testing.T) {
	text := strings.Repeat("é", 10)

	chunks, err := Chunk(text, nil, 4, 1)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 4, chunks[0].CharEnd)
	assert.Equal(t, "éééé", chunks[0].Text)
	assert.Equal(t, 10, chunks[len(chunks)-1].CharEnd)
}

func TestChunkPageAssignment(t *testing.T) {
	ranges := []model.PageRange{
		{Page: 1, Start: 0, End: 500},
		{Page: 2, Start: 500, End: 1000},
	}
	text := strings.Repeat("a", 1000)

	chunks, err := Chunk(text, ranges, 600, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The window [0, 600) straddles both pages and shows the first.
	require.NotNil(t, chunks[0].Page)
	assert.Equal(t, 1, *chunks[0].Page)

	// [400, 1000) still starts inside page 1.
	require.NotNil(t, chunks[1].Page)
	assert.Equal(t, 1, *chunks[1].Page)
}

func TestDisplayPageBoundaryIsExclusive(t *testing.T) {
	ranges := []model.PageRange{
		{Page: 1, Start: 0, End: 500},
		{Page: 2, Start: 500, End: 1000},
	}

	// A chunk starting exactly at a page's End does not touch that page.
	page := displayPage(500, 600, ranges)
	require.NotNil(t, page)
	assert.Equal(t, 2, *page)

	// A chunk ending exactly at a page's Start does not touch it either.
	page = displayPage(400, 500, ranges)
	require.NotNil(t, page)
	assert.Equal(t, 1, *page)

	assert.Nil(t, displayPage(1000, 1100, ranges))
}

func TestOverlappingPages(t *testing.T) {
	ranges := []model.PageRange{
		{Page: 1, Start: 0, End: 500},
		{Page: 2, Start: 500, End: 1000},
		{Page: 3, Start: 1000, End: 1500},
	}

	assert.Equal(t, []int{1, 2}, OverlappingPages(400, 600, ranges))
	assert.Equal(t, []int{2}, OverlappingPages(500, 1000, ranges))
	assert.Nil(t, OverlappingPages(1500, 1600, ranges))
}

func TestChunkRejectsBadParameters(t *testing.T) {
	_, err := Chunk("text", nil, 0, 0)
	assert.Error(t, err)

	_, err = Chunk("text", nil, 100, 100)
	assert.Error(t, err)

	_, err = Chunk("text", nil, 100, -1)
	assert.Error(t, err)
}

func TestChunkEmptyText(t *testing.T) {
	chunks, err := Chunk("", nil, 900, 150)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
