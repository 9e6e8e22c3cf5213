package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleOffsets(t *testing.T) {
	pages, full := Assemble([]string{"Hello", "World"})
	require.Len(t, pages, 2)

	assert.Equal(t, "Hello\n\nWorld\n\n", full)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Hello", pages[0].Text)
	assert.Equal(t, 0, pages[0].Start)
	assert.Equal(t, 7, pages[0].End)

	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, "World", pages[1].Text)
	assert.Equal(t, 7, pages[1].Start)
	assert.Equal(t, 14, pages[1].End)
}

func TestAssembleTrimsPageText(t *testing.T) {
	pages, full := Assemble([]string{"  padded  \n"})
	require.Len(t, pages, 1)

	assert.Equal(t, "padded", pages[0].Text)
	assert.Equal(t, "padded\n\n", full)
	assert.Equal(t, 0, pages[0].Start)
	assert.Equal(t, 8, pages[0].End)
}

func TestAssembleRuneOffsets(t *testing.T) {
	pages, _ := Assemble([]string{"héllo", "wörld"})
	require.Len(t, pages, 2)

	// Offsets count runes, not bytes.
	assert.Equal(t, 7, pages[0].End)
	assert.Equal(t, 7, pages[1].Start)
	assert.Equal(t, 14, pages[1].End)
}

func TestAssembleEmptyPageKeepsPlace(t *testing.T) {
	pages, full := Assemble([]string{"a", "", "b"})
	require.Len(t, pages, 3)

	assert.Equal(t, "a\n\n\n\nb\n\n", full)
	assert.Equal(t, 3, pages[1].Start)
	assert.Equal(t, 5, pages[1].End)
	assert.Equal(t, 5, pages[2].Start)
}

func TestAssembleRangesAreContiguous(t *testing.T) {
	pages, full := Assemble([]string{"one", "two", "three"})
	require.Len(t, pages, 3)

	for i := 1; i < len(pages); i++ {
		assert.Equal(t, pages[i-1].End, pages[i].Start)
	}
	runeLen := len([]rune(full))
	assert.Equal(t, runeLen, pages[len(pages)-1].End)
}
