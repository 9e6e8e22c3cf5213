package grounding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/model"
)

func intptr(v int) *int { return &v }

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeStrict, ParseMode("strict"))
	assert.Equal(t, ModeStrict, ParseMode(" STRICT "))
	assert.Equal(t, ModeNormal, ParseMode("normal"))
	assert.Equal(t, ModeNormal, ParseMode(""))
	assert.Equal(t, ModeNormal, ParseMode("anything"))
}

func TestModeTemperature(t *testing.T) {
	assert.Equal(t, 0.0, ModeStrict.Temperature())
	assert.Equal(t, 0.1, ModeNormal.Temperature())
}

func TestEvidenceBlockFormat(t *testing.T) {
	c := model.Chunk{ID: "C3", Text: "some evidence", Page: intptr(7)}
	block := EvidenceBlock(c)

	assert.True(t, strings.HasPrefix(block, "[C3] (Page 7)\n"))
	assert.Contains(t, block, `"some evidence"`)
}

func TestEvidenceBlockNoPage(t *testing.T) {
	c := model.Chunk{ID: "C1", Text: "orphan text"}
	assert.Contains(t, EvidenceBlock(c), "(Page n/a)")
}

func TestEvidenceBlockCollapsesBlankLines(t *testing.T) {
	c := model.Chunk{ID: "C1", Text: "first\n\n\nsecond", Page: intptr(1)}
	block := EvidenceBlock(c)

	assert.Equal(t, "[C1] (Page 1)\n\"first\nsecond\"", block)
}

func TestEvidenceBlockKeepsRawText(t *testing.T) {
	// Newlines and quotes reach the model as-is, never as escape sequences.
	c := model.Chunk{ID: "C2", Text: "line one\nsaid \"done\"", Page: intptr(3)}
	block := EvidenceBlock(c)

	assert.Contains(t, block, "line one\nsaid \"done\"")
	assert.NotContains(t, block, `\n`)
	assert.NotContains(t, block, `\"`)
}

func TestBuildPromptNormal(t *testing.T) {
	chunks := []model.Chunk{
		{ID: "C1", Text: "alpha", Page: intptr(1)},
		{ID: "C2", Text: "beta", Page: intptr(2)},
	}

	messages := BuildPrompt("What is alpha?", chunks, ModeNormal)
	require.Len(t, messages, 2)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "cite chunk IDs")

	assert.Equal(t, "user", messages[1].Role)
	assert.Contains(t, messages[1].Content, "What is alpha?")
	assert.Contains(t, messages[1].Content, "[C1] (Page 1)")
	assert.Contains(t, messages[1].Content, "[C2] (Page 2)")
	assert.Contains(t, messages[1].Content, "\n\n---\n\n")
	assert.Contains(t, messages[1].Content, "ONLY the provided chunks")
	assert.Contains(t, messages[1].Content, "always add 2–4 citations like [C1], [C2].")
	assert.Contains(t, messages[1].Content, "Answer with 2–4 citations like [C#].")
}

func TestBuildPromptStrict(t *testing.T) {
	chunks := []model.Chunk{{ID: "C1", Text: "alpha", Page: intptr(1)}}

	messages := BuildPrompt("What is alpha?", chunks, ModeStrict)
	require.Len(t, messages, 2)

	assert.Contains(t, messages[0].Content, "Extractive QA")
	assert.Contains(t, messages[1].Content, "copied verbatim")
	assert.Contains(t, messages[1].Content, "What is alpha?")
}
