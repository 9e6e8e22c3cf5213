// Package grounding builds citation-grounded prompts and verifies that
// generated answers actually cite retrieved evidence.
package grounding

import (
	"fmt"
	"regexp"
	"strings"

	"docchat/internal/ai"
	"docchat/internal/model"
)

// Mode selects the prompt style.
type Mode string

const (
	// ModeStrict asks for verbatim extractive answers at temperature 0.
	ModeStrict Mode = "strict"
	// ModeNormal asks for concise grounded answers with low variability.
	ModeNormal Mode = "normal"
)

// ParseMode maps a request string to a Mode, defaulting to normal.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeStrict)) {
		return ModeStrict
	}
	return ModeNormal
}

// Temperature returns the generation temperature for the mode.
func (m Mode) Temperature() float64 {
	if m == ModeStrict {
		return 0
	}
	return 0.1
}

// blockDelimiter separates evidence blocks in the prompt.
const blockDelimiter = "\n\n---\n\n"

var multiNewline = regexp.MustCompile(`\n{2,}`)

// EvidenceBlock renders one retrieved chunk as a labeled quote. Runs of
// blank lines inside the chunk text are collapsed so the evidence stays
// compact.
func EvidenceBlock(c model.Chunk) string {
	page := "n/a"
	if c.Page != nil {
		page = fmt.Sprintf("%d", *c.Page)
	}
	text := multiNewline.ReplaceAllString(c.Text, "\n")
	return fmt.Sprintf("[%s] (Page %s)\n\"%s\"", c.ID, page, text)
}

// BuildPrompt assembles the system and user messages for the question and
// its retrieved evidence chunks.
func BuildPrompt(question string, chunks []model.Chunk, mode Mode) []ai.ChatMessage {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = EvidenceBlock(c)
	}
	evidence := strings.Join(blocks, blockDelimiter)

	var system, user string
	if mode == ModeStrict {
		system = "Extractive QA. Copy sentences only from chunks; always cite like [C1]. No outside info."
		user = fmt.Sprintf(`You must answer ONLY with sentences copied verbatim from the provided chunks.
After each sentence, include the chunk ID in square brackets like [C1].
Do NOT add any outside knowledge. If the chunks don't contain the answer, say exactly: "I don't know."

Question:
%s

Chunks:
%s

Answer using only copied sentences with citations like [C#].`, question, evidence)
	} else {
		system = "Be concise, faithful to chunks, and always cite chunk IDs like [C1], [C2]."
		user = fmt.Sprintf(`You are a careful assistant. Answer using ONLY the provided chunks.
Prefer to quote a few short phrases, and always add 2–4 citations like [C1], [C2].
If you aren't sure, say "I don't know."

Question:
%s

Chunks:
%s

Answer with 2–4 citations like [C#].`, question, evidence)
	}

	return []ai.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}
