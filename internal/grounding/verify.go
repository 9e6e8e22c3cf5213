package grounding

import "regexp"

// Refusal replaces any generated answer with no valid citation.
const Refusal = "I don't know based on this document."

// GuardrailRefusal is returned when retrieval confidence is below the
// minimum similarity and generation is never attempted.
const GuardrailRefusal = "I don't know based on this document. Try a more specific question or increase Top-k."

var citationPattern = regexp.MustCompile(`\[C(\d+)\]`)

// Verdict is the outcome of grounding verification. When Grounded is
// false, Text carries the fixed refusal instead of the model output.
type Verdict struct {
	Text      string
	Grounded  bool
	Citations []string
	Focus     string
}

// Verify scans responseText for citation markers and validates them with
// known (nil accepts any marker). A response with zero valid citations is
// discarded and replaced by the refusal: an uncited claim is never
// presented as grounded. Otherwise the text is returned unmodified, with
// the ordered citation list and the first citation as the default focus.
func Verify(responseText string, known func(id string) bool) Verdict {
	citations := Citations(responseText)
	if known != nil {
		valid := citations[:0]
		for _, id := range citations {
			if known(id) {
				valid = append(valid, id)
			}
		}
		citations = valid
	}

	if len(citations) == 0 {
		return Verdict{Text: Refusal, Grounded: false}
	}
	return Verdict{
		Text:      responseText,
		Grounded:  true,
		Citations: citations,
		Focus:     citations[0],
	}
}

// Citations returns the chunk ids cited in text, in order of first
// occurrence, without duplicates.
func Citations(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := "C" + m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ResolveCitation returns the chunk id of the n-th citation marker in
// text (1-based, counting every marker including repeats). ok is false
// when there is no such marker.
func ResolveCitation(text string, ordinal int) (string, bool) {
	if ordinal < 1 {
		return "", false
	}
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if ordinal > len(matches) {
		return "", false
	}
	return "C" + matches[ordinal-1][1], true
}
