package model

// SourceRef points an answer's consumer back at one retrieved chunk for
// evidence re-inspection.
type SourceRef struct {
	ID        string  `json:"id"`
	Page      *int    `json:"page"`
	CharStart int     `json:"charStart"`
	CharEnd   int     `json:"charEnd"`
	Score     float64 `json:"score"`
	Preview   string  `json:"preview"`
}

// Answer is the verified outcome of one question-answer cycle. When
// Grounded is false Text carries a fixed refusal; Citations lists cited
// chunk ids in order of first occurrence and Focus names the chunk the
// consumer should present first.
type Answer struct {
	Text      string      `json:"text"`
	Grounded  bool        `json:"grounded"`
	Citations []string    `json:"citations,omitempty"`
	Focus     string      `json:"focus,omitempty"`
	Sources   []SourceRef `json:"sources,omitempty"`
}
