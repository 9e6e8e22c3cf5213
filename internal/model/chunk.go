package model

// Chunk is a contiguous window of a document's full text, the unit of
// retrieval. Text is stored trimmed, but CharStart/CharEnd keep the
// untrimmed window bounds (rune offsets) so page overlap stays exact.
// Page is the first page whose range overlaps the window, or nil when
// nothing overlaps.
type Chunk struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Page      *int   `json:"page"`
	CharStart int    `json:"charStart"`
	CharEnd   int    `json:"charEnd"`
}

// VectorRow is the embedded form of one chunk. Position and ID mirror the
// chunk list of the same document record; Vector length equals the record's
// Dims.
type VectorRow struct {
	ID        string    `json:"id"`
	Page      *int      `json:"page"`
	CharStart int       `json:"charStart"`
	CharEnd   int       `json:"charEnd"`
	Vector    []float32 `json:"vector"`
}

// RetrievalResult is one scored chunk from a similarity query. Not
// persisted; recomputed per query.
type RetrievalResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
