package model

import "time"

// DocumentRecord is the persisted unit for one ingested document: the
// chunk list and the parallel vector list. Chunks and Vectors have equal
// length with matching IDs at equal positions; Dims equals the length of
// every vector.
type DocumentRecord struct {
	DocID     string      `json:"docId"`
	FileName  string      `json:"fileName"`
	CreatedAt time.Time   `json:"createdAt"`
	Dims      int         `json:"dims"`
	Chunks    []Chunk     `json:"chunks"`
	Vectors   []VectorRow `json:"vectors"`
}

// DocumentInfo is the lightweight index entry kept under the "docs" key,
// most-recently-ingested first, at most one entry per file name.
type DocumentInfo struct {
	DocID     string    `json:"docId"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChunkByID returns the chunk with the given id, or nil.
func (r *DocumentRecord) ChunkByID(id string) *Chunk {
	for i := range r.Chunks {
		if r.Chunks[i].ID == id {
			return &r.Chunks[i]
		}
	}
	return nil
}

// Info returns the index entry for this record.
func (r *DocumentRecord) Info() DocumentInfo {
	return DocumentInfo{DocID: r.DocID, FileName: r.FileName, CreatedAt: r.CreatedAt}
}
