// Package retrieval ranks stored vectors against a query vector by cosine
// similarity.
package retrieval

import (
	"math"
	"sort"

	"docchat/internal/model"
)

// Result holds the ranked retrieval output: Top is the best k results in
// descending score order, All is every scored row in storage order.
type Result struct {
	Top []model.RetrievalResult
	All []model.RetrievalResult
}

// TopK scores every row against the query vector and returns the top k.
// Both vectors are normalized inside the cosine computation, so scores do
// not depend on upstream normalization. Ties keep insertion order, which
// makes repeated calls over the same store deterministic.
func TopK(query []float32, rows []model.VectorRow, k int) Result {
	all := make([]model.RetrievalResult, len(rows))
	for i, row := range rows {
		all[i] = model.RetrievalResult{ID: row.ID, Score: Cosine(query, row.Vector)}
	}

	top := make([]model.RetrievalResult, len(all))
	copy(top, all)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score > top[j].Score
	})

	if k < 0 {
		k = 0
	}
	if k > len(top) {
		k = len(top)
	}
	return Result{Top: top[:k], All: all}
}

// Cosine returns the cosine similarity of a and b, in [-1, 1]. Zero when
// either vector is empty, zero-length, or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
