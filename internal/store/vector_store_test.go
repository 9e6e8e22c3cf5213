package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/model"
)

func testRecord(docID, fileName string) *model.DocumentRecord {
	page := 1
	return &model.DocumentRecord{
		DocID:     docID,
		FileName:  fileName,
		CreatedAt: time.Now().Truncate(time.Second),
		Dims:      3,
		Chunks: []model.Chunk{
			{ID: "C1", Text: "first chunk", Page: &page, CharStart: 0, CharEnd: 11},
		},
		Vectors: []model.VectorRow{
			{ID: "C1", Page: &page, CharStart: 0, CharEnd: 11, Vector: []float32{0.1, 0.2, 0.3}},
		},
	}
}

func TestVectorStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(NewMemoryKV())

	rec := testRecord("123-report.pdf", "report.pdf")
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, rec.DocID, got.DocID)
	assert.Equal(t, rec.Dims, got.Dims)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, rec.Chunks[0], got.Chunks[0])
	require.Len(t, got.Vectors, 1)
	assert.Equal(t, rec.Vectors[0].Vector, got.Vectors[0].Vector)
}

func TestVectorStoreListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(NewMemoryKV())

	require.NoError(t, s.Save(ctx, testRecord("1-a.pdf", "a.pdf")))
	require.NoError(t, s.Save(ctx, testRecord("2-b.pdf", "b.pdf")))

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b.pdf", docs[0].FileName)
	assert.Equal(t, "a.pdf", docs[1].FileName)
}

func TestVectorStoreReingestReplacesIndexEntry(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(NewMemoryKV())

	require.NoError(t, s.Save(ctx, testRecord("1-a.pdf", "a.pdf")))
	require.NoError(t, s.Save(ctx, testRecord("2-b.pdf", "b.pdf")))
	require.NoError(t, s.Save(ctx, testRecord("3-a.pdf", "a.pdf")))

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "3-a.pdf", docs[0].DocID)
	assert.Equal(t, "2-b.pdf", docs[1].DocID)

	got, err := s.Load(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "3-a.pdf", got.DocID)
}

func TestVectorStoreLoadUnknownFileName(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(NewMemoryKV())

	_, err := s.Load(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVectorStoreSaveRejectsMismatchedLengths(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(NewMemoryKV())

	rec := testRecord("1-a.pdf", "a.pdf")
	rec.Vectors = nil
	assert.Error(t, s.Save(ctx, rec))
}

func TestVectorStorePrunesDanglingIndexEntry(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewVectorStore(kv)

	require.NoError(t, s.Save(ctx, testRecord("1-a.pdf", "a.pdf")))
	require.NoError(t, s.Save(ctx, testRecord("2-b.pdf", "b.pdf")))

	// Simulate an index entry whose record body is gone.
	require.NoError(t, kv.Delete(ctx, recordKey("1-a.pdf")))

	_, err := s.Load(ctx, "a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	// The dangling entry was removed from the index; the rest survives.
	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.pdf", docs[0].FileName)
}

func TestVectorStoreClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore(NewMemoryKV())

	require.NoError(t, s.Save(ctx, testRecord("1-a.pdf", "a.pdf")))
	require.NoError(t, s.ClearAll(ctx))

	docs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = s.Load(ctx, "a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
