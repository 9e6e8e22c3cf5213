package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"docchat/internal/model"
)

const docsIndexKey = "docs"

// ErrNotFound is returned when no document record exists for a file name.
// It also covers a dangling index entry whose record is missing: the
// document is simply "not available" and should be re-ingested.
var ErrNotFound = errors.New("document not found")

// VectorStore persists DocumentRecords over a KV backend. Layout:
//
//	docs                -> []DocumentInfo, most-recent-first, unique per fileName
//	doc:<docId>:vectors -> DocumentRecord
//
// The record is written before the index entry, so a crash between the
// two writes leaves an orphaned record, never an index entry without a
// record body; Load prunes dangling entries anyway in case the backend
// was produced by an older layout.
type VectorStore struct {
	mu sync.Mutex
	kv KV
}

func NewVectorStore(kv KV) *VectorStore {
	return &VectorStore{kv: kv}
}

func recordKey(docID string) string {
	return fmt.Sprintf("doc:%s:vectors", docID)
}

// Save persists the record and replaces any index entry with the same
// file name, inserting the new entry at the head of the index. The
// superseded record blob is left behind as an orphan.
func (s *VectorStore) Save(ctx context.Context, rec *model.DocumentRecord) error {
	if len(rec.Chunks) != len(rec.Vectors) {
		return fmt.Errorf("record %s: %d chunks but %d vectors", rec.DocID, len(rec.Chunks), len(rec.Vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal document record failed: %w", err)
	}
	if err := s.kv.Set(ctx, recordKey(rec.DocID), payload); err != nil {
		return fmt.Errorf("write document record failed: %w", err)
	}

	index, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	filtered := make([]model.DocumentInfo, 0, len(index)+1)
	filtered = append(filtered, rec.Info())
	for _, entry := range index {
		if entry.FileName != rec.FileName {
			filtered = append(filtered, entry)
		}
	}
	return s.writeIndex(ctx, filtered)
}

// Load returns the record registered under fileName. A dangling index
// entry (record body missing) is pruned from the index and reported as
// ErrNotFound.
func (s *VectorStore) Load(ctx context.Context, fileName string) (*model.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}

	for i, entry := range index {
		if entry.FileName != fileName {
			continue
		}
		raw, found, err := s.kv.Get(ctx, recordKey(entry.DocID))
		if err != nil {
			return nil, fmt.Errorf("read document record failed: %w", err)
		}
		if !found {
			// Index points at a record that was never written; prune it.
			if err := s.writeIndex(ctx, append(index[:i:i], index[i+1:]...)); err != nil {
				return nil, err
			}
			return nil, ErrNotFound
		}
		var rec model.DocumentRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal document record failed: %w", err)
		}
		return &rec, nil
	}
	return nil, ErrNotFound
}

// List returns the index entries, most-recently-ingested first.
func (s *VectorStore) List(ctx context.Context) ([]model.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readIndex(ctx)
}

// ClearAll removes the index and every stored record, orphans included.
func (s *VectorStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear store failed: %w", err)
	}
	return nil
}

func (s *VectorStore) readIndex(ctx context.Context) ([]model.DocumentInfo, error) {
	raw, found, err := s.kv.Get(ctx, docsIndexKey)
	if err != nil {
		return nil, fmt.Errorf("read document index failed: %w", err)
	}
	if !found {
		return nil, nil
	}
	var index []model.DocumentInfo
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("unmarshal document index failed: %w", err)
	}
	return index, nil
}

func (s *VectorStore) writeIndex(ctx context.Context, index []model.DocumentInfo) error {
	payload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal document index failed: %w", err)
	}
	if err := s.kv.Set(ctx, docsIndexKey, payload); err != nil {
		return fmt.Errorf("write document index failed: %w", err)
	}
	return nil
}
