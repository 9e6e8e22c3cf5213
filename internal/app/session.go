package app

import (
	"time"

	"docchat/internal/model"
)

// DocumentSession keeps the active document's record available to the
// query phase without reloading it from storage. A session is opened on
// successful ingestion (or lazily when asking against a stored document)
// and closed on clear or when another document replaces it.
type DocumentSession struct {
	Record   *model.DocumentRecord
	OpenedAt time.Time
}

func newDocumentSession(rec *model.DocumentRecord) *DocumentSession {
	return &DocumentSession{Record: rec, OpenedAt: time.Now()}
}
