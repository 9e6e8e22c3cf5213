package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"docchat/internal/ai"
	"docchat/internal/cache"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/extract"
	"docchat/internal/grounding"
	"docchat/internal/logger"
	"docchat/internal/model"
	"docchat/internal/retrieval"
	"docchat/internal/store"
)

const sourcePreviewLen = 400

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a chat completion. It may fail; failures are
// surfaced as ErrGeneration and never crash the pipeline.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error)
}

// extractFn matches extract.Pages; swappable in tests.
type extractFn func(ra io.ReaderAt, size int64, progress extract.Progress) ([]model.Page, string, error)

// QAService orchestrates the document QA pipeline: ingest (extract,
// chunk, embed, persist) and ask (embed query, retrieve, generate,
// verify grounding).
type QAService struct {
	cfg       *config.Config
	store     *store.VectorStore
	embedder  Embedder
	generator Generator
	answers   *cache.AnswerCache // nil when the answer cache is disabled

	extract extractFn
	guard   *busyGuard

	// sessionMu covers the session pointer only; operation exclusivity is
	// the busy guard's job.
	sessionMu sync.RWMutex
	session   *DocumentSession
}

func NewQAService(
	cfg *config.Config,
	vectorStore *store.VectorStore,
	embedder Embedder,
	generator Generator,
	answers *cache.AnswerCache,
) *QAService {
	return &QAService{
		cfg:       cfg,
		store:     vectorStore,
		embedder:  embedder,
		generator: generator,
		answers:   answers,
		extract:   extract.Pages,
		guard:     newBusyGuard(time.Duration(cfg.Pipeline.BusyTimeoutSeconds) * time.Second),
	}
}

// IngestResult summarises one completed ingestion.
type IngestResult struct {
	DocID      string `json:"doc_id"`
	FileName   string `json:"file_name"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
	Dims       int    `json:"dims"`
}

// Ingest runs the full pipeline over one PDF and persists the resulting
// document record. On success the document becomes the active session.
// Nothing is persisted when any phase fails.
func (s *QAService) Ingest(ctx context.Context, fileName string, pdfBytes []byte) (*IngestResult, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || len(pdfBytes) == 0 {
		return nil, ErrInvalidInput
	}

	epoch, err := s.guard.acquire("ingesting")
	if err != nil {
		return nil, err
	}
	rec, pageCount, err := s.ingest(ctx, fileName, pdfBytes)
	current := s.guard.release(epoch)
	if err != nil {
		return nil, err
	}

	if current {
		s.setSession(newDocumentSession(rec))
	} else {
		// Finished after the busy fail-safe fired: the record is durable,
		// but a newer operation may own the session by now.
		logger.Warn("ingest completed after busy timeout; session not bound", "doc_id", rec.DocID)
	}

	return &IngestResult{
		DocID:      rec.DocID,
		FileName:   rec.FileName,
		PageCount:  pageCount,
		ChunkCount: len(rec.Chunks),
		Dims:       rec.Dims,
	}, nil
}

func (s *QAService) ingest(ctx context.Context, fileName string, pdfBytes []byte) (*model.DocumentRecord, int, error) {
	pages, fullText, err := s.extract(bytes.NewReader(pdfBytes), int64(len(pdfBytes)), func(page, total int) {
		logger.Debug("reading page", "page", page, "total", total)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	logger.Info("document parsed", "file", fileName, "pages", len(pages), "chars", len(fullText))

	ranges := make([]model.PageRange, len(pages))
	for i, p := range pages {
		ranges[i] = p.Range()
	}

	chunks, err := chunker.Chunk(fullText, ranges, s.cfg.Pipeline.ChunkSize, s.cfg.Pipeline.ChunkOverlap)
	if err != nil {
		return nil, 0, err
	}
	if len(chunks) == 0 || strings.TrimSpace(fullText) == "" {
		return nil, 0, fmt.Errorf("%w: no extractable text", ErrExtraction)
	}
	logger.Info("document chunked", "chunks", len(chunks), "chunk_size", s.cfg.Pipeline.ChunkSize, "overlap", s.cfg.Pipeline.ChunkOverlap)

	// Embed strictly in order, yielding to cancellation after every chunk.
	vectors := make([]model.VectorRow, 0, len(chunks))
	dims := 0
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		vec, err := s.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: chunk %s: %w", ErrEmbedding, c.ID, err)
		}
		if dims == 0 {
			dims = len(vec)
		} else if len(vec) != dims {
			return nil, 0, fmt.Errorf("%w: chunk %s has %d dims, want %d", ErrEmbedding, c.ID, len(vec), dims)
		}
		vectors = append(vectors, model.VectorRow{
			ID:        c.ID,
			Page:      c.Page,
			CharStart: c.CharStart,
			CharEnd:   c.CharEnd,
			Vector:    vec,
		})
		if (i+1)%5 == 0 || i == len(chunks)-1 {
			logger.Debug("embedded chunks", "done", i+1, "total", len(chunks))
		}
	}

	rec := &model.DocumentRecord{
		DocID:     fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileName),
		FileName:  fileName,
		CreatedAt: time.Now(),
		Dims:      dims,
		Chunks:    chunks,
		Vectors:   vectors,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, 0, err
	}
	logger.Info("ingest complete", "doc_id", rec.DocID, "chunks", len(chunks), "dims", dims)
	return rec, len(pages), nil
}

// AskInput carries one question. FileName may be empty when a session is
// already open; TopK, MaxTokens and Mode fall back to configured defaults.
type AskInput struct {
	FileName  string
	Question  string
	TopK      int
	MaxTokens int
	Mode      string
}

// Ask answers a question against the active (or named) document. The
// cycle is: embed query, retrieve top-k, apply the confidence guardrail,
// build the grounded prompt, generate, verify citations. Both the
// guardrail miss and an ungrounded response yield fixed refusals, not
// errors.
func (s *QAService) Ask(ctx context.Context, input AskInput) (*model.Answer, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	epoch, err := s.guard.acquire("answering")
	if err != nil {
		return nil, err
	}
	answer, loaded, err := s.ask(ctx, input, question)
	current := s.guard.release(epoch)
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		if current {
			s.setSession(loaded)
		} else {
			logger.Warn("ask completed after busy timeout; session not bound", "doc_id", loaded.Record.DocID)
		}
	}
	return answer, nil
}

// ask returns the answer plus a freshly loaded session when the question
// was not served by the already open one.
func (s *QAService) ask(ctx context.Context, input AskInput, question string) (*model.Answer, *DocumentSession, error) {
	rec, loaded, err := s.resolveRecord(ctx, input.FileName)
	if err != nil {
		return nil, nil, err
	}

	k := clamp(input.TopK, s.cfg.Pipeline.TopK, 1, s.cfg.Pipeline.MaxTopK)
	maxTokens := clamp(input.MaxTokens, s.cfg.Pipeline.MaxOutputTokens, 16, 4096)
	mode := grounding.ParseMode(input.Mode)

	if s.answers != nil {
		cached, hit, err := s.answers.Get(ctx, rec.DocID, string(mode), question, k)
		if err != nil {
			logger.Warn("answer cache read failed", "error", err)
		} else if hit {
			logger.Debug("answer cache hit", "doc_id", rec.DocID)
			return cached, loaded, nil
		}
	}

	qvec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query: %w", ErrEmbedding, err)
	}

	res := retrieval.TopK(qvec, rec.Vectors, k)

	// Confidence guardrail: a weak best match means we refuse instead of
	// letting the model guess. No generation call is made.
	if len(res.Top) == 0 || res.Top[0].Score < s.cfg.Pipeline.MinSimilarity {
		logger.Info("retrieval below confidence threshold", "doc_id", rec.DocID,
			"best", bestScore(res), "min", s.cfg.Pipeline.MinSimilarity)
		return &model.Answer{Text: grounding.GuardrailRefusal, Grounded: false}, loaded, nil
	}

	topChunks := make([]model.Chunk, 0, len(res.Top))
	sources := make([]model.SourceRef, 0, len(res.Top))
	for _, r := range res.Top {
		c := rec.ChunkByID(r.ID)
		if c == nil {
			continue
		}
		topChunks = append(topChunks, *c)
		sources = append(sources, sourceRef(*c, r.Score))
	}

	messages := grounding.BuildPrompt(question, topChunks, mode)
	text, err := s.generator.Complete(ctx, messages, ai.GenerateOptions{
		Temperature: mode.Temperature(),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	verdict := grounding.Verify(text, func(id string) bool {
		return rec.ChunkByID(id) != nil
	})
	if !verdict.Grounded {
		logger.Info("response had no valid citation; refusing", "doc_id", rec.DocID)
	}

	answer := &model.Answer{
		Text:      verdict.Text,
		Grounded:  verdict.Grounded,
		Citations: verdict.Citations,
		Focus:     verdict.Focus,
		Sources:   sources,
	}
	if answer.Grounded && s.answers != nil {
		if err := s.answers.Set(ctx, rec.DocID, string(mode), question, k, answer); err != nil {
			logger.Warn("answer cache write failed", "error", err)
		}
	}
	return answer, loaded, nil
}

// resolveRecord returns the record to query: the open session when it
// matches, otherwise a load from the store. The second return is non-nil
// when a new session was loaded and may be bound by the caller.
func (s *QAService) resolveRecord(ctx context.Context, fileName string) (*model.DocumentRecord, *DocumentSession, error) {
	fileName = strings.TrimSpace(fileName)
	if sess := s.Session(); sess != nil && (fileName == "" || sess.Record.FileName == fileName) {
		return sess.Record, nil, nil
	}
	if fileName == "" {
		return nil, nil, ErrNoDocument
	}
	rec, err := s.store.Load(ctx, fileName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoDocument, fileName)
		}
		return nil, nil, err
	}
	return rec, newDocumentSession(rec), nil
}

// Documents lists the ingested documents, most recent first.
func (s *QAService) Documents(ctx context.Context) ([]model.DocumentInfo, error) {
	return s.store.List(ctx)
}

// Session returns the active document session, or nil.
func (s *QAService) Session() *DocumentSession {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return s.session
}

func (s *QAService) setSession(sess *DocumentSession) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	s.session = sess
}

// Chunks exposes the active document's chunks for evidence re-inspection.
func (s *QAService) Chunks() []model.SourceRef {
	sess := s.Session()
	if sess == nil {
		return nil
	}
	out := make([]model.SourceRef, len(sess.Record.Chunks))
	for i, c := range sess.Record.Chunks {
		out[i] = sourceRef(c, 0)
	}
	return out
}

// Clear wipes all persisted documents and closes the session.
func (s *QAService) Clear(ctx context.Context) error {
	epoch, err := s.guard.acquire("clearing")
	if err != nil {
		return err
	}
	defer s.guard.release(epoch)

	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	if s.answers != nil {
		if err := s.answers.Clear(ctx); err != nil {
			logger.Warn("answer cache clear failed", "error", err)
		}
	}
	s.setSession(nil)
	logger.Info("cleared all local data")
	return nil
}

// Busy reports whether an operation is in progress and its label.
func (s *QAService) Busy() (bool, string) {
	return s.guard.state()
}

func sourceRef(c model.Chunk, score float64) model.SourceRef {
	preview := c.Text
	if runes := []rune(preview); len(runes) > sourcePreviewLen {
		preview = string(runes[:sourcePreviewLen]) + " …"
	}
	return model.SourceRef{
		ID:        c.ID,
		Page:      c.Page,
		CharStart: c.CharStart,
		CharEnd:   c.CharEnd,
		Score:     score,
		Preview:   preview,
	}
}

func clamp(v, fallback, min, max int) int {
	if v <= 0 {
		v = fallback
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}

func bestScore(res retrieval.Result) float64 {
	if len(res.Top) == 0 {
		return 0
	}
	return res.Top[0].Score
}
