package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/model"
	"docchat/internal/platform/rabbitmq"
	"docchat/internal/transport/http/response"
)

type QAHandler struct {
	service    *app.QAService
	publisher  *rabbitmq.IngestPublisher // nil when async ingestion is disabled
	maxPDFSize int64
}

func NewQAHandler(service *app.QAService, publisher *rabbitmq.IngestPublisher, maxPDFSize int64) *QAHandler {
	return &QAHandler{
		service:    service,
		publisher:  publisher,
		maxPDFSize: maxPDFSize,
	}
}

type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	FileName  string `json:"file_name"`
	TopK      int    `json:"top_k"`
	MaxTokens int    `json:"max_tokens"`
	Mode      string `json:"mode"`
}

// UploadDocument accepts a multipart form with "file" (PDF) and ingests
// it synchronously.
func (h *QAHandler) UploadDocument(c *gin.Context) {
	fileName, pdfBytes, ok := h.readPDF(c)
	if !ok {
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), fileName, pdfBytes)
	if err != nil {
		h.writeServiceError(c, err, "ingest failed")
		return
	}
	response.OK(c, result)
}

// UploadDocumentAsync enqueues the PDF for background ingestion.
func (h *QAHandler) UploadDocumentAsync(c *gin.Context) {
	if h.publisher == nil {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "async ingestion is disabled")
		return
	}
	fileName, pdfBytes, ok := h.readPDF(c)
	if !ok {
		return
	}

	job := model.IngestJob{FileName: fileName, PDF: pdfBytes}
	if err := h.publisher.Publish(c.Request.Context(), job); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "enqueue ingest failed")
		return
	}
	response.OK(c, gin.H{"file_name": fileName, "queued": true})
}

func (h *QAHandler) ListDocuments(c *gin.Context) {
	docs, err := h.service.Documents(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	if docs == nil {
		docs = []model.DocumentInfo{}
	}
	response.OK(c, docs)
}

// ListChunks exposes the active document's chunk previews so a consumer
// can re-inspect cited evidence.
func (h *QAHandler) ListChunks(c *gin.Context) {
	chunks := h.service.Chunks()
	if chunks == nil {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "no embedded document yet")
		return
	}
	response.OK(c, chunks)
}

func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.service.Ask(c.Request.Context(), app.AskInput{
		FileName:  req.FileName,
		Question:  req.Question,
		TopK:      req.TopK,
		MaxTokens: req.MaxTokens,
		Mode:      req.Mode,
	})
	if err != nil {
		h.writeServiceError(c, err, "ask failed")
		return
	}
	response.OK(c, answer)
}

func (h *QAHandler) ClearAll(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		h.writeServiceError(c, err, "clear failed")
		return
	}
	response.OK(c, gin.H{"cleared": true})
}

func (h *QAHandler) readPDF(c *gin.Context) (string, []byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return "", nil, false
	}
	if file.Size > h.maxPDFSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return "", nil, false
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return "", nil, false
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return "", nil, false
	}
	defer f.Close()

	pdfBytes, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return "", nil, false
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = file.Filename
	}
	return name, pdfBytes, true
}

func (h *QAHandler) writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNoDocument):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrBusy):
		response.Error(c, http.StatusTooManyRequests, response.CodeBusy, err.Error())
	case errors.Is(err, app.ErrExtraction), errors.Is(err, app.ErrEmbedding), errors.Is(err, app.ErrGeneration):
		response.Error(c, http.StatusBadGateway, response.CodeInternalServer, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
