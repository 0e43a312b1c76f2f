package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
	schedules services.ScheduleService

	// MaxUploadBytes bounds the multipart read before validation sees it.
	MaxUploadBytes int64
}

func NewDocumentHandler(documents services.DocumentService, schedules services.ScheduleService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		documents:      documents,
		schedules:      schedules,
		MaxUploadBytes: maxUploadBytes,
	}
}

// POST /api/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("multipart field %q required", "file"))
		return
	}
	if h.MaxUploadBytes > 0 && fileHeader.Size > h.MaxUploadBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("file exceeds %d bytes", h.MaxUploadBytes))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	doc, err := h.documents.Ingest(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, doc)
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid document id"))
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, doc)
}

// GET /api/documents/:id/cost-estimate
func (h *DocumentHandler) CostEstimate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid document id"))
		return
	}
	estimate, err := h.schedules.CostEstimate(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, estimate)
}

// GET /api/documents/:id/entries
func (h *DocumentHandler) Entries(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid document id"))
		return
	}
	entries, err := h.schedules.Entries(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}
