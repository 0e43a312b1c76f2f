package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/blueprint-backend/internal/services"
)

type QueryHandler struct {
	search services.SearchService
	chat   services.ChatService
}

func NewQueryHandler(search services.SearchService, chat services.ChatService) *QueryHandler {
	return &QueryHandler{search: search, chat: chat}
}

type SearchRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

type AskRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
}

type ChatRequest struct {
	SessionID  string `json:"session_id"`
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
}

func requireQuery(c *gin.Context, query string) bool {
	if strings.TrimSpace(query) == "" {
		RespondError(c, http.StatusBadRequest, "missing_query", fmt.Errorf("query must not be empty"))
		return false
	}
	return true
}

// POST /api/search
func (h *QueryHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if !requireQuery(c, req.Query) {
		return
	}

	results, err := h.search.Search(c.Request.Context(), req.Query, req.DocumentID, req.TopK)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

// POST /api/ask
func (h *QueryHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if !requireQuery(c, req.Query) {
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), req.Query, req.DocumentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, answer)
}

// POST /api/chat
func (h *QueryHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if !requireQuery(c, req.Query) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		RespondError(c, http.StatusBadRequest, "missing_session", fmt.Errorf("session_id must not be empty"))
		return
	}

	answer, err := h.chat.Chat(c.Request.Context(), req.SessionID, req.Query, req.DocumentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, answer)
}
