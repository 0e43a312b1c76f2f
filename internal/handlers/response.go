// Package handlers is the gin HTTP surface. Handlers stay thin: bind, call
// a service, map typed errors to statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/apierr"
	"github.com/yungbote/blueprint-backend/internal/ingestion"
	"github.com/yungbote/blueprint-backend/internal/rag"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// classify maps service-layer error types onto API statuses. Unrecognized
// errors stay opaque 500s.
func classify(err error) *apierr.Error {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var vErr *ingestion.ValidationError
	if errors.As(err, &vErr) {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidationFailed, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.New(http.StatusNotFound, apierr.CodeNotFound, errors.New("document not found"))
	}
	var rErr *rag.RetrievalError
	if errors.As(err, &rErr) {
		return apierr.New(http.StatusBadGateway, apierr.CodeRetrievalFailed, err)
	}
	var gErr *rag.GenerationError
	if errors.As(err, &gErr) {
		return apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailed, err)
	}
	return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
}

// RespondServiceError classifies err and writes the envelope.
func RespondServiceError(c *gin.Context, err error) {
	mapped := classify(err)
	RespondError(c, mapped.Status, mapped.Code, mapped)
}
