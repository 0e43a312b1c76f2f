// Package services exposes the application's core surfaces to the HTTP
// layer: upload/status, cost estimates, search, and chat.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/ingestion"
	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/platform/localstore"
	"github.com/yungbote/blueprint-backend/internal/repos"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type DocumentService interface {
	// Ingest validates and persists an upload, then returns immediately.
	// The background worker claims the document and runs the pipeline;
	// callers poll Get until the status is ready or failed.
	Ingest(ctx context.Context, filename string, pdf []byte) (*types.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
}

type documentService struct {
	db        *gorm.DB
	log       *logger.Logger
	documents repos.DocumentRepo
	store     localstore.FileStore
	limits    ingestion.ValidationLimits
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	documents repos.DocumentRepo,
	store localstore.FileStore,
	limits ingestion.ValidationLimits,
) DocumentService {
	return &documentService{
		db:        db,
		log:       baseLog.With("service", "DocumentService"),
		documents: documents,
		store:     store,
		limits:    limits,
	}
}

func (s *documentService) Ingest(ctx context.Context, filename string, pdf []byte) (*types.Document, error) {
	if err := ingestion.ValidateUpload(filename, pdf, s.limits); err != nil {
		return nil, err
	}

	key, err := s.store.Save(pdf, ".pdf")
	if err != nil {
		s.log.Error("Ingest save failed", "filename", filename, "error", err)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &types.Document{
		ID:         uuid.New(),
		Filename:   filename,
		SizeBytes:  int64(len(pdf)),
		StorageKey: key,
		Status:     types.DocumentStatusUploaded,
	}
	if _, err := s.documents.Create(ctx, nil, doc); err != nil {
		s.log.Error("Ingest create failed", "filename", filename, "error", err)
		if delErr := s.store.Delete(key); delErr != nil {
			s.log.Warn("orphaned upload not removed", "storage_key", key, "error", delErr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.log.Info("Ingest accepted", "document_id", doc.ID, "filename", filename, "size_bytes", doc.SizeBytes)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	return s.documents.GetByID(ctx, nil, id)
}
