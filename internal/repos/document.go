package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Document, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, failureReason string) error
	UpdateCounters(ctx context.Context, tx *gorm.DB, id uuid.UUID, pageCount, skippedPages, unparsedRows, unknownCost int) error
	ClaimNextUploaded(ctx context.Context) (*types.Document, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.Document
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, failureReason string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]any{"status": status}
	if failureReason != "" {
		updates["failure_reason"] = failureReason
	}
	return transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentRepo) UpdateCounters(ctx context.Context, tx *gorm.DB, id uuid.UUID, pageCount, skippedPages, unparsedRows, unknownCost int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"page_count":           pageCount,
			"skipped_pages":        skippedPages,
			"unparsed_rows":        unparsedRows,
			"unknown_cost_entries": unknownCost,
		}).Error
}

// ClaimNextUploaded atomically moves the oldest uploaded document to
// validating and returns it. Returns (nil, nil) when the queue is empty.
// SKIP LOCKED keeps concurrent workers from claiming the same document.
func (r *documentRepo) ClaimNextUploaded(ctx context.Context) (*types.Document, error) {
	var claimed *types.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc types.Document
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", types.DocumentStatusUploaded).
			Order("created_at ASC").
			Limit(1).
			Find(&doc).Error; err != nil {
			return err
		}
		if doc.ID == uuid.Nil {
			return nil
		}
		if err := tx.Model(&types.Document{}).
			Where("id = ?", doc.ID).
			Update("status", types.DocumentStatusValidating).Error; err != nil {
			return err
		}
		doc.Status = types.DocumentStatusValidating
		claimed = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
