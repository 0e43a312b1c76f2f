package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type PageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pages []*types.Page) ([]*types.Page, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Page, error)
}

type pageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPageRepo(db *gorm.DB, baseLog *logger.Logger) PageRepo {
	return &pageRepo{db: db, log: baseLog.With("repo", "PageRepo")}
}

func (r *pageRepo) Create(ctx context.Context, tx *gorm.DB, pages []*types.Page) ([]*types.Page, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(pages) == 0 {
		return []*types.Page{}, nil
	}

	// Page text can be large, keep batches small.
	const batchSize = 50
	if err := transaction.WithContext(ctx).CreateInBatches(pages, batchSize).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *pageRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Page, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Page
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
