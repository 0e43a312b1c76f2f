package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type TextChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.TextChunk) ([]*types.TextChunk, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.TextChunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TextChunk, error)
}

type textChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTextChunkRepo(db *gorm.DB, baseLog *logger.Logger) TextChunkRepo {
	return &textChunkRepo{db: db, log: baseLog.With("repo", "TextChunkRepo")}
}

func (r *textChunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.TextChunk) ([]*types.TextChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.TextChunk{}, nil
	}

	// Keep batches small because Text is large.
	const batchSize = 100
	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *textChunkRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.TextChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TextChunk
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order(`"index" ASC`).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *textChunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TextChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TextChunk
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
