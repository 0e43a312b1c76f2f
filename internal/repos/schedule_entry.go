package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type ScheduleEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.ScheduleEntry) ([]*types.ScheduleEntry, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.ScheduleEntry, error)
}

type scheduleEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleEntryRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleEntryRepo {
	return &scheduleEntryRepo{db: db, log: baseLog.With("repo", "ScheduleEntryRepo")}
}

func (r *scheduleEntryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ScheduleEntry) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return []*types.ScheduleEntry{}, nil
	}
	const batchSize = 100
	if err := transaction.WithContext(ctx).CreateInBatches(entries, batchSize).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *scheduleEntryRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ScheduleEntry
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("label ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
