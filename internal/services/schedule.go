package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/repos"
	"github.com/yungbote/blueprint-backend/internal/schedule"
	"github.com/yungbote/blueprint-backend/internal/types"
)

type ScheduleService interface {
	// CostEstimate recomputes totals from the document's stored schedule
	// entries. It is never cached, so it cannot go stale.
	CostEstimate(ctx context.Context, documentID uuid.UUID) (*types.CostEstimate, error)
	Entries(ctx context.Context, documentID uuid.UUID) ([]*types.ScheduleEntry, error)
}

type scheduleService struct {
	db        *gorm.DB
	log       *logger.Logger
	documents repos.DocumentRepo
	entries   repos.ScheduleEntryRepo
}

func NewScheduleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	documents repos.DocumentRepo,
	entries repos.ScheduleEntryRepo,
) ScheduleService {
	return &scheduleService{
		db:        db,
		log:       baseLog.With("service", "ScheduleService"),
		documents: documents,
		entries:   entries,
	}
}

func (s *scheduleService) CostEstimate(ctx context.Context, documentID uuid.UUID) (*types.CostEstimate, error) {
	if _, err := s.documents.GetByID(ctx, nil, documentID); err != nil {
		return nil, err
	}
	entries, err := s.entries.GetByDocumentID(ctx, nil, documentID)
	if err != nil {
		return nil, fmt.Errorf("load schedule entries: %w", err)
	}
	return schedule.Estimate(documentID, entries), nil
}

func (s *scheduleService) Entries(ctx context.Context, documentID uuid.UUID) ([]*types.ScheduleEntry, error) {
	if _, err := s.documents.GetByID(ctx, nil, documentID); err != nil {
		return nil, err
	}
	return s.entries.GetByDocumentID(ctx, nil, documentID)
}
