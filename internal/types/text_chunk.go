package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chunk kinds. Schedule chunks hold serialized schedule rows and are never
// split mid-row; narrative chunks hold the residual prose.
const (
	ChunkKindNarrative = "narrative"
	ChunkKindSchedule  = "schedule"
)

type TextChunk struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Index      int            `gorm:"column:index;not null" json:"index"`
	PageStart  int            `gorm:"column:page_start;not null" json:"page_start"`
	PageEnd    int            `gorm:"column:page_end;not null" json:"page_end"`
	Kind       string         `gorm:"column:kind;not null;default:'narrative'" json:"kind"`
	Text       string         `gorm:"column:text;not null" json:"text"`
	CharLen    int            `gorm:"column:char_len;not null" json:"char_len"`
	Overlap    int            `gorm:"column:overlap;not null" json:"overlap"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (TextChunk) TableName() string { return "text_chunk" }
