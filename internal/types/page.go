package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Extraction methods for a page.
const (
	PageMethodNative = "native"
	PageMethodOCR    = "ocr"
)

type Page struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Number     int            `gorm:"column:number;not null" json:"number"`
	Text       string         `gorm:"column:text" json:"text"`
	Method     string         `gorm:"column:method;not null" json:"method"`
	Confidence float64        `gorm:"column:confidence" json:"confidence"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Page) TableName() string { return "page" }
