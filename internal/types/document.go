package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document ingestion states. A document is immutable once ready; failed is
// terminal. Re-uploading the same file creates a new Document row.
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusValidating = "validating"
	DocumentStatusExtracting = "extracting"
	DocumentStatusExtracted  = "extracted"
	DocumentStatusIndexing   = "indexing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Filename      string    `gorm:"column:filename;not null" json:"filename"`
	SizeBytes     int64     `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey    string    `gorm:"column:storage_key;not null" json:"storage_key"`
	PageCount     int       `gorm:"column:page_count" json:"page_count"`
	Status        string    `gorm:"column:status;not null;default:'uploaded'" json:"status"`
	FailureReason string    `gorm:"column:failure_reason" json:"failure_reason,omitempty"`

	// Partial-failure counters aggregated during ingestion.
	SkippedPages       int `gorm:"column:skipped_pages" json:"skipped_pages"`
	UnparsedRows       int `gorm:"column:unparsed_rows" json:"unparsed_rows"`
	UnknownCostEntries int `gorm:"column:unknown_cost_entries" json:"unknown_cost_entries"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// Terminal reports whether the document can no longer change state.
func (d *Document) Terminal() bool {
	return d.Status == DocumentStatusReady || d.Status == DocumentStatusFailed
}
