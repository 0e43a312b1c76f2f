package types

import (
	"time"

	"github.com/google/uuid"
)

// Schedule item types.
const (
	ItemTypeDoor   = "door"
	ItemTypeWindow = "window"
)

// ScheduleEntry is one parsed door/window schedule row. Dimensions are stored
// in millimeters; AreaSqm and TotalCost are derived at parse time and never
// mutated afterwards. A nil UnitCost/TotalCost means the cost table had no
// entry for (ItemType, Material), which is distinct from a zero cost.
type ScheduleEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	ItemType   string    `gorm:"column:item_type;not null" json:"item_type"`
	Label      string    `gorm:"column:label;not null" json:"label"`
	WidthMM    float64   `gorm:"column:width_mm;not null" json:"width_mm"`
	HeightMM   float64   `gorm:"column:height_mm;not null" json:"height_mm"`
	Quantity   int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Material   string    `gorm:"column:material" json:"material"`
	UnitCost   *float64  `gorm:"column:unit_cost" json:"unit_cost,omitempty"`
	AreaSqm    float64   `gorm:"column:area_sqm;not null" json:"area_sqm"`
	TotalCost  *float64  `gorm:"column:total_cost" json:"total_cost,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ScheduleEntry) TableName() string { return "schedule_entry" }

// CostEstimate is derived on demand from the current ScheduleEntry set and is
// never persisted, so it cannot go stale relative to its source entries.
type CostEstimate struct {
	DocumentID         uuid.UUID        `json:"document_id"`
	TotalAreaSqm       float64          `json:"total_area_sqm"`
	TotalCost          float64          `json:"total_cost"`
	KnownCostEntries   int              `json:"known_cost_entries"`
	UnknownCostEntries int              `json:"unknown_cost_entries"`
	Entries            []*ScheduleEntry `json:"entries"`
}
