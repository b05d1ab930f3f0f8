package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Checklist item outcomes
const (
	CheckPass = "pass"
	CheckFail = "fail"
	CheckNA   = "na"
)

type ChecklistItem struct {
	Item   string `json:"item"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// EquipmentInspection is a single-row form; the checklist is stored as JSON.
type EquipmentInspection struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SubmissionHeader
	EquipmentName     string                             `gorm:"size:255;not null" json:"equipment_name"`
	EquipmentIDNumber string                             `gorm:"size:100" json:"equipment_id_number,omitempty"`
	Checklist         datatypes.JSONSlice[ChecklistItem] `gorm:"type:jsonb;not null" json:"checklist"`
	Passed            bool                               `gorm:"not null" json:"passed"`
	Notes             string                             `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time                          `json:"created_at"`
	UpdatedAt         time.Time                          `json:"updated_at"`
}

func (EquipmentInspection) TableName() string { return "equipment_inspections" }

// ChecklistPassed is true when no item failed
func ChecklistPassed(items []ChecklistItem) bool {
	for _, it := range items {
		if it.Status == CheckFail {
			return false
		}
	}
	return true
}
