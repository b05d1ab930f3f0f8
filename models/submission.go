package models

import (
	"github.com/google/uuid"
)

// SubmissionHeader is embedded in every submitted form header row.
// Revision counts edits (0 on create) and is for display only.
type SubmissionHeader struct {
	OrgID                 uuid.UUID `gorm:"type:uuid;not null;index" json:"org_id"`
	ProjectID             uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	SubmittedByEmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"submitted_by_employee_id"`
	Revision              int       `gorm:"not null;default:0" json:"revision"`
	SubmittedAt           JSONTime  `gorm:"not null" json:"submitted_at"`
}

// Bump increments the revision and stamps the new submission time
func (h *SubmissionHeader) Bump(at JSONTime) {
	h.Revision++
	h.SubmittedAt = at
}
