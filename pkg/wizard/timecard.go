package wizard

import (
	"strings"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/submission"
)

// WorkerHours is one crew line on a time card
type WorkerHours struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Hours      float64   `json:"hours"`
	CostCode   string    `json:"cost_code,omitempty"`
}

type TimeCardHeader struct {
	ProjectID uuid.UUID   `json:"project_id"`
	WorkDate  models.Date `json:"work_date"`
	Notes     string      `json:"notes,omitempty"`
}

// TimeCardDraft is the serializable state of a time-card flow
type TimeCardDraft struct {
	Mode     submission.Mode `json:"mode"`
	SourceID *uuid.UUID      `json:"source_id,omitempty"`
	Header   TimeCardHeader  `json:"header"`
	Workers  []WorkerHours   `json:"workers"`
}

func NewTimeCardDraft() TimeCardDraft {
	return TimeCardDraft{Mode: submission.ModeCreate}
}

func (d TimeCardDraft) clone() TimeCardDraft {
	out := d
	out.Workers = append([]WorkerHours(nil), d.Workers...)
	return out
}

func (d TimeCardDraft) index(employeeID uuid.UUID) int {
	for i, w := range d.Workers {
		if w.EmployeeID == employeeID {
			return i
		}
	}
	return -1
}

func (d TimeCardDraft) WithHeader(h TimeCardHeader) (TimeCardDraft, error) {
	if h.ProjectID == uuid.Nil {
		return d, apperr.Validation("project_id is required")
	}
	if h.WorkDate.IsZero() {
		return d, apperr.Validation("work_date is required")
	}
	out := d.clone()
	h.Notes = strings.TrimSpace(h.Notes)
	out.Header = h
	return out, nil
}

// AddWorker selects a crew member starting at the given hours, snapped to
// the half-hour grid. Adding someone already selected is a no-op.
func (d TimeCardDraft) AddWorker(employeeID uuid.UUID, hours float64) (TimeCardDraft, error) {
	if employeeID == uuid.Nil {
		return d, apperr.Validation("employee_id is required")
	}
	if d.index(employeeID) >= 0 {
		return d, nil
	}
	out := d.clone()
	out.Workers = append(out.Workers, WorkerHours{EmployeeID: employeeID, Hours: SnapHours(hours)})
	return out, nil
}

func (d TimeCardDraft) RemoveWorker(employeeID uuid.UUID) (TimeCardDraft, error) {
	i := d.index(employeeID)
	if i < 0 {
		return d, nil
	}
	out := d.clone()
	out.Workers = append(out.Workers[:i], out.Workers[i+1:]...)
	return out, nil
}

// AdjustHours applies one +/- press to a selected worker
func (d TimeCardDraft) AdjustHours(employeeID uuid.UUID, delta float64) (TimeCardDraft, error) {
	i := d.index(employeeID)
	if i < 0 {
		return d, apperr.Validation("employee %s is not on this time card", employeeID)
	}
	out := d.clone()
	out.Workers[i].Hours = AdjustHours(out.Workers[i].Hours, delta)
	return out, nil
}

func (d TimeCardDraft) WithCostCode(employeeID uuid.UUID, code string) (TimeCardDraft, error) {
	i := d.index(employeeID)
	if i < 0 {
		return d, apperr.Validation("employee %s is not on this time card", employeeID)
	}
	out := d.clone()
	out.Workers[i].CostCode = strings.TrimSpace(code)
	return out, nil
}

func (d TimeCardDraft) Validate() error {
	if d.Header.ProjectID == uuid.Nil {
		return apperr.Validation("project_id is required")
	}
	if d.Header.WorkDate.IsZero() {
		return apperr.Validation("work_date is required")
	}
	if len(d.Workers) == 0 {
		return apperr.Validation("at least one worker must be selected")
	}
	seen := make(map[uuid.UUID]bool, len(d.Workers))
	for _, w := range d.Workers {
		if w.EmployeeID == uuid.Nil {
			return apperr.Validation("employee_id is required")
		}
		if seen[w.EmployeeID] {
			return apperr.Validation("employee %s is listed twice", w.EmployeeID)
		}
		seen[w.EmployeeID] = true
		if !ValidHours(w.Hours) {
			return apperr.Validation("hours %.2f must be a half-hour step between %.0f and %.0f", w.Hours, MinHours, MaxHours)
		}
	}
	if d.Mode == submission.ModeDuplicate {
		return apperr.Validation("time cards cannot be duplicated")
	}
	if d.Mode == submission.ModeEdit && d.SourceID == nil {
		return apperr.Validation("source_id is required when editing")
	}
	return nil
}

func (d TimeCardDraft) ToModel(header models.SubmissionHeader) models.TimeCard {
	card := models.TimeCard{
		SubmissionHeader: header,
		WorkDate:         d.Header.WorkDate,
		Notes:            d.Header.Notes,
	}
	card.ProjectID = d.Header.ProjectID
	for _, w := range d.Workers {
		card.Workers = append(card.Workers, models.TimeCardWorker{
			EmployeeID: w.EmployeeID,
			Hours:      w.Hours,
			CostCode:   w.CostCode,
			IsActive:   true,
		})
	}
	return card
}

// TimeCardDraftForEdit loads the active rows of a stored card
func TimeCardDraftForEdit(card models.TimeCard) TimeCardDraft {
	src := card.ID
	d := TimeCardDraft{
		Mode:     submission.ModeEdit,
		SourceID: &src,
		Header: TimeCardHeader{
			ProjectID: card.ProjectID,
			WorkDate:  card.WorkDate,
			Notes:     card.Notes,
		},
	}
	for _, w := range card.Workers {
		if w.IsActive {
			d.Workers = append(d.Workers, WorkerHours{EmployeeID: w.EmployeeID, Hours: w.Hours, CostCode: w.CostCode})
		}
	}
	return d
}
