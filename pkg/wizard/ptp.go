// Package wizard holds the draft values behind the multi-step forms. A
// draft is the whole accumulated answer set for one flow; every step is a
// pure function that returns a new draft and never mutates its input.
package wizard

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/submission"
)

// TaskInput is one task row of a PTP. ID is set for tasks loaded from a
// stored submission being edited.
type TaskInput struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Description string     `json:"description"`
	Hazards     []string   `json:"hazards"`
	Controls    []string   `json:"controls"`
}

// WorkerSignature is one crew member on a PTP
type WorkerSignature struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	SignaturePath string    `json:"signature_path,omitempty"`
}

// PTPHeader is the first page of the PTP flow
type PTPHeader struct {
	ProjectID      uuid.UUID   `json:"project_id"`
	WorkDate       models.Date `json:"work_date"`
	Location       string      `json:"location,omitempty"`
	SupervisorName string      `json:"supervisor_name,omitempty"`
}

// PTPDraft is the serializable state of a pre-task plan flow
type PTPDraft struct {
	Mode     submission.Mode   `json:"mode"`
	SourceID *uuid.UUID        `json:"source_id,omitempty"`
	Header   PTPHeader         `json:"header"`
	Tasks    []TaskInput       `json:"tasks"`
	Workers  []WorkerSignature `json:"workers"`
	Photos   []string          `json:"photos"`
}

// NewPTPDraft starts an empty create-mode draft
func NewPTPDraft() PTPDraft {
	return PTPDraft{Mode: submission.ModeCreate}
}

func (d PTPDraft) clone() PTPDraft {
	out := d
	out.Tasks = make([]TaskInput, len(d.Tasks))
	for i, t := range d.Tasks {
		t.Hazards = append([]string(nil), t.Hazards...)
		t.Controls = append([]string(nil), t.Controls...)
		out.Tasks[i] = t
	}
	out.Workers = append([]WorkerSignature(nil), d.Workers...)
	out.Photos = append([]string(nil), d.Photos...)
	return out
}

func (d PTPDraft) WithHeader(h PTPHeader) (PTPDraft, error) {
	if h.ProjectID == uuid.Nil {
		return d, apperr.Validation("project_id is required")
	}
	if h.WorkDate.IsZero() {
		return d, apperr.Validation("work_date is required")
	}
	out := d.clone()
	h.Location = strings.TrimSpace(h.Location)
	h.SupervisorName = strings.TrimSpace(h.SupervisorName)
	out.Header = h
	return out, nil
}

// WithTasks replaces the task list. Blank hazard and control entries are
// dropped; a task with no description is rejected.
func (d PTPDraft) WithTasks(tasks []TaskInput) (PTPDraft, error) {
	out := d.clone()
	out.Tasks = make([]TaskInput, 0, len(tasks))
	for i, t := range tasks {
		t.Description = strings.TrimSpace(t.Description)
		if t.Description == "" {
			return d, apperr.Validation("task %d has no description", i+1)
		}
		t.Hazards = compact(t.Hazards)
		t.Controls = compact(t.Controls)
		out.Tasks = append(out.Tasks, t)
	}
	return out, nil
}

// WithWorkers replaces the crew selection, keeping any signature already
// captured for a worker who stays selected.
func (d PTPDraft) WithWorkers(ids []uuid.UUID) (PTPDraft, error) {
	signed := make(map[uuid.UUID]string, len(d.Workers))
	for _, w := range d.Workers {
		signed[w.EmployeeID] = w.SignaturePath
	}
	out := d.clone()
	out.Workers = out.Workers[:0]
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return d, apperr.Validation("worker id is required")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out.Workers = append(out.Workers, WorkerSignature{EmployeeID: id, SignaturePath: signed[id]})
	}
	return out, nil
}

// WithSignature attaches an uploaded signature to a selected worker
func (d PTPDraft) WithSignature(employeeID uuid.UUID, path string) (PTPDraft, error) {
	out := d.clone()
	for i := range out.Workers {
		if out.Workers[i].EmployeeID == employeeID {
			out.Workers[i].SignaturePath = strings.TrimSpace(path)
			return out, nil
		}
	}
	return d, apperr.Validation("employee %s is not on this PTP", employeeID)
}

func (d PTPDraft) WithPhotos(paths []string) (PTPDraft, error) {
	out := d.clone()
	out.Photos = compact(paths)
	return out, nil
}

// Validate is the presence check run before the final submit
func (d PTPDraft) Validate() error {
	if d.Header.ProjectID == uuid.Nil {
		return apperr.Validation("project_id is required")
	}
	if d.Header.WorkDate.IsZero() {
		return apperr.Validation("work_date is required")
	}
	if len(d.Tasks) == 0 {
		return apperr.Validation("at least one task is required")
	}
	if len(d.Workers) == 0 {
		return apperr.Validation("at least one worker must be selected")
	}
	tasks := make(map[uuid.UUID]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == nil {
			continue
		}
		if tasks[*t.ID] {
			return apperr.Validation("task %s is listed twice", *t.ID)
		}
		tasks[*t.ID] = true
	}
	workers := make(map[uuid.UUID]bool, len(d.Workers))
	for _, w := range d.Workers {
		if w.EmployeeID == uuid.Nil {
			return apperr.Validation("worker employee_id is required")
		}
		if workers[w.EmployeeID] {
			return apperr.Validation("employee %s is selected twice", w.EmployeeID)
		}
		workers[w.EmployeeID] = true
	}
	if d.Mode == submission.ModeEdit && d.SourceID == nil {
		return apperr.Validation("source_id is required when editing")
	}
	return nil
}

// ToModel builds the header and children for a submit. Child rows carry no
// parent id yet.
func (d PTPDraft) ToModel(header models.SubmissionHeader) models.PreTaskPlan {
	ptp := models.PreTaskPlan{
		SubmissionHeader: header,
		WorkDate:         d.Header.WorkDate,
		Location:         d.Header.Location,
		SupervisorName:   d.Header.SupervisorName,
	}
	ptp.ProjectID = d.Header.ProjectID
	if d.Mode == submission.ModeDuplicate {
		ptp.DuplicatedFromID = d.SourceID
	}
	for i, t := range d.Tasks {
		row := models.PTPTask{
			Description: t.Description,
			Hazards:     t.Hazards,
			Controls:    t.Controls,
			SortOrder:   i,
			IsActive:    true,
		}
		if t.ID != nil && d.Mode == submission.ModeEdit {
			row.ID = *t.ID
		}
		ptp.Tasks = append(ptp.Tasks, row)
	}
	for _, w := range d.Workers {
		ptp.Workers = append(ptp.Workers, models.PTPWorker{
			EmployeeID:    w.EmployeeID,
			SignaturePath: w.SignaturePath,
			IsActive:      true,
		})
	}
	for _, p := range d.Photos {
		ptp.Photos = append(ptp.Photos, models.PTPPhoto{StoragePath: p, IsActive: true})
	}
	return ptp
}

// PTPDraftForEdit loads a stored PTP into an edit-mode draft
func PTPDraftForEdit(ptp models.PreTaskPlan) PTPDraft {
	d := draftFromPTP(ptp, true)
	d.Mode = submission.ModeEdit
	return d
}

// PTPDraftForDuplicate seeds a new create flow from a prior submission. Task
// ids, signatures and photos are not carried over: the crew signs again and
// the new day gets its own photos.
func PTPDraftForDuplicate(ptp models.PreTaskPlan, workDate time.Time) PTPDraft {
	d := draftFromPTP(ptp, false)
	d.Mode = submission.ModeDuplicate
	d.Header.WorkDate = models.NewDate(workDate)
	for i := range d.Workers {
		d.Workers[i].SignaturePath = ""
	}
	d.Photos = nil
	return d
}

func draftFromPTP(ptp models.PreTaskPlan, keepIDs bool) PTPDraft {
	src := ptp.ID
	d := PTPDraft{
		SourceID: &src,
		Header: PTPHeader{
			ProjectID:      ptp.ProjectID,
			WorkDate:       ptp.WorkDate,
			Location:       ptp.Location,
			SupervisorName: ptp.SupervisorName,
		},
	}
	for _, t := range ptp.Tasks {
		if !t.IsActive {
			continue
		}
		in := TaskInput{
			Description: t.Description,
			Hazards:     append([]string(nil), t.Hazards...),
			Controls:    append([]string(nil), t.Controls...),
		}
		if keepIDs {
			id := t.ID
			in.ID = &id
		}
		d.Tasks = append(d.Tasks, in)
	}
	for _, w := range ptp.Workers {
		if !w.IsActive {
			continue
		}
		d.Workers = append(d.Workers, WorkerSignature{EmployeeID: w.EmployeeID, SignaturePath: w.SignaturePath})
	}
	for _, p := range ptp.Photos {
		if p.IsActive {
			d.Photos = append(d.Photos, p.StoragePath)
		}
	}
	return d
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
