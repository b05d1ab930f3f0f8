package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/submission"
	"p9e.in/fieldreport/pkg/wizard"
)

type laborInput struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Hours      float64   `json:"hours"`
}

type materialInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
}

type extraWorkRequest struct {
	ProjectID   uuid.UUID       `json:"project_id"`
	WorkDate    models.Date     `json:"work_date"`
	Description string          `json:"description"`
	GCContact   string          `json:"gc_contact,omitempty"`
	Labor       []laborInput    `json:"labor"`
	Materials   []materialInput `json:"materials"`
}

func (req *extraWorkRequest) validate() error {
	req.Description = strings.TrimSpace(req.Description)
	if req.ProjectID == uuid.Nil {
		return apperr.Validation("project_id is required")
	}
	if req.WorkDate.IsZero() {
		return apperr.Validation("work_date is required")
	}
	if req.Description == "" {
		return apperr.Validation("description is required")
	}
	if len(req.Labor)+len(req.Materials) == 0 {
		return apperr.Validation("at least one labor or material line is required")
	}
	seen := map[uuid.UUID]bool{}
	for _, l := range req.Labor {
		if l.EmployeeID == uuid.Nil {
			return apperr.Validation("labor line is missing employee_id")
		}
		if seen[l.EmployeeID] {
			return apperr.Validation("employee %s is listed twice", l.EmployeeID)
		}
		seen[l.EmployeeID] = true
		if !wizard.ValidHours(l.Hours) {
			return apperr.Validation("hours %.2f must be a half-hour step between %.0f and %.0f", l.Hours, wizard.MinHours, wizard.MaxHours)
		}
	}
	for i, m := range req.Materials {
		if strings.TrimSpace(m.Description) == "" {
			return apperr.Validation("material %d has no description", i+1)
		}
		if m.Quantity <= 0 {
			return apperr.Validation("material %q needs a positive quantity", m.Description)
		}
	}
	return nil
}

func (req extraWorkRequest) model(h models.SubmissionHeader) models.ExtraWorkTicket {
	t := models.ExtraWorkTicket{
		SubmissionHeader: h,
		WorkDate:         req.WorkDate,
		Description:      req.Description,
		GCContact:        strings.TrimSpace(req.GCContact),
	}
	for _, l := range req.Labor {
		t.Labor = append(t.Labor, models.ExtraWorkLabor{EmployeeID: l.EmployeeID, Hours: l.Hours, IsActive: true})
	}
	for _, m := range req.Materials {
		t.Materials = append(t.Materials, models.ExtraWorkMaterial{
			Description: strings.TrimSpace(m.Description),
			Quantity:    m.Quantity,
			Unit:        strings.TrimSpace(m.Unit),
		})
	}
	return t
}

func (req extraWorkRequest) employeeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(req.Labor))
	for _, l := range req.Labor {
		ids = append(ids, l.EmployeeID)
	}
	return ids
}

// ExtraWorkHandler serves extra-work tickets
type ExtraWorkHandler struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewExtraWorkHandler(db *gorm.DB, log *zap.Logger) *ExtraWorkHandler {
	return &ExtraWorkHandler{db: db, log: log.Named("extra_work"), now: time.Now}
}

func (h *ExtraWorkHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var req extraWorkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeAppError(w, r, err)
		return
	}

	ticket := req.model(header(s, req.ProjectID, h.now()))
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if _, err := requireProject(tx, s.OrgID, req.ProjectID); err != nil {
			return err
		}
		if err := requireEmployees(tx, s.OrgID, req.employeeIDs()); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&ticket).Error, "extra-work ticket")
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.log.Info("extra-work ticket submitted",
		zap.String("ticket_id", ticket.ID.String()),
		zap.Int("labor_lines", len(ticket.Labor)))
	writeJSON(w, http.StatusCreated, map[string]any{"extra_work": ticket})
}

// Update reconciles labor by employee like time-card workers. Material
// lines carry no history and are replaced.
func (h *ExtraWorkHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var req extraWorkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	var changes submission.Result
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := findScoped[models.ExtraWorkTicket](ctx, activeChildren(tx, "Labor"), s.OrgID, id, "extra-work ticket")
		if err != nil {
			return err
		}
		if err := sameProject(stored.ProjectID, req.ProjectID); err != nil {
			return err
		}
		if err := requireEmployees(tx, s.OrgID, req.employeeIDs()); err != nil {
			return err
		}

		next := req.model(stored.SubmissionHeader)
		next.Bump(models.JSONTime(h.now().UTC()))
		err = tx.Model(&models.ExtraWorkTicket{}).Where("id = ?", id).Updates(map[string]any{
			"work_date":    next.WorkDate,
			"description":  next.Description,
			"gc_contact":   next.GCContact,
			"revision":     next.Revision,
			"submitted_at": next.SubmittedAt,
		}).Error
		if err != nil {
			return apperr.FromDB(err, "extra-work ticket")
		}

		changes, err = submission.Reconcile(tx, stored.Labor, next.Labor, laborKey, laborTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update labor")
		}

		if err := tx.Where("ticket_id = ?", id).Delete(&models.ExtraWorkMaterial{}).Error; err != nil {
			return apperr.FromDB(err, "extra-work materials")
		}
		for i := range next.Materials {
			next.Materials[i].TicketID = id
		}
		if len(next.Materials) > 0 {
			if err := tx.Create(&next.Materials).Error; err != nil {
				return apperr.FromDB(err, "extra-work materials")
			}
		}
		return nil
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	ticket, err := h.load(ctx, s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.log.Info("extra-work ticket edited",
		zap.String("ticket_id", id.String()),
		zap.Int("revision", ticket.Revision),
		zap.Any("changes", changes))
	writeJSON(w, http.StatusOK, map[string]any{"extra_work": ticket, "changes": changes})
}

func (h *ExtraWorkHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ticket, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extra_work": ticket})
}

func (h *ExtraWorkHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	list, err := listByProject[models.ExtraWorkTicket](r.Context(), h.db, s.OrgID, projectID, parsePage(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extra_work": list})
}

func (h *ExtraWorkHandler) load(ctx context.Context, orgID, id uuid.UUID) (models.ExtraWorkTicket, error) {
	db := activeChildren(h.db, "Labor").Preload("Materials")
	return findScoped[models.ExtraWorkTicket](ctx, db, orgID, id, "extra-work ticket")
}

func laborKey(l models.ExtraWorkLabor) (uuid.UUID, bool) { return l.EmployeeID, l.EmployeeID != uuid.Nil }

func laborTable(ticketID uuid.UUID) submission.Table[models.ExtraWorkLabor] {
	return submission.Table[models.ExtraWorkLabor]{
		Model:   &models.ExtraWorkLabor{},
		ID:      func(l models.ExtraWorkLabor) uuid.UUID { return l.ID },
		Columns: func(l models.ExtraWorkLabor) map[string]any { return map[string]any{"hours": l.Hours} },
		Prepare: func(l *models.ExtraWorkLabor) {
			l.ID = uuid.Nil
			l.TicketID = ticketID
			l.IsActive = true
		},
		Equal: func(old, new models.ExtraWorkLabor) bool { return old.Hours == new.Hours },
	}
}
