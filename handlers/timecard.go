package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/submission"
	"p9e.in/fieldreport/pkg/wizard"
)

// TimeCardHandler serves time cards and their export
type TimeCardHandler struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewTimeCardHandler(db *gorm.DB, log *zap.Logger) *TimeCardHandler {
	return &TimeCardHandler{db: db, log: log.Named("timecard"), now: time.Now}
}

func (h *TimeCardHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var d wizard.TimeCardDraft
	if err := decodeJSON(r, &d); err != nil {
		writeAppError(w, r, err)
		return
	}
	if d.Mode == "" {
		d.Mode = submission.ModeCreate
	}
	if d.Mode == submission.ModeEdit {
		writeError(w, http.StatusBadRequest, "use PUT /api/v1/timecards/{id} to edit")
		return
	}
	if err := d.Validate(); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	card := d.ToModel(header(s, d.Header.ProjectID, h.now()))
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireProject(tx, s.OrgID, d.Header.ProjectID); err != nil {
			return err
		}
		if err := requireEmployees(tx, s.OrgID, timeCardWorkerIDs(d.Workers)); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&card).Error, "time card")
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.log.Info("time card submitted",
		zap.String("time_card_id", card.ID.String()),
		zap.String("work_date", card.WorkDate.String()),
		zap.Int("workers", len(card.Workers)))
	writeJSON(w, http.StatusCreated, map[string]any{"time_card": card})
}

// Update edits a stored card. Workers are matched by employee: those no
// longer selected are deactivated, kept ones get the new hours and new ones
// are inserted. The revision bump and row writes share one transaction.
func (h *TimeCardHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var d wizard.TimeCardDraft
	if err := decodeJSON(r, &d); err != nil {
		writeAppError(w, r, err)
		return
	}
	d.Mode = submission.ModeEdit
	d.SourceID = &id
	if err := d.Validate(); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	var changes submission.Result
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := findScoped[models.TimeCard](ctx, activeChildren(tx, "Workers"), s.OrgID, id, "time card")
		if err != nil {
			return err
		}
		if err := sameProject(stored.ProjectID, d.Header.ProjectID); err != nil {
			return err
		}
		if err := requireEmployees(tx, s.OrgID, timeCardWorkerIDs(d.Workers)); err != nil {
			return err
		}

		next := d.ToModel(stored.SubmissionHeader)
		next.Bump(models.JSONTime(h.now().UTC()))
		err = tx.Model(&models.TimeCard{}).Where("id = ?", id).Updates(map[string]any{
			"work_date":    next.WorkDate,
			"notes":        next.Notes,
			"revision":     next.Revision,
			"submitted_at": next.SubmittedAt,
		}).Error
		if err != nil {
			return apperr.FromDB(err, "time card")
		}

		changes, err = submission.Reconcile(tx, stored.Workers, next.Workers, timeCardWorkerKey, timeCardWorkerTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update workers")
		}
		return nil
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	card, err := h.load(ctx, s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.log.Info("time card edited",
		zap.String("time_card_id", id.String()),
		zap.Int("revision", card.Revision),
		zap.Any("changes", changes))
	writeJSON(w, http.StatusOK, map[string]any{"time_card": card, "changes": changes})
}

// EditDraft returns the stored card as an edit-mode draft
func (h *TimeCardHandler) EditDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	card, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": wizard.TimeCardDraftForEdit(card)})
}

func (h *TimeCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	card, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"time_card": card})
}

func (h *TimeCardHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	cards, err := listByProject[models.TimeCard](r.Context(), h.db, s.OrgID, projectID, parsePage(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"time_cards": cards})
}

// Latest returns the caller's newest card on the project, or null
func (h *TimeCardHandler) Latest(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	latest, err := latestByCaller[models.TimeCard](r.Context(), h.db, s, projectID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusOK, map[string]any{"time_card": nil})
		return
	}
	card, err := h.load(r.Context(), s.OrgID, latest.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"time_card": card})
}

func (h *TimeCardHandler) load(ctx context.Context, orgID, id uuid.UUID) (models.TimeCard, error) {
	db := activeChildren(h.db, "Workers").Preload("Workers.Employee")
	return findScoped[models.TimeCard](ctx, db, orgID, id, "time card")
}

func timeCardWorkerIDs(ws []wizard.WorkerHours) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ws))
	for _, w := range ws {
		ids = append(ids, w.EmployeeID)
	}
	return ids
}

func timeCardWorkerKey(w models.TimeCardWorker) (uuid.UUID, bool) {
	return w.EmployeeID, w.EmployeeID != uuid.Nil
}

func timeCardWorkerTable(cardID uuid.UUID) submission.Table[models.TimeCardWorker] {
	return submission.Table[models.TimeCardWorker]{
		Model: &models.TimeCardWorker{},
		ID:    func(w models.TimeCardWorker) uuid.UUID { return w.ID },
		Columns: func(w models.TimeCardWorker) map[string]any {
			return map[string]any{"hours": w.Hours, "cost_code": w.CostCode}
		},
		Prepare: func(w *models.TimeCardWorker) {
			w.ID = uuid.Nil
			w.TimeCardID = cardID
			w.IsActive = true
		},
		Equal: func(old, new models.TimeCardWorker) bool {
			return old.Hours == new.Hours && old.CostCode == new.CostCode
		},
	}
}
