package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/submission"
	"p9e.in/fieldreport/pkg/wizard"
)

// PTPHandler serves pre-task plans
type PTPHandler struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewPTPHandler(db *gorm.DB, log *zap.Logger) *PTPHandler {
	return &PTPHandler{db: db, log: log.Named("ptp"), now: time.Now}
}

// Create stores a PTP from a finished draft. A draft in duplicate mode
// records the plan it was copied from.
func (h *PTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var d wizard.PTPDraft
	if err := decodeJSON(r, &d); err != nil {
		writeAppError(w, r, err)
		return
	}
	if d.Mode == "" {
		d.Mode = submission.ModeCreate
	}
	if !d.Mode.Inserts() {
		writeError(w, http.StatusBadRequest, "use PUT /api/v1/ptps/{id} to edit")
		return
	}
	if err := d.Validate(); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	ptp := d.ToModel(header(s, d.Header.ProjectID, h.now()))
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := requireProject(tx, s.OrgID, d.Header.ProjectID); err != nil {
			return err
		}
		if err := requireEmployees(tx, s.OrgID, ptpWorkerIDs(d.Workers)); err != nil {
			return err
		}
		if err := checkPaths(s.OrgID, ptpPaths(d)...); err != nil {
			return err
		}
		if d.Mode == submission.ModeDuplicate && d.SourceID != nil {
			if _, err := findScoped[models.PreTaskPlan](ctx, tx, s.OrgID, *d.SourceID, "source pre-task plan"); err != nil {
				return err
			}
		}
		return apperr.FromDB(tx.Create(&ptp).Error, "pre-task plan")
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.log.Info("pre-task plan submitted",
		zap.String("ptp_id", ptp.ID.String()),
		zap.String("mode", string(d.Mode)),
		zap.Int("workers", len(ptp.Workers)))
	writeJSON(w, http.StatusCreated, map[string]any{"ptp": ptp})
}

// Update edits a stored PTP: the header revision is bumped and workers,
// tasks and photos are reconciled against the draft in one transaction.
func (h *PTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var d wizard.PTPDraft
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
		stored, err := findScoped[models.PreTaskPlan](ctx, activeChildren(tx, "Tasks", "Workers", "Photos"), s.OrgID, id, "pre-task plan")
		if err != nil {
			return err
		}
		if err := sameProject(stored.ProjectID, d.Header.ProjectID); err != nil {
			return err
		}
		if err := requireEmployees(tx, s.OrgID, ptpWorkerIDs(d.Workers)); err != nil {
			return err
		}
		if err := checkPaths(s.OrgID, ptpPaths(d)...); err != nil {
			return err
		}

		next := d.ToModel(stored.SubmissionHeader)
		next.Bump(models.JSONTime(h.now().UTC()))
		err = tx.Model(&models.PreTaskPlan{}).Where("id = ?", id).Updates(map[string]any{
			"work_date":       next.WorkDate,
			"location":        next.Location,
			"supervisor_name": next.SupervisorName,
			"revision":        next.Revision,
			"submitted_at":    next.SubmittedAt,
		}).Error
		if err != nil {
			return apperr.FromDB(err, "pre-task plan")
		}

		workers, err := submission.Reconcile(tx, stored.Workers, next.Workers, ptpWorkerKey, ptpWorkerTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update workers")
		}
		tasks, err := submission.Reconcile(tx, stored.Tasks, next.Tasks, ptpTaskKey, ptpTaskTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update tasks")
		}
		photos, err := submission.Reconcile(tx, stored.Photos, next.Photos, ptpPhotoKey, ptpPhotoTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update photos")
		}
		changes = workers.Add(tasks).Add(photos)
		return nil
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	ptp, err := h.load(ctx, s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.log.Info("pre-task plan edited",
		zap.String("ptp_id", id.String()),
		zap.Int("revision", ptp.Revision),
		zap.Any("changes", changes))
	writeJSON(w, http.StatusOK, map[string]any{"ptp": ptp, "changes": changes})
}

// Duplicate returns a new draft seeded from a stored PTP. Nothing is
// written; the client submits the draft through Create.
func (h *PTPHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	workDate := h.now()
	if v := r.URL.Query().Get("work_date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid work_date")
			return
		}
		workDate = d.Time()
	}
	ptp, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": wizard.PTPDraftForDuplicate(ptp, workDate)})
}

// EditDraft returns the stored plan as an edit-mode draft
func (h *PTPHandler) EditDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ptp, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": wizard.PTPDraftForEdit(ptp)})
}

func (h *PTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ptp, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ptp": ptp})
}

// ListByProject returns headers only, newest first
func (h *PTPHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ptps, err := listByProject[models.PreTaskPlan](r.Context(), h.db, s.OrgID, projectID, parsePage(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ptps": ptps})
}

// Latest returns the caller's newest PTP on the project, or null
func (h *PTPHandler) Latest(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	latest, err := latestByCaller[models.PreTaskPlan](r.Context(), h.db, s, projectID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ptp": nil})
		return
	}
	ptp, err := h.load(r.Context(), s.OrgID, latest.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ptp": ptp})
}

func (h *PTPHandler) load(ctx context.Context, orgID, id uuid.UUID) (models.PreTaskPlan, error) {
	db := h.db.
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order")
		}).
		Preload("Workers", "is_active = ?", true).
		Preload("Workers.Employee").
		Preload("Photos", "is_active = ?", true)
	return findScoped[models.PreTaskPlan](ctx, db, orgID, id, "pre-task plan")
}

func ptpWorkerIDs(ws []wizard.WorkerSignature) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ws))
	for _, w := range ws {
		ids = append(ids, w.EmployeeID)
	}
	return ids
}

// ptpPaths lists every storage path the draft references
func ptpPaths(d wizard.PTPDraft) []string {
	paths := append([]string(nil), d.Photos...)
	for _, w := range d.Workers {
		if w.SignaturePath != "" {
			paths = append(paths, w.SignaturePath)
		}
	}
	return paths
}

func ptpWorkerKey(w models.PTPWorker) (uuid.UUID, bool) { return w.EmployeeID, w.EmployeeID != uuid.Nil }

func ptpTaskKey(t models.PTPTask) (uuid.UUID, bool) { return t.ID, t.ID != uuid.Nil }

func ptpPhotoKey(p models.PTPPhoto) (string, bool) { return p.StoragePath, p.StoragePath != "" }

func ptpWorkerTable(ptpID uuid.UUID) submission.Table[models.PTPWorker] {
	return submission.Table[models.PTPWorker]{
		Model: &models.PTPWorker{},
		ID:    func(w models.PTPWorker) uuid.UUID { return w.ID },
		Columns: func(w models.PTPWorker) map[string]any {
			return map[string]any{"signature_path": w.SignaturePath}
		},
		Prepare: func(w *models.PTPWorker) {
			w.ID = uuid.Nil
			w.PTPID = ptpID
			w.IsActive = true
		},
		Equal: func(old, new models.PTPWorker) bool { return old.SignaturePath == new.SignaturePath },
	}
}

func ptpTaskTable(ptpID uuid.UUID) submission.Table[models.PTPTask] {
	return submission.Table[models.PTPTask]{
		Model: &models.PTPTask{},
		ID:    func(t models.PTPTask) uuid.UUID { return t.ID },
		Columns: func(t models.PTPTask) map[string]any {
			return map[string]any{
				"description": t.Description,
				"hazards":     t.Hazards,
				"controls":    t.Controls,
				"sort_order":  t.SortOrder,
			}
		},
		// a task id the plan never had is inserted as a fresh row
		Prepare: func(t *models.PTPTask) {
			t.ID = uuid.Nil
			t.PTPID = ptpID
			t.IsActive = true
		},
		Equal: func(old, new models.PTPTask) bool {
			return old.Description == new.Description &&
				old.SortOrder == new.SortOrder &&
				slices.Equal(old.Hazards, new.Hazards) &&
				slices.Equal(old.Controls, new.Controls)
		},
	}
}

func ptpPhotoTable(ptpID uuid.UUID) submission.Table[models.PTPPhoto] {
	return submission.Table[models.PTPPhoto]{
		Model:   &models.PTPPhoto{},
		ID:      func(p models.PTPPhoto) uuid.UUID { return p.ID },
		Columns: func(p models.PTPPhoto) map[string]any { return map[string]any{"storage_path": p.StoragePath} },
		Prepare: func(p *models.PTPPhoto) {
			p.ID = uuid.Nil
			p.PTPID = ptpID
			p.IsActive = true
		},
		Equal: func(_, _ models.PTPPhoto) bool { return true },
	}
}
