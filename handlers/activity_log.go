package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/middleware"
	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/submission"
	"p9e.in/fieldreport/utils"
)

type activityPhotoInput struct {
	StoragePath string `json:"storage_path"`
	Caption     string `json:"caption,omitempty"`
}

type voiceMemoInput struct {
	StoragePath     string `json:"storage_path"`
	DurationSeconds int    `json:"duration_seconds"`
}

type activityLogRequest struct {
	ProjectID        uuid.UUID            `json:"project_id"`
	Kind             string               `json:"kind"`
	Description      string               `json:"description"`
	CorrectiveAction string               `json:"corrective_action,omitempty"`
	OccurredAt       models.JSONTime      `json:"occurred_at"`
	Latitude         *float64             `json:"latitude,omitempty"`
	Longitude        *float64             `json:"longitude,omitempty"`
	Photos           []activityPhotoInput `json:"photos"`
	VoiceMemos       []voiceMemoInput     `json:"voice_memos"`
}

func (req *activityLogRequest) validate(orgID uuid.UUID) error {
	req.Kind = strings.TrimSpace(req.Kind)
	req.Description = strings.TrimSpace(req.Description)
	if req.ProjectID == uuid.Nil {
		return apperr.Validation("project_id is required")
	}
	if !models.ValidActivityKind(req.Kind) {
		return apperr.Validation("kind must be incident, near_miss or observation")
	}
	if req.Description == "" {
		return apperr.Validation("description is required")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return apperr.Validation("latitude and longitude must be sent together")
	}
	if req.Latitude != nil {
		if err := utils.ValidateCoordinate(utils.Coordinate{Lat: *req.Latitude, Lng: *req.Longitude}); err != nil {
			return apperr.Validation("%v", err)
		}
	}
	for _, p := range req.Photos {
		if err := checkPaths(orgID, p.StoragePath); err != nil {
			return err
		}
	}
	for _, m := range req.VoiceMemos {
		if err := checkPaths(orgID, m.StoragePath); err != nil {
			return err
		}
		if m.DurationSeconds < 0 {
			return apperr.Validation("duration_seconds cannot be negative")
		}
	}
	return nil
}

// model builds the log; distance is filled in when both the fix and the
// project site are known.
func (req activityLogRequest) model(h models.SubmissionHeader, project models.Project, now time.Time) models.ActivityLog {
	log := models.ActivityLog{
		SubmissionHeader: h,
		Kind:             req.Kind,
		Description:      req.Description,
		CorrectiveAction: strings.TrimSpace(req.CorrectiveAction),
		OccurredAt:       req.OccurredAt,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
	}
	if log.OccurredAt.IsZero() {
		log.OccurredAt = models.JSONTime(now.UTC())
	}
	if req.Latitude != nil && project.HasSite() {
		fence := utils.SiteFence{
			Center:  utils.Coordinate{Lat: *project.Latitude, Lng: *project.Longitude},
			RadiusM: project.SiteRadiusM,
		}
		d, _ := fence.Check(utils.Coordinate{Lat: *req.Latitude, Lng: *req.Longitude})
		log.DistanceFromSiteM = &d
	}
	for _, p := range req.Photos {
		log.Photos = append(log.Photos, models.ActivityPhoto{
			StoragePath: p.StoragePath,
			Caption:     strings.TrimSpace(p.Caption),
			IsActive:    true,
		})
	}
	for _, m := range req.VoiceMemos {
		log.VoiceMemos = append(log.VoiceMemos, models.VoiceMemo{
			StoragePath:     m.StoragePath,
			DurationSeconds: m.DurationSeconds,
			IsActive:        true,
		})
	}
	return log
}

// ActivityLogHandler serves incident, near-miss and observation logs
type ActivityLogHandler struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewActivityLogHandler(db *gorm.DB, log *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{db: db, log: log.Named("activity_log"), now: time.Now}
}

func (h *ActivityLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var req activityLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := req.validate(s.OrgID); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	var entry models.ActivityLog
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := requireProject(tx, s.OrgID, req.ProjectID)
		if err != nil {
			return err
		}
		entry = req.model(header(s, req.ProjectID, h.now()), project, h.now())
		return apperr.FromDB(tx.Create(&entry).Error, "activity log")
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.logOffSite(s, entry)
	writeJSON(w, http.StatusCreated, map[string]any{"activity_log": entry})
}

// Update edits a stored log; photos and voice memos are reconciled by
// storage path.
func (h *ActivityLogHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var req activityLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := req.validate(s.OrgID); err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	var changes submission.Result
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := findScoped[models.ActivityLog](ctx, activeChildren(tx, "Photos", "VoiceMemos"), s.OrgID, id, "activity log")
		if err != nil {
			return err
		}
		if err := sameProject(stored.ProjectID, req.ProjectID); err != nil {
			return err
		}
		project, err := requireProject(tx, s.OrgID, stored.ProjectID)
		if err != nil {
			return err
		}

		next := req.model(stored.SubmissionHeader, project, h.now())
		next.Bump(models.JSONTime(h.now().UTC()))
		err = tx.Model(&models.ActivityLog{}).Where("id = ?", id).Updates(map[string]any{
			"kind":                 next.Kind,
			"description":          next.Description,
			"corrective_action":    next.CorrectiveAction,
			"occurred_at":          next.OccurredAt,
			"latitude":             next.Latitude,
			"longitude":            next.Longitude,
			"distance_from_site_m": next.DistanceFromSiteM,
			"revision":             next.Revision,
			"submitted_at":         next.SubmittedAt,
		}).Error
		if err != nil {
			return apperr.FromDB(err, "activity log")
		}

		photos, err := submission.Reconcile(tx, stored.Photos, next.Photos, activityPhotoKey, activityPhotoTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update photos")
		}
		memos, err := submission.Reconcile(tx, stored.VoiceMemos, next.VoiceMemos, voiceMemoKey, voiceMemoTable(id))
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not update voice memos")
		}
		changes = photos.Add(memos)
		return nil
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	entry, err := h.load(ctx, s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.log.Info("activity log edited",
		zap.String("activity_log_id", id.String()),
		zap.Int("revision", entry.Revision),
		zap.Any("changes", changes))
	writeJSON(w, http.StatusOK, map[string]any{"activity_log": entry, "changes": changes})
}

func (h *ActivityLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	entry, err := h.load(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity_log": entry})
}

// ListByProject accepts an optional kind filter
func (h *ActivityLogHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	db := h.db
	if kind := r.URL.Query().Get("kind"); kind != "" {
		if !models.ValidActivityKind(kind) {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		db = db.Where("kind = ?", kind)
	}
	logs, err := listByProject[models.ActivityLog](r.Context(), db, s.OrgID, projectID, parsePage(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity_logs": logs})
}

func (h *ActivityLogHandler) load(ctx context.Context, orgID, id uuid.UUID) (models.ActivityLog, error) {
	return findScoped[models.ActivityLog](ctx, activeChildren(h.db, "Photos", "VoiceMemos"), orgID, id, "activity log")
}

func (h *ActivityLogHandler) logOffSite(s middleware.Scope, entry models.ActivityLog) {
	fields := []zap.Field{
		zap.String("activity_log_id", entry.ID.String()),
		zap.String("kind", entry.Kind),
		zap.String("employee_id", s.EmployeeID.String()),
	}
	if entry.DistanceFromSiteM != nil {
		fields = append(fields, zap.Float64("distance_from_site_m", *entry.DistanceFromSiteM))
	}
	h.log.Info("activity log submitted", fields...)
}

func activityPhotoKey(p models.ActivityPhoto) (string, bool) { return p.StoragePath, p.StoragePath != "" }

func voiceMemoKey(m models.VoiceMemo) (string, bool) { return m.StoragePath, m.StoragePath != "" }

func activityPhotoTable(logID uuid.UUID) submission.Table[models.ActivityPhoto] {
	return submission.Table[models.ActivityPhoto]{
		Model:   &models.ActivityPhoto{},
		ID:      func(p models.ActivityPhoto) uuid.UUID { return p.ID },
		Columns: func(p models.ActivityPhoto) map[string]any { return map[string]any{"caption": p.Caption} },
		Prepare: func(p *models.ActivityPhoto) {
			p.ID = uuid.Nil
			p.ActivityLogID = logID
			p.IsActive = true
		},
		Equal: func(old, new models.ActivityPhoto) bool { return old.Caption == new.Caption },
	}
}

func voiceMemoTable(logID uuid.UUID) submission.Table[models.VoiceMemo] {
	return submission.Table[models.VoiceMemo]{
		Model: &models.VoiceMemo{},
		ID:    func(m models.VoiceMemo) uuid.UUID { return m.ID },
		Columns: func(m models.VoiceMemo) map[string]any {
			return map[string]any{"duration_seconds": m.DurationSeconds}
		},
		Prepare: func(m *models.VoiceMemo) {
			m.ID = uuid.Nil
			m.ActivityLogID = logID
			m.IsActive = true
		},
		Equal: func(old, new models.VoiceMemo) bool { return old.DurationSeconds == new.DurationSeconds },
	}
}
