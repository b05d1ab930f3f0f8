package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
)

// ProjectHandler serves the job sites of the caller's org
type ProjectHandler struct {
	db *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db}
}

// List accepts an optional status filter
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	q := h.db.WithContext(r.Context()).Where("org_id = ?", s.OrgID)
	if status := r.URL.Query().Get("status"); status != "" {
		switch status {
		case models.ProjectActive, models.ProjectOnHold, models.ProjectCompleted:
			q = q.Where("status = ?", status)
		default:
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
	}
	projects := []models.Project{}
	if err := q.Order("name").Find(&projects).Error; err != nil {
		writeAppError(w, r, apperr.FromDB(err, "projects"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	project, err := findScoped[models.Project](r.Context(), h.db, s.OrgID, id, "project")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}
