package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"p9e.in/fieldreport/config"
	"p9e.in/fieldreport/middleware"
	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
)

// DirectoryHandler serves the signed-in employee and the org's crew list
type DirectoryHandler struct {
	db *gorm.DB
}

func NewDirectoryHandler(db *gorm.DB) *DirectoryHandler {
	return &DirectoryHandler{db: db}
}

// Me godoc
// @Summary      Current employee, organization and active projects
// @Tags         directory
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/me [get]
func (h *DirectoryHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctx := r.Context()

	var emp models.Employee
	err = h.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true).First(&emp).Error
	if err != nil {
		writeAppError(w, r, apperr.FromDB(err, "employee"))
		return
	}

	var org models.Organization
	projects := []models.Project{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apperr.FromDB(h.db.WithContext(gctx).First(&org, "id = ?", emp.OrgID).Error, "organization")
	})
	g.Go(func() error {
		err := h.db.WithContext(gctx).
			Where("org_id = ? AND status = ?", emp.OrgID, models.ProjectActive).
			Order("name").
			Find(&projects).Error
		return apperr.FromDB(err, "projects")
	})
	if err := g.Wait(); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employee":     emp,
		"organization": org,
		"projects":     projects,
		"permissions":  config.PermissionsFor(emp.Role),
	})
}

// Employees lists active employees in the caller's org, by last name
func (h *DirectoryHandler) Employees(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	list := []models.Employee{}
	q := h.db.WithContext(r.Context()).Where("org_id = ? AND is_active = ?", s.OrgID, true)
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Order("last_name, first_name").Find(&list).Error; err != nil {
		writeAppError(w, r, apperr.FromDB(err, "employees"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": list})
}
