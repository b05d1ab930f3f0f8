package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
)

type inspectionRequest struct {
	ProjectID         uuid.UUID              `json:"project_id"`
	EquipmentName     string                 `json:"equipment_name"`
	EquipmentIDNumber string                 `json:"equipment_id_number,omitempty"`
	Checklist         []models.ChecklistItem `json:"checklist"`
	Notes             string                 `json:"notes,omitempty"`
}

func (req *inspectionRequest) validate() error {
	req.EquipmentName = strings.TrimSpace(req.EquipmentName)
	if req.ProjectID == uuid.Nil {
		return apperr.Validation("project_id is required")
	}
	if req.EquipmentName == "" {
		return apperr.Validation("equipment_name is required")
	}
	if len(req.Checklist) == 0 {
		return apperr.Validation("checklist must have at least one item")
	}
	for i := range req.Checklist {
		it := &req.Checklist[i]
		it.Item = strings.TrimSpace(it.Item)
		it.Status = strings.ToLower(strings.TrimSpace(it.Status))
		if it.Item == "" {
			return apperr.Validation("checklist item %d has no name", i+1)
		}
		switch it.Status {
		case models.CheckPass, models.CheckFail, models.CheckNA:
		default:
			return apperr.Validation("checklist item %q has status %q; expected pass, fail or na", it.Item, it.Status)
		}
	}
	return nil
}

// InspectionHandler serves equipment inspections. They are single-row
// forms and are not edited after submit.
type InspectionHandler struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewInspectionHandler(db *gorm.DB, log *zap.Logger) *InspectionHandler {
	return &InspectionHandler{db: db, log: log.Named("inspection"), now: time.Now}
}

func (h *InspectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var req inspectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeAppError(w, r, err)
		return
	}

	ins := models.EquipmentInspection{
		SubmissionHeader:  header(s, req.ProjectID, h.now()),
		EquipmentName:     req.EquipmentName,
		EquipmentIDNumber: strings.TrimSpace(req.EquipmentIDNumber),
		Checklist:         req.Checklist,
		Passed:            models.ChecklistPassed(req.Checklist),
		Notes:             strings.TrimSpace(req.Notes),
	}
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if _, err := requireProject(tx, s.OrgID, req.ProjectID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&ins).Error, "inspection")
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.log.Info("inspection submitted",
		zap.String("inspection_id", ins.ID.String()),
		zap.String("equipment", ins.EquipmentName),
		zap.Bool("passed", ins.Passed))
	writeJSON(w, http.StatusCreated, map[string]any{"inspection": ins})
}

func (h *InspectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ins, err := findScoped[models.EquipmentInspection](r.Context(), h.db, s.OrgID, id, "inspection")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inspection": ins})
}

// ListByProject accepts passed=true|false to filter
func (h *InspectionHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
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
	switch r.URL.Query().Get("passed") {
	case "true":
		db = db.Where("passed = ?", true)
	case "false":
		db = db.Where("passed = ?", false)
	}
	list, err := listByProject[models.EquipmentInspection](r.Context(), db, s.OrgID, projectID, parsePage(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inspections": list})
}
