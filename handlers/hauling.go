package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/hauling"
)

type haulingSubmitter interface {
	Submit(ctx context.Context, caller hauling.Caller, in hauling.Request) (hauling.Result, error)
}

type haulingReader interface {
	ListByProject(ctx context.Context, orgID, projectID uuid.UUID) ([]models.HaulingRequest, error)
	Companies(ctx context.Context, orgID uuid.UUID) ([]models.HaulingCompany, error)
}

// HaulingHandler serves the submit-hauling-request function and the
// status reads the client polls afterwards.
type HaulingHandler struct {
	svc   haulingSubmitter
	reads haulingReader
}

func NewHaulingHandler(svc haulingSubmitter, reads haulingReader) *HaulingHandler {
	return &HaulingHandler{svc: svc, reads: reads}
}

// Submit godoc
// @Summary      Submit a hauling request
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        body  body      hauling.Request  true  "request"
// @Success      200   {object}  hauling.Result
// @Failure      400   {object}  map[string]string
// @Router       /functions/v1/submit-hauling-request [post]
func (h *HaulingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var in hauling.Request
	if err := decodeJSON(r, &in); err != nil {
		writeFunctionError(w, r, err)
		return
	}
	res, err := h.svc.Submit(r.Context(), hauling.Caller{OrgID: s.OrgID, EmployeeID: s.EmployeeID}, in)
	if err != nil {
		writeFunctionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HaulingHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	list, err := h.reads.ListByProject(r.Context(), s.OrgID, projectID)
	if err != nil {
		writeAppError(w, r, apperr.FromDB(err, "hauling requests"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hauling_requests": list})
}

func (h *HaulingHandler) Companies(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	list, err := h.reads.Companies(r.Context(), s.OrgID)
	if err != nil {
		writeAppError(w, r, apperr.FromDB(err, "hauling companies"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hauling_companies": list})
}
