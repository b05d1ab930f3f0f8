package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/injury"
)

type injurySubmitter interface {
	Submit(ctx context.Context, caller injury.Caller, p injury.Payload) (injury.Result, error)
}

type injuryReader interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (models.InjuryReport, error)
	ListByProject(ctx context.Context, orgID, projectID uuid.UUID) ([]models.InjuryReport, error)
}

// InjuryHandler serves the submit-injury-report function and report reads
type InjuryHandler struct {
	svc   injurySubmitter
	reads injuryReader
}

func NewInjuryHandler(svc injurySubmitter, reads injuryReader) *InjuryHandler {
	return &InjuryHandler{svc: svc, reads: reads}
}

// Submit godoc
// @Summary      Submit an injury report
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        body  body      injury.Payload  true  "report"
// @Success      200   {object}  injury.Result
// @Failure      400   {object}  map[string]string
// @Router       /functions/v1/submit-injury-report [post]
func (h *InjuryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	var p injury.Payload
	if err := decodeJSON(r, &p); err != nil {
		writeFunctionError(w, r, err)
		return
	}
	res, err := h.svc.Submit(r.Context(), injury.Caller{OrgID: s.OrgID, EmployeeID: s.EmployeeID}, p)
	if err != nil {
		writeFunctionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InjuryHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	report, err := h.reads.Get(r.Context(), s.OrgID, id)
	if err != nil {
		writeAppError(w, r, apperr.FromDB(err, "injury report"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"injury_report": report})
}

func (h *InjuryHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
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
		writeAppError(w, r, apperr.FromDB(err, "injury reports"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"injury_reports": list})
}
