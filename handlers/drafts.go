package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/wizard"
)

// Draft kinds accepted by the step endpoint
const (
	DraftPTP      = "ptp"
	DraftTimeCard = "timecard"
)

type stepRequest struct {
	Draft json.RawMessage `json:"draft"`
	Step  wizard.Step     `json:"step"`
}

type stepResponse struct {
	Draft    any    `json:"draft"`
	Complete bool   `json:"complete"`
	Missing  string `json:"missing,omitempty"`
}

// DraftStep applies one wizard step to the posted draft and returns the
// next draft. No state is kept server side; an absent draft starts a new
// one.
func DraftStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}

	var (
		next       any
		validation error
		err        error
	)
	switch mux.Vars(r)["kind"] {
	case DraftPTP:
		d := wizard.NewPTPDraft()
		if err := decodeDraft(req.Draft, &d); err != nil {
			writeAppError(w, r, err)
			return
		}
		if d, err = wizard.ApplyPTPStep(d, req.Step); err == nil {
			next, validation = d, d.Validate()
		}
	case DraftTimeCard:
		d := wizard.NewTimeCardDraft()
		if err := decodeDraft(req.Draft, &d); err != nil {
			writeAppError(w, r, err)
			return
		}
		if d, err = wizard.ApplyTimeCardStep(d, req.Step); err == nil {
			next, validation = d, d.Validate()
		}
	default:
		writeError(w, http.StatusNotFound, "unknown draft kind")
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := stepResponse{Draft: next, Complete: validation == nil}
	if validation != nil {
		resp.Missing = apperr.PublicMessage(validation)
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeDraft(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Validation("invalid draft: %v", err)
	}
	return nil
}
