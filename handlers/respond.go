package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"p9e.in/fieldreport/middleware"
	"p9e.in/fieldreport/pkg/apperr"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps err to its kind's status. Internal causes are logged
// and never sent to the client.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		zap.L().Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, kind.Status(), apperr.PublicMessage(err))
}

// writeFunctionError is the error shape of the /functions/v1 endpoints:
// every failure is a 400 with {"error": message}.
func writeFunctionError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		zap.L().Error("function failed",
			zap.String("request_id", middleware.GetRequestID(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, http.StatusBadRequest, apperr.PublicMessage(err))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid JSON: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// scope returns the caller's org and employee, writing a 403 when the
// token carries none.
func scope(w http.ResponseWriter, r *http.Request) (middleware.Scope, bool) {
	s, ok := middleware.GetScope(r)
	if !ok {
		writeError(w, http.StatusForbidden, "no employee record for this login")
	}
	return s, ok
}

type page struct {
	Limit  int
	Offset int
}

func parsePage(r *http.Request) page {
	p := page{Limit: defaultPageSize}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}
