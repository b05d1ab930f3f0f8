package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"validation", Validation("missing %s", "project_id"), KindValidation},
		{"not found", NotFound("time card"), KindNotFound},
		{"wrapped validation", fmt.Errorf("submit: %w", Validation("bad")), KindValidation},
		{"gorm not found", gorm.ErrRecordNotFound, KindNotFound},
		{"db not found", FromDB(gorm.ErrRecordNotFound, "project"), KindNotFound},
		{"db other", FromDB(errors.New("conn reset"), "project"), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"forbidden", Forbidden("nope"), KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestKindStatus(t *testing.T) {
	if KindValidation.Status() != http.StatusBadRequest {
		t.Errorf("validation status = %d", KindValidation.Status())
	}
	if KindNotFound.Status() != http.StatusNotFound {
		t.Errorf("not found status = %d", KindNotFound.Status())
	}
	if KindInternal.Status() != http.StatusInternalServerError {
		t.Errorf("internal status = %d", KindInternal.Status())
	}
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := FromDB(errors.New("password authentication failed for user"), "employee")
	if got := PublicMessage(err); got != "database error" {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := PublicMessage(Validation("project_id is required")); got != "project_id is required" {
		t.Errorf("PublicMessage = %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindInternal, nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
