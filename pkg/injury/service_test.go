package injury

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
)

// txStore stages rows per transaction and keeps them only on commit
type txStore struct {
	projects  map[uuid.UUID]uuid.UUID // project -> org
	employees map[uuid.UUID]uuid.UUID // employee -> org
	committed []any
	failOn    func(value any) bool
}

type staging struct {
	rows   []any
	failOn func(value any) bool
}

func (s *staging) Create(value any) error {
	if s.failOn != nil && s.failOn(value) {
		return errors.New("insert rejected")
	}
	s.rows = append(s.rows, value)
	return nil
}

func (m *txStore) ProjectExists(_ context.Context, orgID, id uuid.UUID) (bool, error) {
	return m.projects[id] == orgID, nil
}

func (m *txStore) EmployeesInOrg(_ context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error) {
	for _, id := range ids {
		if org, ok := m.employees[id]; !ok || org != orgID {
			return false, nil
		}
	}
	return true, nil
}

// hire adds an active employee to org and returns its id
func (m *txStore) hire(org uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.employees[id] = org
	return id
}

func (m *txStore) Transaction(_ context.Context, fn func(Creator) error) error {
	tx := &staging{failOn: m.failOn}
	if err := fn(tx); err != nil {
		return err
	}
	m.committed = append(m.committed, tx.rows...)
	return nil
}

func (m *txStore) bodyParts() []models.InjuryBodyPart {
	var out []models.InjuryBodyPart
	for _, r := range m.committed {
		if bp, ok := r.(*models.InjuryBodyPart); ok {
			out = append(out, *bp)
		}
	}
	return out
}

func (m *txStore) find(match func(any) bool) []any {
	var out []any
	for _, r := range m.committed {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func newStore(caller Caller, project uuid.UUID) *txStore {
	return &txStore{
		projects:  map[uuid.UUID]uuid.UUID{project: caller.OrgID},
		employees: map[uuid.UUID]uuid.UUID{caller.EmployeeID: caller.OrgID},
	}
}

func photoPath(org, project uuid.UUID, name string) string {
	return org.String() + "/" + project.String() + "/injury-draft/" + name
}

func payload(caller Caller, project uuid.UUID, alice, bob uuid.UUID) Payload {
	return Payload{
		ProjectID:   project.String(),
		OccurredAt:  "2026-03-09T10:15:00Z",
		Description: "Worker struck by falling rebar",
		Photos:      []string{photoPath(caller.OrgID, project, "1.jpg"), " "},
		InjuredEmployees: []InjuredEmployee{
			{EmployeeID: alice.String()},
			{TempID: "emp-b", EmployeeID: bob.String()},
		},
		InjuredExternalWorkers: []ExternalWorker{{TempID: "ext-1", Name: "Sub Contractor"}},
		BodyParts: []BodyPart{
			{PersonID: alice.String(), InjuredPersonType: models.InjuredEmployee, BodyPart: "hand", Side: "left"},
			{PersonID: "ext-1", InjuredPersonType: models.InjuredExternal, BodyPart: "head"},
			{PersonID: "emp-b", InjuredPersonType: models.InjuredEmployee, BodyPart: "foot"},
		},
		FirstAidGiven:   true,
		FirstAidDetails: "bandage",
		Tasks:           []string{"Unloading rebar"},
		Witnesses:       []Witness{{Name: "Foreman"}},
		Equipment:       []string{"Crane"},
		Materials:       []string{"#5 rebar"},
	}
}

func TestSubmit_MapsBodyPartsToInjuredPeople(t *testing.T) {
	caller := Caller{OrgID: uuid.New(), EmployeeID: uuid.New()}
	project := uuid.New()
	store := newStore(caller, project)
	alice, bob := store.hire(caller.OrgID), store.hire(caller.OrgID)

	res, err := NewService(store, nil).Submit(context.Background(), caller, payload(caller, project, alice, bob))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	employeeRows := map[uuid.UUID]uuid.UUID{} // employee -> row
	var externalRow uuid.UUID
	for _, r := range store.committed {
		switch v := r.(type) {
		case *models.InjuredEmployeeRecord:
			employeeRows[v.EmployeeID] = v.ID
			if v.InjuryReportID != res.InjuryReportID {
				t.Errorf("employee row points at report %s", v.InjuryReportID)
			}
		case *models.InjuredExternalWorker:
			externalRow = v.ID
		case *models.InjuryReport:
			if v.OrgID != caller.OrgID || v.SubmittedByEmployeeID != caller.EmployeeID {
				t.Errorf("header org/submitter = %s/%s", v.OrgID, v.SubmittedByEmployeeID)
			}
		}
	}

	parts := store.bodyParts()
	if len(parts) != 3 {
		t.Fatalf("body parts = %d, expected 3", len(parts))
	}
	if parts[0].InjuredEmployeeID == nil || *parts[0].InjuredEmployeeID != employeeRows[alice] {
		t.Errorf("hand -> %v, expected alice's row %s", parts[0].InjuredEmployeeID, employeeRows[alice])
	}
	if parts[0].InjuredExternalWorkerID != nil {
		t.Error("employee body part also points at an external worker")
	}
	if parts[1].InjuredExternalWorkerID == nil || *parts[1].InjuredExternalWorkerID != externalRow {
		t.Errorf("head -> %v, expected external row %s", parts[1].InjuredExternalWorkerID, externalRow)
	}
	if parts[2].InjuredEmployeeID == nil || *parts[2].InjuredEmployeeID != employeeRows[bob] {
		t.Errorf("foot -> %v, expected bob's row via temp id", parts[2].InjuredEmployeeID)
	}

	photos := store.find(func(r any) bool { _, ok := r.(*[]models.InjuryPhoto); return ok })
	if len(photos) != 1 || len(*photos[0].(*[]models.InjuryPhoto)) != 1 {
		t.Errorf("photos = %v, expected one non-blank photo", photos)
	}
}

func TestSubmit_FirstAidFailureRollsBackEverything(t *testing.T) {
	caller := Caller{OrgID: uuid.New(), EmployeeID: uuid.New()}
	project := uuid.New()
	store := newStore(caller, project)
	store.failOn = func(v any) bool { _, ok := v.(*models.InjuryFirstAid); return ok }

	_, err := NewService(store, nil).Submit(context.Background(), caller, payload(caller, project, store.hire(caller.OrgID), store.hire(caller.OrgID)))
	if err == nil {
		t.Fatal("expected first-aid failure to fail the submission")
	}
	if len(store.committed) != 0 {
		t.Errorf("committed %d rows after failure, expected none", len(store.committed))
	}
}

func TestSubmit_UnresolvedPersonFails(t *testing.T) {
	caller := Caller{OrgID: uuid.New(), EmployeeID: uuid.New()}
	project := uuid.New()
	store := newStore(caller, project)

	p := payload(caller, project, store.hire(caller.OrgID), store.hire(caller.OrgID))
	p.BodyParts = append(p.BodyParts, BodyPart{PersonID: "ext-9", InjuredPersonType: models.InjuredExternal, BodyPart: "arm"})

	_, err := NewService(store, nil).Submit(context.Background(), caller, p)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, expected validation error", err)
	}
	if len(store.committed) != 0 {
		t.Error("rows committed despite unresolved body part")
	}
}

func TestSubmit_Validation(t *testing.T) {
	caller := Caller{OrgID: uuid.New(), EmployeeID: uuid.New()}
	project := uuid.New()

	tests := []struct {
		name   string
		mutate func(p *Payload)
	}{
		{"missing project", func(p *Payload) { p.ProjectID = "" }},
		{"missing description", func(p *Payload) { p.Description = "" }},
		{"bad occurred_at", func(p *Payload) { p.OccurredAt = "yesterday" }},
		{"foreign org", func(p *Payload) { p.OrgID = uuid.NewString() }},
		{"duplicate temp id", func(p *Payload) {
			p.InjuredExternalWorkers = append(p.InjuredExternalWorkers, ExternalWorker{TempID: "ext-1", Name: "Other"})
		}},
		{"bad person type", func(p *Payload) { p.BodyParts[0].InjuredPersonType = "visitor" }},
		{"bad employee id", func(p *Payload) { p.InjuredEmployees[0].EmployeeID = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(caller, project)
			p := payload(caller, project, store.hire(caller.OrgID), store.hire(caller.OrgID))
			tt.mutate(&p)

			_, err := NewService(store, nil).Submit(context.Background(), caller, p)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("err = %v, expected validation error", err)
			}
			if len(store.committed) != 0 {
				t.Error("rows committed for invalid payload")
			}
		})
	}
}

func TestSubmit_ProjectOutsideOrg(t *testing.T) {
	caller := Caller{OrgID: uuid.New(), EmployeeID: uuid.New()}
	store := newStore(Caller{OrgID: uuid.New()}, uuid.New())

	_, err := NewService(store, nil).Submit(context.Background(), caller, payload(caller, uuid.New(), uuid.New(), uuid.New()))
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, expected not found", err)
	}
}

func TestSubmit_RejectsIDsOutsideOrg(t *testing.T) {
	caller := Caller{OrgID: uuid.New(), EmployeeID: uuid.New()}
	project := uuid.New()
	otherOrg := uuid.New()

	tests := []struct {
		name   string
		mutate func(s *txStore, p *Payload)
		kind   apperr.Kind
	}{
		{"submitter from another org", func(s *txStore, p *Payload) {
			p.SubmittedByEmployeeID = s.hire(otherOrg).String()
		}, apperr.KindValidation},
		{"injured employee from another org", func(s *txStore, p *Payload) {
			p.InjuredEmployees[0].EmployeeID = s.hire(otherOrg).String()
			p.BodyParts[0].PersonID = p.InjuredEmployees[0].EmployeeID
		}, apperr.KindValidation},
		{"unknown injured employee", func(s *txStore, p *Payload) {
			p.InjuredEmployees[1].EmployeeID = uuid.NewString()
		}, apperr.KindValidation},
		{"photo under another org", func(s *txStore, p *Payload) {
			p.Photos = []string{photoPath(otherOrg, project, "1.jpg")}
		}, apperr.KindForbidden},
		{"malformed photo path", func(s *txStore, p *Payload) {
			p.Photos = []string{"../../etc/passwd"}
		}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(caller, project)
			p := payload(caller, project, store.hire(caller.OrgID), store.hire(caller.OrgID))
			tt.mutate(store, &p)

			_, err := NewService(store, nil).Submit(context.Background(), caller, p)
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("err = %v, expected kind %v", err, tt.kind)
			}
			if len(store.committed) != 0 {
				t.Error("rows committed for out-of-org reference")
			}
		})
	}
}
