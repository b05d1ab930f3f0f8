// Package injury implements the submit-injury-report function. The header
// and every satellite row are written in one transaction; body parts are
// linked to injured people through ids resolved while inserting.
package injury

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/storage"
)

// Caller is the authenticated employee submitting the report
type Caller struct {
	OrgID      uuid.UUID
	EmployeeID uuid.UUID
}

type Result struct {
	InjuryReportID uuid.UUID `json:"injury_report_id"`
}

// Creator inserts one row (or a slice of rows) inside the open transaction
type Creator interface {
	Create(value any) error
}

type Store interface {
	ProjectExists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	// EmployeesInOrg reports whether every id is an active employee of orgID
	EmployeesInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error)
	// Transaction runs fn in one transaction, rolling back if fn errors
	Transaction(ctx context.Context, fn func(Creator) error) error
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log.Named("injury"), now: time.Now}
}

// Submit validates the payload and writes the report. Either every row is
// stored or none is.
func (s *Service) Submit(ctx context.Context, caller Caller, p Payload) (Result, error) {
	header, err := s.header(caller, p)
	if err != nil {
		return Result{}, err
	}
	if err := validatePeople(p); err != nil {
		return Result{}, err
	}
	for _, path := range nonBlank(p.Photos) {
		if err := storage.CheckPath(path, header.OrgID); err != nil {
			return Result{}, err
		}
	}

	ok, err := s.store.ProjectExists(ctx, header.OrgID, header.ProjectID)
	if err != nil {
		return Result{}, apperr.FromDB(err, "project")
	}
	if !ok {
		return Result{}, apperr.NotFound("project")
	}
	ok, err = s.store.EmployeesInOrg(ctx, header.OrgID, employeeIDs(header.SubmittedByEmployeeID, p))
	if err != nil {
		return Result{}, apperr.FromDB(err, "employee")
	}
	if !ok {
		return Result{}, apperr.Validation("report names an employee outside your organization")
	}

	err = s.store.Transaction(ctx, func(tx Creator) error {
		return write(tx, header, p)
	})
	if err != nil {
		s.log.Warn("injury report rolled back", zap.String("injury_report_id", header.ID.String()), zap.Error(err))
		if apperr.KindOf(err) == apperr.KindInternal {
			return Result{}, apperr.Wrap(apperr.KindInternal, err, "could not save injury report")
		}
		return Result{}, err
	}

	s.log.Info("injury report stored",
		zap.String("injury_report_id", header.ID.String()),
		zap.Int("body_parts", len(p.BodyParts)))
	return Result{InjuryReportID: header.ID}, nil
}

func (s *Service) header(caller Caller, p Payload) (*models.InjuryReport, error) {
	if p.OrgID != "" {
		id, err := uuid.Parse(p.OrgID)
		if err != nil || id != caller.OrgID {
			return nil, apperr.Validation("org_id does not match the signed-in employee")
		}
	}
	projectID, err := parseID("project_id", p.ProjectID)
	if err != nil {
		return nil, err
	}
	submitter := caller.EmployeeID
	if p.SubmittedByEmployeeID != "" {
		if submitter, err = parseID("submitted_by_employee_id", p.SubmittedByEmployeeID); err != nil {
			return nil, err
		}
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return nil, apperr.Validation("description is required")
	}

	occurred := models.JSONTime(s.now())
	if p.OccurredAt != "" {
		if occurred, err = models.ParseJSONTime(p.OccurredAt); err != nil {
			return nil, apperr.Validation("occurred_at %q is not a valid time", p.OccurredAt)
		}
	}

	return &models.InjuryReport{
		ID:                    uuid.New(),
		OrgID:                 caller.OrgID,
		ProjectID:             projectID,
		SubmittedByEmployeeID: submitter,
		OccurredAt:            occurred,
		Location:              strings.TrimSpace(p.Location),
		Description:           desc,
		Severity:              strings.TrimSpace(p.Severity),
		ReportedToName:        strings.TrimSpace(p.ReportedToName),
	}, nil
}

// validatePeople rejects ambiguous temp ids before anything is written
func validatePeople(p Payload) error {
	seen := map[string]bool{}
	for _, e := range p.InjuredEmployees {
		if _, err := parseID("injured_employees.employee_id", e.EmployeeID); err != nil {
			return err
		}
		key := employeeKey(e)
		if seen[models.InjuredEmployee+key] {
			return apperr.Validation("injured employee %q is listed twice", key)
		}
		seen[models.InjuredEmployee+key] = true
	}
	for _, w := range p.InjuredExternalWorkers {
		if strings.TrimSpace(w.TempID) == "" {
			return apperr.Validation("injured_external_workers.temp_id is required")
		}
		if strings.TrimSpace(w.Name) == "" {
			return apperr.Validation("injured external worker %q has no name", w.TempID)
		}
		if seen[models.InjuredExternal+w.TempID] {
			return apperr.Validation("temp_id %q is used twice", w.TempID)
		}
		seen[models.InjuredExternal+w.TempID] = true
	}
	for _, bp := range p.BodyParts {
		if bp.InjuredPersonType != models.InjuredEmployee && bp.InjuredPersonType != models.InjuredExternal {
			return apperr.Validation("injured_person_type %q must be employee or external", bp.InjuredPersonType)
		}
		if strings.TrimSpace(bp.BodyPart) == "" {
			return apperr.Validation("body_part is required")
		}
	}
	return nil
}

// employeeIDs is the submitter plus every injured employee. validatePeople
// has already checked that the ids parse.
func employeeIDs(submitter uuid.UUID, p Payload) []uuid.UUID {
	ids := []uuid.UUID{submitter}
	for _, e := range p.InjuredEmployees {
		id, _ := uuid.Parse(e.EmployeeID)
		ids = append(ids, id)
	}
	return ids
}

func employeeKey(e InjuredEmployee) string {
	if e.TempID != "" {
		return e.TempID
	}
	return e.EmployeeID
}

// write performs the inserts in a fixed order. Row ids are assigned here so
// the person maps are known without reading back generated keys.
func write(tx Creator, header *models.InjuryReport, p Payload) error {
	reportID := header.ID
	if err := tx.Create(header); err != nil {
		return fmt.Errorf("insert header: %w", err)
	}

	if photos := photoRows(reportID, p.Photos); len(photos) > 0 {
		if err := tx.Create(&photos); err != nil {
			return fmt.Errorf("insert photos: %w", err)
		}
	}

	employees := make(map[string]uuid.UUID, len(p.InjuredEmployees))
	for _, e := range p.InjuredEmployees {
		empID, _ := uuid.Parse(e.EmployeeID)
		row := models.InjuredEmployeeRecord{ID: uuid.New(), InjuryReportID: reportID, EmployeeID: empID}
		if err := tx.Create(&row); err != nil {
			return fmt.Errorf("insert injured employee: %w", err)
		}
		employees[employeeKey(e)] = row.ID
		employees[e.EmployeeID] = row.ID
	}

	externals := make(map[string]uuid.UUID, len(p.InjuredExternalWorkers))
	for _, w := range p.InjuredExternalWorkers {
		row := models.InjuredExternalWorker{
			ID:             uuid.New(),
			InjuryReportID: reportID,
			Name:           strings.TrimSpace(w.Name),
			Company:        strings.TrimSpace(w.Company),
			Phone:          strings.TrimSpace(w.Phone),
		}
		if err := tx.Create(&row); err != nil {
			return fmt.Errorf("insert external worker: %w", err)
		}
		externals[w.TempID] = row.ID
	}

	for _, bp := range p.BodyParts {
		row := models.InjuryBodyPart{
			ID:                uuid.New(),
			InjuryReportID:    reportID,
			InjuredPersonType: bp.InjuredPersonType,
			BodyPart:          strings.TrimSpace(bp.BodyPart),
			Side:              strings.TrimSpace(bp.Side),
			InjuryType:        strings.TrimSpace(bp.InjuryType),
		}
		switch bp.InjuredPersonType {
		case models.InjuredEmployee:
			id, ok := employees[bp.PersonID]
			if !ok {
				return apperr.Validation("body part %q refers to unknown injured employee %q", bp.BodyPart, bp.PersonID)
			}
			row.InjuredEmployeeID = &id
		case models.InjuredExternal:
			id, ok := externals[bp.PersonID]
			if !ok {
				return apperr.Validation("body part %q refers to unknown external worker %q", bp.BodyPart, bp.PersonID)
			}
			row.InjuredExternalWorkerID = &id
		}
		if err := tx.Create(&row); err != nil {
			return fmt.Errorf("insert body part: %w", err)
		}
	}

	firstAid := models.InjuryFirstAid{
		ID:             uuid.New(),
		InjuryReportID: reportID,
		Given:          p.FirstAidGiven,
		Details:        strings.TrimSpace(p.FirstAidDetails),
	}
	if err := tx.Create(&firstAid); err != nil {
		return fmt.Errorf("insert first aid: %w", err)
	}

	if tasks := taskRows(reportID, p.Tasks); len(tasks) > 0 {
		if err := tx.Create(&tasks); err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
	}
	if witnesses := witnessRows(reportID, p.Witnesses); len(witnesses) > 0 {
		if err := tx.Create(&witnesses); err != nil {
			return fmt.Errorf("insert witnesses: %w", err)
		}
	}
	if equipment := equipmentRows(reportID, p.Equipment); len(equipment) > 0 {
		if err := tx.Create(&equipment); err != nil {
			return fmt.Errorf("insert equipment: %w", err)
		}
	}
	if materials := materialRows(reportID, p.Materials); len(materials) > 0 {
		if err := tx.Create(&materials); err != nil {
			return fmt.Errorf("insert materials: %w", err)
		}
	}
	return nil
}

func photoRows(reportID uuid.UUID, paths []string) []models.InjuryPhoto {
	var out []models.InjuryPhoto
	for _, p := range nonBlank(paths) {
		out = append(out, models.InjuryPhoto{ID: uuid.New(), InjuryReportID: reportID, StoragePath: p})
	}
	return out
}

func taskRows(reportID uuid.UUID, tasks []string) []models.InjuryTask {
	var out []models.InjuryTask
	for _, t := range nonBlank(tasks) {
		out = append(out, models.InjuryTask{ID: uuid.New(), InjuryReportID: reportID, Description: t})
	}
	return out
}

func witnessRows(reportID uuid.UUID, ws []Witness) []models.InjuryWitness {
	var out []models.InjuryWitness
	for _, w := range ws {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			continue
		}
		out = append(out, models.InjuryWitness{
			ID:             uuid.New(),
			InjuryReportID: reportID,
			Name:           name,
			Phone:          strings.TrimSpace(w.Phone),
			Statement:      strings.TrimSpace(w.Statement),
		})
	}
	return out
}

func equipmentRows(reportID uuid.UUID, names []string) []models.InjuryEquipment {
	var out []models.InjuryEquipment
	for _, n := range nonBlank(names) {
		out = append(out, models.InjuryEquipment{ID: uuid.New(), InjuryReportID: reportID, Name: n})
	}
	return out
}

func materialRows(reportID uuid.UUID, names []string) []models.InjuryMaterial {
	var out []models.InjuryMaterial
	for _, n := range nonBlank(names) {
		out = append(out, models.InjuryMaterial{ID: uuid.New(), InjuryReportID: reportID, Name: n})
	}
	return out
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseID(field, v string) (uuid.UUID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return uuid.Nil, apperr.Validation("%s is required", field)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Validation("%s is not a valid id", field)
	}
	return id, nil
}
