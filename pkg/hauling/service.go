// Package hauling implements the submit-hauling-request function: one
// header plus a line item per non-zero dumpster entry, written in one
// transaction, followed by a best-effort webhook to the hauling company.
package hauling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
)

// DumpsterEntry is one dumpster type on the request form
type DumpsterEntry struct {
	DumpsterType      string `json:"dumpster_type"`
	Quantity          int    `json:"quantity"`
	ExtraWorkQuantity int    `json:"extra_work_quantity"`
}

// Request is the function's input body. Ids arrive as strings so a blank
// value is reported as missing rather than as a decode failure.
type Request struct {
	OrgID                 string          `json:"org_id"`
	ProjectID             string          `json:"project_id"`
	SubmittedByEmployeeID string          `json:"submitted_by_employee_id"`
	ProjectAddress        string          `json:"project_address"`
	HaulingCompanyID      string          `json:"hauling_company_id"`
	AddDumpsters          []DumpsterEntry `json:"add_dumpsters"`
	ReplaceDumpsters      []DumpsterEntry `json:"replace_dumpsters"`
}

// Caller is the authenticated employee submitting the request
type Caller struct {
	OrgID      uuid.UUID
	EmployeeID uuid.UUID
}

type Result struct {
	Success          bool      `json:"success"`
	HaulingRequestID uuid.UUID `json:"hauling_request_id"`
	Status           string    `json:"status"`
}

// Delivery is the outcome of one webhook attempt
type Delivery struct {
	StatusCode  int
	Body        []byte
	AttemptedAt time.Time
}

// OK reports a 2xx response
func (d Delivery) OK() bool {
	return d.StatusCode >= 200 && d.StatusCode < 300
}

type Store interface {
	Project(ctx context.Context, orgID, id uuid.UUID) (models.Project, error)
	Company(ctx context.Context, orgID, id uuid.UUID) (models.HaulingCompany, error)
	// EmployeesInOrg reports whether every id is an active employee of orgID
	EmployeesInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error)
	// Create writes the header and its items in one transaction and
	// refreshes the items with their trigger-computed columns.
	Create(ctx context.Context, req *models.HaulingRequest) error
	SetStatus(ctx context.Context, id uuid.UUID, status string, d Delivery) error
}

type Notifier interface {
	Notify(ctx context.Context, url string, p Payload) (Delivery, error)
}

// DefaultDeliveryTimeout bounds the webhook call once the request is stored.
const DefaultDeliveryTimeout = 30 * time.Second

const statusWriteTimeout = 5 * time.Second

type Service struct {
	store           Store
	notifier        Notifier
	defaultURL      string
	deliveryTimeout time.Duration
	log             *zap.Logger
	now             func() time.Time
}

func NewService(store Store, notifier Notifier, defaultURL string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:           store,
		notifier:        notifier,
		defaultURL:      defaultURL,
		deliveryTimeout: DefaultDeliveryTimeout,
		log:             log.Named("hauling"),
		now:             time.Now,
	}
}

// WithDeliveryTimeout sets the bound on the webhook call
func (s *Service) WithDeliveryTimeout(d time.Duration) *Service {
	if d > 0 {
		s.deliveryTimeout = d
	}
	return s
}

// Submit validates and stores the request, then calls the webhook. A webhook
// failure does not fail the submission; it is reported in Result.Status.
func (s *Service) Submit(ctx context.Context, caller Caller, in Request) (Result, error) {
	req, err := s.build(caller, in)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.store.Project(ctx, req.OrgID, req.ProjectID); err != nil {
		return Result{}, apperr.FromDB(err, "project")
	}
	company, err := s.store.Company(ctx, req.OrgID, req.HaulingCompanyID)
	if err != nil {
		return Result{}, apperr.FromDB(err, "hauling company")
	}
	ok, err := s.store.EmployeesInOrg(ctx, req.OrgID, []uuid.UUID{req.SubmittedByEmployeeID})
	if err != nil {
		return Result{}, apperr.FromDB(err, "employee")
	}
	if !ok {
		return Result{}, apperr.Validation("submitted_by_employee_id is not an employee of your organization")
	}

	if err := s.store.Create(ctx, req); err != nil {
		return Result{}, apperr.FromDB(err, "hauling request")
	}
	s.log.Info("hauling request stored",
		zap.String("hauling_request_id", req.ID.String()),
		zap.Int("items", len(req.Items)))

	// the row is committed, so the webhook and status write must finish even
	// if the caller goes away
	status := s.deliver(context.WithoutCancel(ctx), req, company)
	return Result{Success: true, HaulingRequestID: req.ID, Status: status}, nil
}

func (s *Service) build(caller Caller, in Request) (*models.HaulingRequest, error) {
	projectID, err := requiredID("project_id", in.ProjectID)
	if err != nil {
		return nil, err
	}
	address := strings.TrimSpace(in.ProjectAddress)
	if address == "" {
		return nil, apperr.Validation("project_address is required")
	}
	companyID, err := requiredID("hauling_company_id", in.HaulingCompanyID)
	if err != nil {
		return nil, err
	}

	orgID := caller.OrgID
	if in.OrgID != "" {
		id, err := uuid.Parse(in.OrgID)
		if err != nil || id != caller.OrgID {
			return nil, apperr.Validation("org_id does not match the signed-in employee")
		}
	}
	submitter := caller.EmployeeID
	if in.SubmittedByEmployeeID != "" {
		if submitter, err = uuid.Parse(in.SubmittedByEmployeeID); err != nil {
			return nil, apperr.Validation("submitted_by_employee_id is not a valid id")
		}
	}

	req := &models.HaulingRequest{
		ID:                    uuid.New(),
		OrgID:                 orgID,
		ProjectID:             projectID,
		SubmittedByEmployeeID: submitter,
		ProjectAddress:        address,
		HaulingCompanyID:      companyID,
		Status:                models.HaulingPending,
	}
	for _, group := range []struct {
		service string
		entries []DumpsterEntry
	}{
		{models.ServiceAdd, in.AddDumpsters},
		{models.ServiceReplace, in.ReplaceDumpsters},
	} {
		items, err := lineItems(req.ID, group.service, group.entries)
		if err != nil {
			return nil, err
		}
		req.Items = append(req.Items, items...)
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("at least one dumpster quantity is required")
	}
	return req, nil
}

// lineItems drops zero-quantity entries
func lineItems(requestID uuid.UUID, service string, entries []DumpsterEntry) ([]models.HaulingRequestItem, error) {
	var items []models.HaulingRequestItem
	for _, e := range entries {
		kind := strings.TrimSpace(e.DumpsterType)
		if e.Quantity < 0 {
			return nil, apperr.Validation("%s %q: quantity cannot be negative", service, kind)
		}
		if e.Quantity == 0 {
			continue
		}
		if kind == "" {
			return nil, apperr.Validation("%s: dumpster_type is required", service)
		}
		if e.ExtraWorkQuantity < 0 || e.ExtraWorkQuantity > e.Quantity {
			return nil, apperr.Validation("%s %q: extra_work_quantity must be between 0 and %d", service, kind, e.Quantity)
		}
		items = append(items, models.HaulingRequestItem{
			ID:                uuid.New(),
			HaulingRequestID:  requestID,
			DumpsterType:      kind,
			Service:           service,
			QuantityTotal:     e.Quantity,
			QuantityExtraWork: e.ExtraWorkQuantity,
		})
	}
	return items, nil
}

func (s *Service) deliver(ctx context.Context, req *models.HaulingRequest, company models.HaulingCompany) string {
	url := company.WebhookURL
	if url == "" {
		url = s.defaultURL
	}

	status := models.HaulingFailed
	d := Delivery{AttemptedAt: s.now()}
	if url == "" {
		s.log.Warn("no webhook configured", zap.String("hauling_company_id", company.ID.String()))
	} else {
		nctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
		var err error
		d, err = s.notifier.Notify(nctx, url, NewPayload(req, company))
		cancel()
		switch {
		case err != nil:
			s.log.Warn("webhook call failed", zap.String("hauling_request_id", req.ID.String()), zap.Error(err))
		case d.OK():
			status = models.HaulingSent
		default:
			s.log.Warn("webhook rejected request",
				zap.String("hauling_request_id", req.ID.String()),
				zap.Int("status_code", d.StatusCode))
		}
		if d.AttemptedAt.IsZero() {
			d.AttemptedAt = s.now()
		}
	}

	// the request is committed; a failed status write is logged, not returned
	wctx, cancel := context.WithTimeout(ctx, statusWriteTimeout)
	defer cancel()
	if err := s.store.SetStatus(wctx, req.ID, status, d); err != nil {
		s.log.Error("could not record webhook status",
			zap.String("hauling_request_id", req.ID.String()),
			zap.String("status", status),
			zap.Error(err))
	}
	req.Status = status
	return status
}

func requiredID(field, v string) (uuid.UUID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return uuid.Nil, apperr.Validation("%s is required", field)
	}
	id, err := uuid.Parse(v)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Validation("%s is not a valid id", field)
	}
	return id, nil
}
