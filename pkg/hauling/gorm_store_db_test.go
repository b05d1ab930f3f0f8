package hauling

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/testutil"
)

func TestGormStoreTwentyYardNormalWork(t *testing.T) {
	db := testutil.DB(t)
	org, project, foreman, company := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(db.Create(&models.Organization{ID: org, Name: "Hauling Org " + org.String()[:8]}).Error)
	must(db.Create(&models.Project{ID: project, OrgID: org, Name: "Depot", ProjectNumber: "H-" + project.String()[:8], Status: models.ProjectActive}).Error)
	must(db.Create(&models.Employee{ID: foreman, OrgID: org, FirstName: "Dana", LastName: "Foreman", Role: models.RoleWorker, IsActive: true}).Error)
	must(db.Create(&models.HaulingCompany{ID: company, OrgID: org, Name: "Acme Roll-Off", WebhookURL: "https://acme.example/hook", IsActive: true}).Error)

	notifier := &stubNotifier{code: http.StatusOK}
	svc := NewService(NewGormStore(db), notifier, "", nil)
	res, err := svc.Submit(context.Background(), Caller{OrgID: org, EmployeeID: foreman}, Request{
		ProjectID:        project.String(),
		ProjectAddress:   "100 Main St",
		HaulingCompanyID: company.String(),
		AddDumpsters:     []DumpsterEntry{{DumpsterType: "20 Yard", Quantity: 2, ExtraWorkQuantity: 1}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var headers int64
	must(db.Model(&models.HaulingRequest{}).Where("id = ?", res.HaulingRequestID).Count(&headers).Error)
	if headers != 1 {
		t.Errorf("hauling_requests rows = %d, expected 1", headers)
	}

	var items []models.HaulingRequestItem
	must(db.Where("hauling_request_id = ?", res.HaulingRequestID).Find(&items).Error)
	if len(items) != 1 {
		t.Fatalf("hauling_request_items rows = %d, expected 1", len(items))
	}
	it := items[0]
	if it.DumpsterType != "20 Yard" || it.Service != models.ServiceAdd {
		t.Errorf("item = %+v", it)
	}
	if it.QuantityTotal != 2 || it.QuantityExtraWork != 1 || it.QuantityNormalWork != 1 {
		t.Errorf("quantities total=%d extra=%d normal=%d, expected 2/1/1",
			it.QuantityTotal, it.QuantityExtraWork, it.QuantityNormalWork)
	}

	var stored models.HaulingRequest
	must(db.First(&stored, "id = ?", res.HaulingRequestID).Error)
	if stored.Status != models.HaulingSent || stored.WebhookStatusCode != http.StatusOK {
		t.Errorf("status = %q code = %d, expected sent/200", stored.Status, stored.WebhookStatusCode)
	}
}

func TestGormStoreEmployeesInOrg(t *testing.T) {
	db := testutil.DB(t)
	org, other := uuid.New(), uuid.New()
	a, b, outsider, inactive := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(db.Create(&models.Organization{ID: org, Name: "Org " + org.String()[:8]}).Error)
	must(db.Create(&models.Organization{ID: other, Name: "Org " + other.String()[:8]}).Error)
	for _, e := range []models.Employee{
		{ID: a, OrgID: org, FirstName: "A", LastName: "A", Role: models.RoleWorker, IsActive: true},
		{ID: b, OrgID: org, FirstName: "B", LastName: "B", Role: models.RoleWorker, IsActive: true},
		{ID: outsider, OrgID: other, FirstName: "C", LastName: "C", Role: models.RoleWorker, IsActive: true},
		{ID: inactive, OrgID: org, FirstName: "D", LastName: "D", Role: models.RoleWorker, IsActive: true},
	} {
		must(db.Create(&e).Error)
	}
	// IsActive false is skipped on insert because of the column default
	must(db.Model(&models.Employee{}).Where("id = ?", inactive).Update("is_active", false).Error)

	store := NewGormStore(db)
	tests := []struct {
		name string
		ids  []uuid.UUID
		want bool
	}{
		{"same org", []uuid.UUID{a, b}, true},
		{"repeated id", []uuid.UUID{a, a}, true},
		{"other org", []uuid.UUID{a, outsider}, false},
		{"inactive", []uuid.UUID{inactive}, false},
		{"unknown", []uuid.UUID{uuid.New()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.EmployeesInOrg(context.Background(), org, tt.ids)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("EmployeesInOrg = %v, expected %v", got, tt.want)
			}
		})
	}
}
