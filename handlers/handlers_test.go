package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"p9e.in/fieldreport/middleware"
	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/hauling"
	"p9e.in/fieldreport/pkg/session"
	"p9e.in/fieldreport/pkg/storage"
)

var (
	testOrg      = uuid.MustParse("0b9f7f1e-6c3a-4f6e-9d55-3f0a2b1c4d5e")
	testEmployee = uuid.MustParse("6d1c2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f")
)

// asEmployee returns r carrying claims for a foreman in testOrg
func asEmployee(r *http.Request) *http.Request {
	return withScope(r, testOrg, testEmployee)
}

func withScope(r *http.Request, orgID, employeeID uuid.UUID) *http.Request {
	claims := &session.Claims{
		UserID:     uuid.NewString(),
		EmployeeID: employeeID.String(),
		OrgID:      orgID.String(),
		Role:       models.RoleForeman,
	}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestWriteAppErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("work_date is required"), http.StatusBadRequest, "work_date is required"},
		{"not found", apperr.NotFound("time card"), http.StatusNotFound, "time card not found"},
		{"forbidden", apperr.Forbidden("path belongs to another organization"), http.StatusForbidden, "path belongs to another organization"},
		{"internal", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeAppError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d", rec.Code, tt.status)
			}
			var body map[string]string
			decodeBody(t, rec, &body)
			if body["error"] != tt.msg {
				t.Errorf("error = %q, expected %q", body["error"], tt.msg)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query  string
		expect page
	}{
		{"", page{Limit: defaultPageSize}},
		{"limit=10&offset=20", page{Limit: 10, Offset: 20}},
		{"limit=5000", page{Limit: maxPageSize}},
		{"limit=-1&offset=abc", page{Limit: defaultPageSize}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
		if got := parsePage(r); got != tt.expect {
			t.Errorf("parsePage(%q) = %+v, expected %+v", tt.query, got, tt.expect)
		}
	}
}

func TestScopeRequiresEmployee(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r = r.WithContext(middleware.WithClaims(r.Context(), &session.Claims{UserID: uuid.NewString()}))
	rec := httptest.NewRecorder()
	if _, ok := scope(rec, r); ok {
		t.Fatal("scope should fail without an employee")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	s, ok := scope(rec, asEmployee(httptest.NewRequest(http.MethodGet, "/x", nil)))
	if !ok || s.OrgID != testOrg || s.EmployeeID != testEmployee {
		t.Errorf("scope = %+v, %v", s, ok)
	}
}

func TestExtraWorkValidate(t *testing.T) {
	base := func() extraWorkRequest {
		return extraWorkRequest{
			ProjectID:   uuid.New(),
			WorkDate:    models.NewDate(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)),
			Description: " Extra trenching ",
		}
	}
	worker := uuid.New()
	tests := []struct {
		name    string
		mutate  func(r *extraWorkRequest)
		wantErr bool
	}{
		{"no lines", func(r *extraWorkRequest) {}, true},
		{"empty slices", func(r *extraWorkRequest) {
			r.Labor, r.Materials = []laborInput{}, []materialInput{}
		}, true},
		{"labor only", func(r *extraWorkRequest) { r.Labor = []laborInput{{EmployeeID: worker, Hours: 4}} }, false},
		{"materials only", func(r *extraWorkRequest) {
			r.Materials = []materialInput{{Description: "Gravel", Quantity: 3, Unit: "ton"}}
		}, false},
		{"same worker twice", func(r *extraWorkRequest) {
			r.Labor = []laborInput{{EmployeeID: worker, Hours: 4}, {EmployeeID: worker, Hours: 2}}
		}, true},
		{"blank description", func(r *extraWorkRequest) {
			r.Description = "  "
			r.Labor = []laborInput{{EmployeeID: worker, Hours: 4}}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := r.validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("kind = %v, expected validation", apperr.KindOf(err))
			}
		})
	}
}

type fakeHauling struct {
	caller hauling.Caller
	in     hauling.Request
	err    error
}

func (f *fakeHauling) Submit(_ context.Context, caller hauling.Caller, in hauling.Request) (hauling.Result, error) {
	f.caller, f.in = caller, in
	if f.err != nil {
		return hauling.Result{}, f.err
	}
	return hauling.Result{Success: true, HaulingRequestID: uuid.New(), Status: "sent"}, nil
}

func (f *fakeHauling) ListByProject(context.Context, uuid.UUID, uuid.UUID) ([]models.HaulingRequest, error) {
	return []models.HaulingRequest{}, nil
}

func (f *fakeHauling) Companies(context.Context, uuid.UUID) ([]models.HaulingCompany, error) {
	return []models.HaulingCompany{}, nil
}

func TestHaulingSubmit(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		errMsg string
	}{
		{"accepted", `{"project_id":"` + uuid.NewString() + `"}`, nil, http.StatusOK, ""},
		{"service validation", `{}`, apperr.Validation("project_id is required"), http.StatusBadRequest, "project_id is required"},
		{"internal error is still 400", `{}`, errors.New("db down"), http.StatusBadRequest, "internal error"},
		{"bad json", `{`, nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeHauling{err: tt.err}
			h := NewHaulingHandler(svc, svc)
			req := asEmployee(httptest.NewRequest(http.MethodPost, "/functions/v1/submit-hauling-request", strings.NewReader(tt.body)))
			rec := httptest.NewRecorder()
			h.Submit(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, expected %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				var res hauling.Result
				decodeBody(t, rec, &res)
				if !res.Success || svc.caller.OrgID != testOrg || svc.caller.EmployeeID != testEmployee {
					t.Errorf("result = %+v, caller = %+v", res, svc.caller)
				}
				return
			}
			if tt.errMsg != "" {
				var body map[string]string
				decodeBody(t, rec, &body)
				if body["error"] != tt.errMsg {
					t.Errorf("error = %q, expected %q", body["error"], tt.errMsg)
				}
			}
		})
	}
}

func TestHaulingListEmptyIsArray(t *testing.T) {
	svc := &fakeHauling{}
	h := NewHaulingHandler(svc, svc)
	req := asEmployee(httptest.NewRequest(http.MethodGet, "/x", nil))
	req = mux.SetURLVars(req, map[string]string{"id": uuid.NewString()})
	rec := httptest.NewRecorder()
	h.ListByProject(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"hauling_requests":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func postStep(t *testing.T, kind, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/drafts/"+kind+"/step", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"kind": kind})
	rec := httptest.NewRecorder()
	DraftStep(rec, req)
	return rec
}

func TestDraftStepPTP(t *testing.T) {
	project := uuid.NewString()
	rec := postStep(t, DraftPTP, `{"step":{"name":"header","input":{"project_id":"`+project+`","work_date":"2026-03-02"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	type stepResp struct {
		Draft    json.RawMessage `json:"draft"`
		Complete bool            `json:"complete"`
		Missing  string          `json:"missing"`
	}
	var resp stepResp
	decodeBody(t, rec, &resp)
	if resp.Complete || resp.Missing != "at least one task is required" {
		t.Errorf("complete = %v, missing = %q", resp.Complete, resp.Missing)
	}

	// carry the returned draft through the remaining steps
	draft := string(resp.Draft)
	rec = postStep(t, DraftPTP, `{"draft":`+draft+`,"step":{"name":"tasks","input":[{"description":"Set forms","hazards":["pinch points"," "]}]}}`)
	resp = stepResp{}
	decodeBody(t, rec, &resp)
	draft = string(resp.Draft)
	rec = postStep(t, DraftPTP, `{"draft":`+draft+`,"step":{"name":"workers","input":["`+testEmployee.String()+`"]}}`)
	resp = stepResp{}
	decodeBody(t, rec, &resp)
	if !resp.Complete || resp.Missing != "" {
		t.Errorf("expected complete draft, missing = %q", resp.Missing)
	}
	if !strings.Contains(string(resp.Draft), project) {
		t.Errorf("draft lost its header: %s", resp.Draft)
	}
}

func TestDraftStepErrors(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		body   string
		status int
	}{
		{"unknown kind", "inspection", `{"step":{"name":"header"}}`, http.StatusNotFound},
		{"unknown step", DraftTimeCard, `{"step":{"name":"bogus","input":{}}}`, http.StatusBadRequest},
		{"missing input", DraftPTP, `{"step":{"name":"header"}}`, http.StatusBadRequest},
		{"bad draft", DraftPTP, `{"draft":"nope","step":{"name":"photos","input":[]}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postStep(t, tt.kind, tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, expected %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func newLocalStorageHandler(t *testing.T) (*StorageHandler, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "http://files.test", "signing-key")
	if err != nil {
		t.Fatal(err)
	}
	h := NewStorageHandler(store, 1, zap.NewNop())
	h.now = func() time.Time { return time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC) }
	return h, root
}

func TestStorageUpload(t *testing.T) {
	h, root := newLocalStorageHandler(t)
	project := uuid.New()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("project_id", project.String())
	mw.WriteField("submission", "draft-1")
	fw, _ := mw.CreateFormFile("file", "../site photo.jpg")
	fw.Write([]byte("jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/storage/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = mux.SetURLVars(asEmployee(req), map[string]string{"bucket": storage.BucketPhotos})
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	expected := testOrg.String() + "/" + project.String() + "/draft-1/20260302-073000-site_photo.jpg"
	if resp["path"] != expected {
		t.Errorf("path = %q, expected %q", resp["path"], expected)
	}
	data, err := os.ReadFile(filepath.Join(root, storage.BucketPhotos, filepath.FromSlash(expected)))
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("stored object = %q, %v", data, err)
	}
}

func TestStorageUploadRejects(t *testing.T) {
	h, _ := newLocalStorageHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/storage/secrets", strings.NewReader(""))
	req = mux.SetURLVars(asEmployee(req), map[string]string{"bucket": "secrets"})
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown bucket status = %d, expected 404", rec.Code)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("submission", "draft-1")
	mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/storage/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = mux.SetURLVars(asEmployee(req), map[string]string{"bucket": storage.BucketPhotos})
	rec = httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing project status = %d, expected 400", rec.Code)
	}
}

func TestStorageSign(t *testing.T) {
	h, _ := newLocalStorageHandler(t)
	own := testOrg.String() + "/" + uuid.NewString() + "/draft-1/a.jpg"
	other := uuid.NewString() + "/" + uuid.NewString() + "/draft-1/a.jpg"

	tests := []struct {
		name      string
		body      string
		status    int
		expiresIn int64
	}{
		{"default ttl", `{"path":"` + own + `"}`, http.StatusOK, 3600},
		{"capped ttl", `{"path":"` + own + `","expires_in":99999999}`, http.StatusOK, int64(storage.MaxSignedURLTTL / time.Second)},
		{"other org", `{"path":"` + other + `"}`, http.StatusForbidden, 0},
		{"malformed path", `{"path":"a/b"}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/storage/photos/sign", strings.NewReader(tt.body))
			req = mux.SetURLVars(asEmployee(req), map[string]string{"bucket": storage.BucketPhotos})
			rec := httptest.NewRecorder()
			h.Sign(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, expected %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp struct {
				SignedURL string `json:"signed_url"`
				ExpiresIn int64  `json:"expires_in"`
			}
			decodeBody(t, rec, &resp)
			if !strings.HasPrefix(resp.SignedURL, "http://files.test/files/photos/"+own+"?") {
				t.Errorf("signed_url = %q", resp.SignedURL)
			}
			if resp.ExpiresIn != tt.expiresIn {
				t.Errorf("expires_in = %d, expected %d", resp.ExpiresIn, tt.expiresIn)
			}
		})
	}
}

type fakeAccounts struct {
	users   map[string]models.User
	touched int
}

func (f *fakeAccounts) FindByLogin(_ context.Context, login string) (models.User, error) {
	u, ok := f.users[strings.ToLower(login)]
	if !ok {
		return models.User{}, apperr.NotFound("user")
	}
	return u, nil
}

func (f *fakeAccounts) Identity(_ context.Context, userID uuid.UUID) (session.Identity, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return session.Identity{UserID: u.ID, EmployeeID: testEmployee, OrgID: testOrg, Name: "Rosa Diaz", Role: "foreman"}, nil
		}
	}
	return session.Identity{}, apperr.NotFound("user")
}

func (f *fakeAccounts) TouchLogin(context.Context, uuid.UUID, time.Time) error {
	f.touched++
	return nil
}

func newAuthHandler(t *testing.T) (*AuthHandler, *fakeAccounts) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{ID: uuid.New(), Email: "rosa@example.com", Phone: "5550100", PasswordHash: string(hash), IsActive: true}
	accounts := &fakeAccounts{users: map[string]models.User{"rosa@example.com": u, "5550100": u}}
	tokens := session.NewManager("test-secret", time.Hour, 24*time.Hour, session.NewMemoryStore())
	return NewAuthHandler(accounts, tokens, zap.NewNop()), accounts
}

func call(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/v1/token", strings.NewReader(body)))
	return rec
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"email", `{"email":"Rosa@Example.com","password":"hunter22"}`, http.StatusOK},
		{"phone", `{"phone":"5550100","password":"hunter22"}`, http.StatusOK},
		{"wrong password", `{"email":"rosa@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"email":"ghost@example.com","password":"hunter22"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"rosa@example.com"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, accounts := newAuthHandler(t)
			rec := call(h.Login, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, expected %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp loginResp
			decodeBody(t, rec, &resp)
			if resp.AccessToken == "" || resp.RefreshToken == "" {
				t.Error("expected both tokens")
			}
			if resp.User.OrgID != testOrg.String() || resp.User.Role != "foreman" {
				t.Errorf("user = %+v", resp.User)
			}
			if accounts.touched != 1 {
				t.Errorf("last login recorded %d times", accounts.touched)
			}
		})
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	h, _ := newAuthHandler(t)
	var login loginResp
	decodeBody(t, call(h.Login, `{"email":"rosa@example.com","password":"hunter22"}`), &login)

	rec := call(h.Refresh, `{"refresh_token":"`+login.RefreshToken+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	var pair session.TokenPair
	decodeBody(t, rec, &pair)

	if rec := call(h.Refresh, `{"refresh_token":"`+login.RefreshToken+`"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh token status = %d, expected 401", rec.Code)
	}
	if rec := call(h.Refresh, `{"refresh_token":"`+login.AccessToken+`"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("access token as refresh status = %d, expected 401", rec.Code)
	}

	if rec := call(h.Logout, `{"refresh_token":"`+pair.RefreshToken+`"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := call(h.Refresh, `{"refresh_token":"`+pair.RefreshToken+`"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, expected 401", rec.Code)
	}
}
