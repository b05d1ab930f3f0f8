package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"p9e.in/fieldreport/config"
	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/session"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func issue(t *testing.T, m *session.Manager, role string, withEmployee bool) string {
	t.Helper()
	id := session.Identity{UserID: uuid.New(), Role: role}
	if withEmployee {
		id.OrgID, id.EmployeeID = uuid.New(), uuid.New()
	}
	pair, err := m.Issue(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return pair.AccessToken
}

func TestJWTMiddleware(t *testing.T) {
	m := session.NewManager("secret", time.Hour, time.Hour, session.NewMemoryStore())
	token := issue(t, m, models.RoleWorker, true)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			JWTMiddleware(m)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRequirePermissionAndEmployee(t *testing.T) {
	m := session.NewManager("secret", time.Hour, time.Hour, session.NewMemoryStore())

	tests := []struct {
		name         string
		role         string
		withEmployee bool
		permission   string
		status       int
	}{
		{"worker submits", models.RoleWorker, true, config.PermFormsSubmit, http.StatusOK},
		{"worker cannot export", models.RoleWorker, true, config.PermTimecardExport, http.StatusForbidden},
		{"foreman exports", models.RoleForeman, true, config.PermTimecardExport, http.StatusOK},
		{"admin anything", models.RoleAdmin, true, config.PermHaulingSubmit, http.StatusOK},
		{"login without employee", models.RoleAdmin, false, config.PermFormsRead, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/x", nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, m, tt.role, tt.withEmployee))
			rec := httptest.NewRecorder()

			h := JWTMiddleware(m)(RequireEmployee(RequirePermission(tt.permission)(ok)))
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d", rec.Code, tt.status)
			}
		})
	}
}

func TestSecurityMiddleware(t *testing.T) {
	clients := APIClients(config.SecurityConfig{MobileAppKey: "mobile", InternalOpsKey: "ops"})
	h := SecurityMiddleware(clients, zap.NewNop())(ok)

	tests := []struct {
		name   string
		key    string
		method string
		path   string
		status int
	}{
		{"mobile form post", "mobile", http.MethodPost, "/api/v1/timecards", http.StatusOK},
		{"mobile function call", "mobile", http.MethodPost, "/functions/v1/submit-hauling-request", http.StatusOK},
		{"mobile delete refused", "mobile", http.MethodDelete, "/api/v1/timecards/1", http.StatusMethodNotAllowed},
		{"mobile outside prefix", "mobile", http.MethodGet, "/internal/stats", http.StatusForbidden},
		{"ops anywhere", "ops", http.MethodDelete, "/internal/stats", http.StatusOK},
		{"missing key", "", http.MethodGet, "/api/v1/me", http.StatusUnauthorized},
		{"preflight passes", "", http.MethodOptions, "/api/v1/me", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("x-api-key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d", rec.Code, tt.status)
			}
		})
	}
}

func TestSecurityMiddlewareWithoutKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityMiddleware(APIClients(config.SecurityConfig{}), zap.NewNop())(ok).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected pass-through", rec.Code)
	}
}

func TestRequestIDAndRecoverer(t *testing.T) {
	var seen string
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
		panic("boom")
	})
	h := RequestID(RequestLogger(zap.NewNop())(Recoverer(zap.NewNop())(panicky)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", rec.Code)
	}
	if seen != "req-42" || rec.Header().Get("X-Request-ID") != "req-42" {
		t.Errorf("request id = %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/me", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Errorf("preflight = %d, origin %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin was allowed")
	}
}
