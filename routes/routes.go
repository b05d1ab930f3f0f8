package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/config"
	_ "p9e.in/fieldreport/docs"
	"p9e.in/fieldreport/handlers"
	"p9e.in/fieldreport/middleware"
	"p9e.in/fieldreport/pkg/hauling"
	"p9e.in/fieldreport/pkg/injury"
	"p9e.in/fieldreport/pkg/session"
	"p9e.in/fieldreport/pkg/storage"
)

// Deps are the shared services the routes are built from
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	Tokens *session.Manager
	Store  storage.ObjectStore
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(d Deps) http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/healthz", healthz(d.DB)).Methods("GET")
	r.HandleFunc("/swagger/doc.json", swaggerDoc).Methods("GET")
	if local, ok := d.Store.(*storage.LocalStore); ok {
		r.PathPrefix("/files/").Handler(local.Handler()).Methods("GET")
	}

	clients := middleware.APIClients(d.Config.Security)
	security := middleware.SecurityMiddleware(clients, d.Log)

	auth := r.PathPrefix("/auth/v1").Subrouter()
	auth.Use(security)
	authHandler := handlers.NewAuthHandler(handlers.NewGormAccounts(d.DB), d.Tokens, d.Log)
	auth.HandleFunc("/token", authHandler.Login).Methods("POST")
	auth.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(security)
	api.Use(middleware.JWTMiddleware(d.Tokens))
	api.Use(middleware.TrackUser)

	directory := handlers.NewDirectoryHandler(d.DB)
	// /me answers 404 for a login with no employee, so it skips RequireEmployee
	api.HandleFunc("/me", directory.Me).Methods("GET")

	forms := api.NewRoute().Subrouter()
	forms.Use(middleware.RequireEmployee)
	forms.Handle("/employees", middleware.Protect(config.PermDirectoryRead, directory.Employees)).Methods("GET")
	forms.Handle("/drafts/{kind}/step", middleware.Protect(config.PermFormsSubmit, handlers.DraftStep)).Methods("POST")

	registerStorageRoutes(forms, d)
	RegisterProjectRoutes(forms, d)
	registerFormRoutes(forms, d)

	// =====================================================
	// Functions (submit fan-out, every failure is a 400)
	// =====================================================
	fn := r.PathPrefix("/functions/v1").Subrouter()
	fn.Use(security)
	fn.Use(middleware.JWTMiddleware(d.Tokens))
	fn.Use(middleware.TrackUser)
	fn.Use(middleware.RequireEmployee)
	registerFunctionRoutes(fn, d)

	// outside the router so preflights and unmatched paths are covered too
	var h http.Handler = r
	h = middleware.Recoverer(d.Log)(h)
	h = middleware.RequestLogger(d.Log)(h)
	h = middleware.RequestID(h)
	return middleware.CORS(d.Config.Server.CORSOrigins)(h)
}

func registerStorageRoutes(r *mux.Router, d Deps) {
	h := handlers.NewStorageHandler(d.Store, d.Config.Storage.MaxUploadMB, d.Log)
	r.Handle("/storage/{bucket}", middleware.Protect(config.PermStorageWrite, h.Upload)).Methods("POST")
	r.Handle("/storage/{bucket}/sign", middleware.Protect(config.PermStorageRead, h.Sign)).Methods("POST")
}

func registerFormRoutes(r *mux.Router, d Deps) {
	ptp := handlers.NewPTPHandler(d.DB, d.Log)
	r.Handle("/ptps", middleware.Protect(config.PermFormsSubmit, ptp.Create)).Methods("POST")
	r.Handle("/ptps/{id}", middleware.Protect(config.PermFormsRead, ptp.Get)).Methods("GET")
	r.Handle("/ptps/{id}", middleware.Protect(config.PermFormsEdit, ptp.Update)).Methods("PUT")
	r.Handle("/ptps/{id}/draft", middleware.Protect(config.PermFormsEdit, ptp.EditDraft)).Methods("GET")
	r.Handle("/ptps/{id}/duplicate", middleware.Protect(config.PermFormsSubmit, ptp.Duplicate)).Methods("POST")

	tc := handlers.NewTimeCardHandler(d.DB, d.Log)
	r.Handle("/timecards", middleware.Protect(config.PermTimecardEdit, tc.Create)).Methods("POST")
	r.Handle("/timecards/{id}", middleware.Protect(config.PermTimecardRead, tc.Get)).Methods("GET")
	r.Handle("/timecards/{id}", middleware.Protect(config.PermTimecardEdit, tc.Update)).Methods("PUT")
	r.Handle("/timecards/{id}/draft", middleware.Protect(config.PermTimecardEdit, tc.EditDraft)).Methods("GET")

	logs := handlers.NewActivityLogHandler(d.DB, d.Log)
	r.Handle("/activity-logs", middleware.Protect(config.PermFormsSubmit, logs.Create)).Methods("POST")
	r.Handle("/activity-logs/{id}", middleware.Protect(config.PermFormsRead, logs.Get)).Methods("GET")
	r.Handle("/activity-logs/{id}", middleware.Protect(config.PermFormsEdit, logs.Update)).Methods("PUT")

	ins := handlers.NewInspectionHandler(d.DB, d.Log)
	r.Handle("/inspections", middleware.Protect(config.PermFormsSubmit, ins.Create)).Methods("POST")
	r.Handle("/inspections/{id}", middleware.Protect(config.PermFormsRead, ins.Get)).Methods("GET")

	ew := handlers.NewExtraWorkHandler(d.DB, d.Log)
	r.Handle("/extra-work", middleware.Protect(config.PermFormsSubmit, ew.Create)).Methods("POST")
	r.Handle("/extra-work/{id}", middleware.Protect(config.PermFormsRead, ew.Get)).Methods("GET")
	r.Handle("/extra-work/{id}", middleware.Protect(config.PermFormsEdit, ew.Update)).Methods("PUT")
}

func registerFunctionRoutes(r *mux.Router, d Deps) {
	h := newHaulingHandler(d)
	r.Handle("/submit-hauling-request", middleware.Protect(config.PermHaulingSubmit, h.Submit)).Methods("POST")

	inj := newInjuryHandler(d)
	r.Handle("/submit-injury-report", middleware.Protect(config.PermFormsSubmit, inj.Submit)).Methods("POST")
}

func newHaulingHandler(d Deps) *handlers.HaulingHandler {
	store := hauling.NewGormStore(d.DB)
	notifier := hauling.NewHTTPNotifier(d.Config.Hauling.WebhookTimeout, d.Config.Hauling.WebhookAPIKey)
	svc := hauling.NewService(store, notifier, d.Config.Hauling.WebhookURL, d.Log).
		WithDeliveryTimeout(d.Config.Hauling.WebhookTimeout)
	return handlers.NewHaulingHandler(svc, store)
}

func newInjuryHandler(d Deps) *handlers.InjuryHandler {
	store := injury.NewGormStore(d.DB)
	return handlers.NewInjuryHandler(injury.NewService(store, d.Log), store)
}

func healthz(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			status, code = "database unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write([]byte(`{"status":"` + status + `"}`))
	}
}

func swaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
