package routes

import (
	"github.com/gorilla/mux"

	"p9e.in/fieldreport/config"
	"p9e.in/fieldreport/handlers"
	"p9e.in/fieldreport/middleware"
)

// RegisterProjectRoutes registers the project lookups and every
// per-project submission listing
func RegisterProjectRoutes(r *mux.Router, d Deps) {
	projects := handlers.NewProjectHandler(d.DB)
	ptp := handlers.NewPTPHandler(d.DB, d.Log)
	tc := handlers.NewTimeCardHandler(d.DB, d.Log)
	logs := handlers.NewActivityLogHandler(d.DB, d.Log)
	ins := handlers.NewInspectionHandler(d.DB, d.Log)
	ew := handlers.NewExtraWorkHandler(d.DB, d.Log)
	haul := newHaulingHandler(d)
	inj := newInjuryHandler(d)

	r.Handle("/projects", middleware.Protect(config.PermDirectoryRead, projects.List)).Methods("GET")
	r.Handle("/projects/{id}", middleware.Protect(config.PermDirectoryRead, projects.Get)).Methods("GET")

	// PTPs
	r.Handle("/projects/{id}/ptps", middleware.Protect(config.PermFormsRead, ptp.ListByProject)).Methods("GET")
	r.Handle("/projects/{id}/ptps/latest", middleware.Protect(config.PermFormsRead, ptp.Latest)).Methods("GET")

	// Time cards
	r.Handle("/projects/{id}/timecards", middleware.Protect(config.PermTimecardRead, tc.ListByProject)).Methods("GET")
	r.Handle("/projects/{id}/timecards/latest", middleware.Protect(config.PermTimecardRead, tc.Latest)).Methods("GET")
	r.Handle("/projects/{id}/timecards/export", middleware.Protect(config.PermTimecardExport, tc.Export)).Methods("GET")

	// Other forms
	r.Handle("/projects/{id}/activity-logs", middleware.Protect(config.PermFormsRead, logs.ListByProject)).Methods("GET")
	r.Handle("/projects/{id}/inspections", middleware.Protect(config.PermFormsRead, ins.ListByProject)).Methods("GET")
	r.Handle("/projects/{id}/extra-work", middleware.Protect(config.PermFormsRead, ew.ListByProject)).Methods("GET")
	r.Handle("/projects/{id}/hauling-requests", middleware.Protect(config.PermFormsRead, haul.ListByProject)).Methods("GET")
	r.Handle("/projects/{id}/injury-reports", middleware.Protect(config.PermSafetyRead, inj.ListByProject)).Methods("GET")

	r.Handle("/hauling-companies", middleware.Protect(config.PermHaulingSubmit, haul.Companies)).Methods("GET")
	r.Handle("/injury-reports/{id}", middleware.Protect(config.PermSafetyRead, inj.Get)).Methods("GET")
}
