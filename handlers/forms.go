package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fieldreport/middleware"
	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/storage"
)

// header stamps a new submission for the caller
func header(s middleware.Scope, projectID uuid.UUID, now time.Time) models.SubmissionHeader {
	return models.SubmissionHeader{
		OrgID:                 s.OrgID,
		ProjectID:             projectID,
		SubmittedByEmployeeID: s.EmployeeID,
		SubmittedAt:           models.JSONTime(now.UTC()),
	}
}

// requireProject loads a project only if it belongs to orgID
func requireProject(tx *gorm.DB, orgID, projectID uuid.UUID) (models.Project, error) {
	var p models.Project
	if projectID == uuid.Nil {
		return p, apperr.Validation("project_id is required")
	}
	err := tx.Where("id = ? AND org_id = ?", projectID, orgID).First(&p).Error
	if apperr.IsNotFound(err) {
		return p, apperr.Validation("project %s is not in your organization", projectID)
	}
	return p, apperr.FromDB(err, "project")
}

// requireEmployees checks that every id is an active employee of orgID
func requireEmployees(tx *gorm.DB, orgID uuid.UUID, ids []uuid.UUID) error {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}
	list := make([]uuid.UUID, 0, len(unique))
	for id := range unique {
		list = append(list, id)
	}
	var count int64
	err := tx.Model(&models.Employee{}).
		Where("org_id = ? AND is_active = ? AND id IN ?", orgID, true, list).
		Count(&count).Error
	if err != nil {
		return apperr.FromDB(err, "employee")
	}
	if int(count) != len(list) {
		return apperr.Validation("selection contains an employee outside your organization")
	}
	return nil
}

// activeChildren preloads child tables filtered to is_active rows
func activeChildren(db *gorm.DB, relations ...string) *gorm.DB {
	for _, rel := range relations {
		db = db.Preload(rel, "is_active = ?", true)
	}
	return db
}

// findScoped loads one form header of type T from the caller's org
func findScoped[T any](ctx context.Context, db *gorm.DB, orgID, id uuid.UUID, what string) (T, error) {
	var out T
	err := db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).First(&out).Error
	return out, apperr.FromDB(err, what)
}

// listByProject returns the newest submissions of type T for a project
func listByProject[T any](ctx context.Context, db *gorm.DB, orgID, projectID uuid.UUID, p page) ([]T, error) {
	out := []T{}
	err := db.WithContext(ctx).
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Order("submitted_at DESC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&out).Error
	return out, apperr.FromDB(err, "submissions")
}

// latestByCaller returns the caller's most recent submission of type T for
// a project, or nil when there is none yet.
func latestByCaller[T any](ctx context.Context, db *gorm.DB, s middleware.Scope, projectID uuid.UUID) (*T, error) {
	var out T
	err := db.WithContext(ctx).
		Where("org_id = ? AND project_id = ? AND submitted_by_employee_id = ?", s.OrgID, projectID, s.EmployeeID).
		Order("submitted_at DESC").
		First(&out).Error
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromDB(err, "submission")
	}
	return &out, nil
}

// checkPaths rejects attachment paths outside the caller's org
func checkPaths(orgID uuid.UUID, paths ...string) error {
	for _, p := range paths {
		if err := storage.CheckPath(p, orgID); err != nil {
			return err
		}
	}
	return nil
}

// sameProject rejects edits that try to move a submission
func sameProject(stored, next uuid.UUID) error {
	if next != uuid.Nil && next != stored {
		return apperr.Validation("project_id cannot change on edit")
	}
	return nil
}
