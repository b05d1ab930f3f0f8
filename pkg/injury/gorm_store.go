package injury

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/fieldreport/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ProjectExists(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ? AND org_id = ?", id, orgID).Count(&n).Error
	return n > 0, err
}

func (s *GormStore) EmployeesInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error) {
	unique := distinct(ids)
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Employee{}).
		Where("org_id = ? AND is_active = ? AND id IN ?", orgID, true, unique).
		Count(&n).Error
	return int(n) == len(unique), err
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Creator) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormCreator{tx})
	})
}

// gormCreator inserts rows one table at a time; associations are written by
// the caller explicitly.
type gormCreator struct {
	tx *gorm.DB
}

func (c gormCreator) Create(value any) error {
	return c.tx.Omit(clause.Associations).Create(value).Error
}

// Get loads a report with all satellite rows, scoped to the org
func (s *GormStore) Get(ctx context.Context, orgID, id uuid.UUID) (models.InjuryReport, error) {
	var r models.InjuryReport
	err := s.db.WithContext(ctx).
		Preload("Photos").
		Preload("Employees").
		Preload("ExternalWorkers").
		Preload("BodyParts").
		Preload("FirstAid").
		Preload("Tasks").
		Preload("Witnesses").
		Preload("Equipment").
		Preload("Materials").
		Where("id = ? AND org_id = ?", id, orgID).
		First(&r).Error
	return r, err
}

func (s *GormStore) ListByProject(ctx context.Context, orgID, projectID uuid.UUID) ([]models.InjuryReport, error) {
	out := []models.InjuryReport{}
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Order("occurred_at DESC").
		Find(&out).Error
	return out, err
}
