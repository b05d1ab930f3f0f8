package hauling

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/fieldreport/models"
)

// GormStore is the Postgres-backed Store
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Project(ctx context.Context, orgID, id uuid.UUID) (models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).First(&p).Error
	return p, err
}

func (s *GormStore) Company(ctx context.Context, orgID, id uuid.UUID) (models.HaulingCompany, error) {
	var c models.HaulingCompany
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ? AND is_active = ?", id, orgID, true).
		First(&c).Error
	return c, err
}

func (s *GormStore) EmployeesInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error) {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	list := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := unique[id]; !dup {
			unique[id] = struct{}{}
			list = append(list, id)
		}
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Employee{}).
		Where("org_id = ? AND is_active = ? AND id IN ?", orgID, true, list).
		Count(&n).Error
	return int(n) == len(list), err
}

func (s *GormStore) Create(ctx context.Context, req *models.HaulingRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(req).Error; err != nil {
			return err
		}
		if len(req.Items) == 0 {
			return nil
		}
		if err := tx.Create(&req.Items).Error; err != nil {
			return err
		}
		// pick up quantity_normal_work from the trigger
		return tx.Where("hauling_request_id = ?", req.ID).Order("service, dumpster_type").Find(&req.Items).Error
	})
}

func (s *GormStore) SetStatus(ctx context.Context, id uuid.UUID, status string, d Delivery) error {
	updates := map[string]any{
		"status":               status,
		"webhook_status_code":  d.StatusCode,
		"webhook_attempted_at": d.AttemptedAt,
	}
	if len(d.Body) > 0 {
		updates["webhook_response"] = datatypes.JSON(d.Body)
	}
	return s.db.WithContext(ctx).Model(&models.HaulingRequest{}).Where("id = ?", id).Updates(updates).Error
}

// ListByProject returns the project's requests newest first, with items
func (s *GormStore) ListByProject(ctx context.Context, orgID, projectID uuid.UUID) ([]models.HaulingRequest, error) {
	out := []models.HaulingRequest{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("HaulingCompany").
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *GormStore) Companies(ctx context.Context, orgID uuid.UUID) ([]models.HaulingCompany, error) {
	out := []models.HaulingCompany{}
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Order("name").
		Find(&out).Error
	return out, err
}
