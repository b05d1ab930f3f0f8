package config

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
)

// SeedOptions describes the bootstrap organization created by -seed
type SeedOptions struct {
	OrgName       string
	AdminEmail    string
	AdminPassword string
	AdminFirst    string
	AdminLast     string
}

// RunAllSeeding creates the organization, its admin login and a demo
// project if they are missing. Running it twice changes nothing.
func RunAllSeeding(db *gorm.DB, opts SeedOptions) error {
	log := zap.L().Named("seed")

	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("email = ?", opts.AdminEmail).First(&user).Error
		if err == nil {
			log.Info("admin user already present, skipping seed", zap.String("email", opts.AdminEmail))
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		org := models.Organization{ID: uuid.New(), Name: opts.OrgName}
		if err := tx.Create(&org).Error; err != nil {
			return fmt.Errorf("create organization: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user = models.User{Email: opts.AdminEmail, PasswordHash: string(hash), IsActive: true}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}

		emp := models.Employee{
			ID:        uuid.New(),
			UserID:    &user.ID,
			OrgID:     org.ID,
			FirstName: opts.AdminFirst,
			LastName:  opts.AdminLast,
			Email:     opts.AdminEmail,
			Role:      models.RoleAdmin,
			IsActive:  true,
		}
		if err := tx.Create(&emp).Error; err != nil {
			return fmt.Errorf("create admin employee: %w", err)
		}

		project := models.Project{
			ID:            uuid.New(),
			OrgID:         org.ID,
			Name:          "Demo Project",
			ProjectNumber: "DEMO-001",
			Status:        models.ProjectActive,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create demo project: %w", err)
		}

		hauler := models.HaulingCompany{ID: uuid.New(), OrgID: org.ID, Name: "Demo Hauling", IsActive: true}
		if err := tx.Create(&hauler).Error; err != nil {
			return fmt.Errorf("create hauling company: %w", err)
		}

		log.Info("seeded organization",
			zap.String("org_id", org.ID.String()),
			zap.String("admin_email", opts.AdminEmail))
		return nil
	})
}
