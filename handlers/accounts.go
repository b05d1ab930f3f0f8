package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/session"
)

// Accounts looks up users and the identity their tokens carry
type Accounts interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
	Identity(ctx context.Context, userID uuid.UUID) (session.Identity, error)
	TouchLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type GormAccounts struct {
	db *gorm.DB
}

func NewGormAccounts(db *gorm.DB) *GormAccounts {
	return &GormAccounts{db: db}
}

// FindByLogin matches an email (case-insensitive) or a phone number
func (a *GormAccounts) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var u models.User
	q := a.db.WithContext(ctx).Where("is_active = ?", true)
	if strings.Contains(login, "@") {
		q = q.Where("LOWER(email) = ?", strings.ToLower(login))
	} else {
		q = q.Where("phone = ?", login)
	}
	err := q.First(&u).Error
	return u, apperr.FromDB(err, "user")
}

// Identity joins the user with its employee row. A user without one gets
// an identity with no org, which every form endpoint rejects.
func (a *GormAccounts) Identity(ctx context.Context, userID uuid.UUID) (session.Identity, error) {
	var u models.User
	if err := a.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&u).Error; err != nil {
		return session.Identity{}, apperr.FromDB(err, "user")
	}
	id := session.Identity{UserID: u.ID, Name: u.Email, Phone: u.Phone}

	var e models.Employee
	err := a.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true).First(&e).Error
	if apperr.IsNotFound(err) {
		return id, nil
	}
	if err != nil {
		return session.Identity{}, apperr.FromDB(err, "employee")
	}
	id.EmployeeID = e.ID
	id.OrgID = e.OrgID
	id.Name = e.FullName()
	id.Role = e.Role
	if e.Phone != "" {
		id.Phone = e.Phone
	}
	return id, nil
}

func (a *GormAccounts) TouchLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return a.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
}
