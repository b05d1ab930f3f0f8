package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Employee roles. Permissions per role live in config/permissions.go.
const (
	RoleWorker  = "worker"
	RoleForeman = "foreman"
	RoleSafety  = "safety_manager"
	RoleAdmin   = "admin"
)

// Organization is the tenant every other row is scoped to
type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Employee is provisioned by the backend and scopes all queries by OrgID.
// UserID is nil for crew members who never log in themselves.
type Employee struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    *uuid.UUID    `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	OrgID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"org_id"`
	Org       *Organization `gorm:"foreignKey:OrgID" json:"-"`
	FirstName string        `gorm:"size:100;not null" json:"first_name"`
	LastName  string        `gorm:"size:100;not null" json:"last_name"`
	Phone     string        `gorm:"size:20" json:"phone,omitempty"`
	Role      string        `gorm:"size:50;not null;default:'worker'" json:"role"`
	Email     string        `gorm:"size:100" json:"email,omitempty"`
	IsActive  bool          `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
