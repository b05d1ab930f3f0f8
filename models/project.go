package models

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses
const (
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
)

// Project is the job site a submission belongs to. The client picks one at
// session start and sends its id with every form.
type Project struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrgID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"org_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	GC            string     `gorm:"column:gc;size:255" json:"gc,omitempty"`
	Location      string     `gorm:"size:500" json:"location,omitempty"`
	ProjectNumber string     `gorm:"size:50;index" json:"project_number,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Status        string     `gorm:"size:50;not null;default:'active';index" json:"status"`

	// Site center and radius used to flag activity logs captured off site
	Latitude    *float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude   *float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
	SiteRadiusM float64  `gorm:"type:decimal(10,2);default:0" json:"site_radius_m"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// HasSite reports whether the project has coordinates to measure against
func (p Project) HasSite() bool {
	return p.Latitude != nil && p.Longitude != nil
}
