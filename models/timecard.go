package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeCard records hours per crew member for one project day
type TimeCard struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SubmissionHeader
	WorkDate  Date      `gorm:"type:date;not null;index" json:"work_date"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Workers []TimeCardWorker `gorm:"foreignKey:TimeCardID" json:"workers,omitempty"`
}

func (TimeCard) TableName() string { return "time_cards" }

// TimeCardWorker rows are never deleted on edit, only deactivated
type TimeCardWorker struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TimeCardID uuid.UUID `gorm:"type:uuid;not null;index" json:"time_card_id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Hours      float64   `gorm:"type:decimal(4,1);not null" json:"hours"`
	CostCode   string    `gorm:"size:50" json:"cost_code,omitempty"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`
}

func (TimeCardWorker) TableName() string { return "time_card_workers" }
