package models

import (
	"time"

	"github.com/google/uuid"
)

// ExtraWorkTicket documents work outside the contract scope for GC sign-off
type ExtraWorkTicket struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SubmissionHeader
	WorkDate    Date      `gorm:"type:date;not null;index" json:"work_date"`
	Description string    `gorm:"type:text;not null" json:"description"`
	GCContact   string    `gorm:"column:gc_contact;size:255" json:"gc_contact,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Labor     []ExtraWorkLabor    `gorm:"foreignKey:TicketID" json:"labor,omitempty"`
	Materials []ExtraWorkMaterial `gorm:"foreignKey:TicketID" json:"materials,omitempty"`
}

func (ExtraWorkTicket) TableName() string { return "extra_work_tickets" }

type ExtraWorkLabor struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TicketID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Hours      float64   `gorm:"type:decimal(4,1);not null" json:"hours"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`
}

func (ExtraWorkLabor) TableName() string { return "extra_work_labor" }

type ExtraWorkMaterial struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TicketID    uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Description string    `gorm:"size:500;not null" json:"description"`
	Quantity    float64   `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Unit        string    `gorm:"size:20" json:"unit,omitempty"`
}

func (ExtraWorkMaterial) TableName() string { return "extra_work_materials" }
