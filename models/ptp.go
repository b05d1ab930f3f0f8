package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PreTaskPlan is the daily safety checklist signed by the crew before work
type PreTaskPlan struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SubmissionHeader
	WorkDate         Date       `gorm:"type:date;not null;index" json:"work_date"`
	Location         string     `gorm:"size:500" json:"location,omitempty"`
	SupervisorName   string     `gorm:"size:255" json:"supervisor_name,omitempty"`
	DuplicatedFromID *uuid.UUID `gorm:"type:uuid" json:"duplicated_from_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Tasks   []PTPTask   `gorm:"foreignKey:PTPID" json:"tasks,omitempty"`
	Workers []PTPWorker `gorm:"foreignKey:PTPID" json:"workers,omitempty"`
	Photos  []PTPPhoto  `gorm:"foreignKey:PTPID" json:"photos,omitempty"`
}

func (PreTaskPlan) TableName() string { return "pre_task_plans" }

type PTPTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PTPID       uuid.UUID      `gorm:"column:ptp_id;type:uuid;not null;index" json:"ptp_id"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Hazards     pq.StringArray `gorm:"type:text[]" json:"hazards"`
	Controls    pq.StringArray `gorm:"type:text[]" json:"controls"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
}

func (PTPTask) TableName() string { return "ptp_tasks" }

type PTPWorker struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PTPID         uuid.UUID `gorm:"column:ptp_id;type:uuid;not null;index" json:"ptp_id"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee      *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	SignaturePath string    `gorm:"size:500" json:"signature_path,omitempty"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
}

func (PTPWorker) TableName() string { return "ptp_workers" }

type PTPPhoto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PTPID       uuid.UUID `gorm:"column:ptp_id;type:uuid;not null;index" json:"ptp_id"`
	StoragePath string    `gorm:"size:500;not null" json:"storage_path"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
}

func (PTPPhoto) TableName() string { return "ptp_photos" }
