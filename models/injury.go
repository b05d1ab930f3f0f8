package models

import (
	"time"

	"github.com/google/uuid"
)

// Injured person types referenced by body-part records
const (
	InjuredEmployee = "employee"
	InjuredExternal = "external"
)

// InjuryReport header. Every satellite table below is written in the same
// transaction by the injury submit operation.
type InjuryReport struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrgID                 uuid.UUID `gorm:"type:uuid;not null;index" json:"org_id"`
	ProjectID             uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	SubmittedByEmployeeID uuid.UUID `gorm:"type:uuid;not null" json:"submitted_by_employee_id"`
	OccurredAt            JSONTime  `gorm:"not null" json:"occurred_at"`
	Location              string    `gorm:"size:500" json:"location,omitempty"`
	Description           string    `gorm:"type:text;not null" json:"description"`
	Severity              string    `gorm:"size:50" json:"severity,omitempty"`
	ReportedToName        string    `gorm:"size:255" json:"reported_to_name,omitempty"`
	CreatedAt             time.Time `json:"created_at"`

	Photos          []InjuryPhoto           `gorm:"foreignKey:InjuryReportID" json:"photos,omitempty"`
	Employees       []InjuredEmployeeRecord `gorm:"foreignKey:InjuryReportID" json:"injured_employees,omitempty"`
	ExternalWorkers []InjuredExternalWorker `gorm:"foreignKey:InjuryReportID" json:"injured_external_workers,omitempty"`
	BodyParts       []InjuryBodyPart        `gorm:"foreignKey:InjuryReportID" json:"body_parts,omitempty"`
	FirstAid        *InjuryFirstAid         `gorm:"foreignKey:InjuryReportID" json:"first_aid,omitempty"`
	Tasks           []InjuryTask            `gorm:"foreignKey:InjuryReportID" json:"tasks,omitempty"`
	Witnesses       []InjuryWitness         `gorm:"foreignKey:InjuryReportID" json:"witnesses,omitempty"`
	Equipment       []InjuryEquipment       `gorm:"foreignKey:InjuryReportID" json:"equipment,omitempty"`
	Materials       []InjuryMaterial        `gorm:"foreignKey:InjuryReportID" json:"materials,omitempty"`
}

func (InjuryReport) TableName() string { return "injury_reports" }

type InjuryPhoto struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	StoragePath    string    `gorm:"size:500;not null" json:"storage_path"`
}

func (InjuryPhoto) TableName() string { return "injury_photos" }

type InjuredEmployeeRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	EmployeeID     uuid.UUID `gorm:"type:uuid;not null" json:"employee_id"`
}

func (InjuredEmployeeRecord) TableName() string { return "injury_employees" }

type InjuredExternalWorker struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Company        string    `gorm:"size:255" json:"company,omitempty"`
	Phone          string    `gorm:"size:20" json:"phone,omitempty"`
}

func (InjuredExternalWorker) TableName() string { return "injury_external_workers" }

// InjuryBodyPart points at exactly one of InjuredEmployeeID or
// InjuredExternalWorkerID.
type InjuryBodyPart struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	InjuredPersonType       string     `gorm:"size:20;not null" json:"injured_person_type"`
	InjuredEmployeeID       *uuid.UUID `gorm:"type:uuid" json:"injured_employee_id,omitempty"`
	InjuredExternalWorkerID *uuid.UUID `gorm:"type:uuid" json:"injured_external_worker_id,omitempty"`
	BodyPart                string     `gorm:"size:100;not null" json:"body_part"`
	Side                    string     `gorm:"size:20" json:"side,omitempty"`
	InjuryType              string     `gorm:"size:100" json:"injury_type,omitempty"`
}

func (InjuryBodyPart) TableName() string { return "injury_body_parts" }

type InjuryFirstAid struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"injury_report_id"`
	Given          bool      `gorm:"not null" json:"given"`
	Details        string    `gorm:"type:text" json:"details,omitempty"`
}

func (InjuryFirstAid) TableName() string { return "injury_first_aid" }

type InjuryTask struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	Description    string    `gorm:"type:text;not null" json:"description"`
}

func (InjuryTask) TableName() string { return "injury_tasks" }

type InjuryWitness struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Phone          string    `gorm:"size:20" json:"phone,omitempty"`
	Statement      string    `gorm:"type:text" json:"statement,omitempty"`
}

func (InjuryWitness) TableName() string { return "injury_witnesses" }

type InjuryEquipment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
}

func (InjuryEquipment) TableName() string { return "injury_equipment" }

type InjuryMaterial struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InjuryReportID uuid.UUID `gorm:"type:uuid;not null;index" json:"injury_report_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
}

func (InjuryMaterial) TableName() string { return "injury_materials" }
