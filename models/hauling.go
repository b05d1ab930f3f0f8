package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Hauling request statuses. A request is pending until the webhook call
// finishes, then sent or failed.
const (
	HaulingPending = "pending"
	HaulingSent    = "sent"
	HaulingFailed  = "failed"
)

// Dumpster services
const (
	ServiceAdd     = "add"
	ServiceReplace = "replace"
)

type HaulingCompany struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrgID      uuid.UUID `gorm:"type:uuid;not null;index" json:"org_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:100" json:"email,omitempty"`
	Phone      string    `gorm:"size:20" json:"phone,omitempty"`
	WebhookURL string    `gorm:"size:500" json:"-"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (HaulingCompany) TableName() string { return "hauling_companies" }

type HaulingRequest struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrgID                 uuid.UUID       `gorm:"type:uuid;not null;index" json:"org_id"`
	ProjectID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	SubmittedByEmployeeID uuid.UUID       `gorm:"type:uuid;not null" json:"submitted_by_employee_id"`
	ProjectAddress        string          `gorm:"size:500;not null" json:"project_address"`
	HaulingCompanyID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"hauling_company_id"`
	HaulingCompany        *HaulingCompany `gorm:"foreignKey:HaulingCompanyID" json:"hauling_company,omitempty"`
	Status                string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	WebhookStatusCode     int             `json:"webhook_status_code,omitempty"`
	WebhookResponse       datatypes.JSON  `gorm:"type:jsonb" json:"webhook_response,omitempty"`
	WebhookAttemptedAt    *time.Time      `json:"webhook_attempted_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	Items []HaulingRequestItem `gorm:"foreignKey:HaulingRequestID" json:"items,omitempty"`
}

func (HaulingRequest) TableName() string { return "hauling_requests" }

// HaulingRequestItem is one dumpster line. QuantityNormalWork is filled by
// the hauling_items_normal_work trigger and is read-only here.
type HaulingRequestItem struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	HaulingRequestID   uuid.UUID `gorm:"type:uuid;not null;index" json:"hauling_request_id"`
	DumpsterType       string    `gorm:"size:50;not null" json:"dumpster_type"`
	Service            string    `gorm:"size:20;not null" json:"service"`
	QuantityTotal      int       `gorm:"not null" json:"quantity_total"`
	QuantityExtraWork  int       `gorm:"not null;default:0" json:"quantity_extra_work"`
	QuantityNormalWork int       `gorm:"->" json:"quantity_normal_work"`
}

func (HaulingRequestItem) TableName() string { return "hauling_request_items" }

// NormalWork mirrors the trigger: the part of a line not billed as extra work
func NormalWork(total, extra int) int {
	return total - extra
}
