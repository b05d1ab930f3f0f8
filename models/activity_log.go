package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity log kinds
const (
	ActivityIncident    = "incident"
	ActivityNearMiss    = "near_miss"
	ActivityObservation = "observation"
)

// ValidActivityKind reports whether kind is one of the known log kinds
func ValidActivityKind(kind string) bool {
	switch kind {
	case ActivityIncident, ActivityNearMiss, ActivityObservation:
		return true
	}
	return false
}

type ActivityLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SubmissionHeader
	Kind              string    `gorm:"size:20;not null;index" json:"kind"`
	Description       string    `gorm:"type:text;not null" json:"description"`
	CorrectiveAction  string    `gorm:"type:text" json:"corrective_action,omitempty"`
	OccurredAt        JSONTime  `gorm:"not null" json:"occurred_at"`
	Latitude          *float64  `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude         *float64  `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
	DistanceFromSiteM *float64  `gorm:"type:decimal(12,2)" json:"distance_from_site_m,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Photos     []ActivityPhoto `gorm:"foreignKey:ActivityLogID" json:"photos,omitempty"`
	VoiceMemos []VoiceMemo     `gorm:"foreignKey:ActivityLogID" json:"voice_memos,omitempty"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

type ActivityPhoto struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ActivityLogID uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_log_id"`
	StoragePath   string    `gorm:"size:500;not null" json:"storage_path"`
	Caption       string    `gorm:"size:500" json:"caption,omitempty"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
}

func (ActivityPhoto) TableName() string { return "activity_photos" }

type VoiceMemo struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ActivityLogID   uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_log_id"`
	StoragePath     string    `gorm:"size:500;not null" json:"storage_path"`
	DurationSeconds int       `gorm:"default:0" json:"duration_seconds"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
}

func (VoiceMemo) TableName() string { return "voice_memos" }
