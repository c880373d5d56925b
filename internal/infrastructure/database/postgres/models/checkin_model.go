package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInModel represents the database model for daily check-ins.
// The (driver_id, date) pair is unique; all writers upsert against it.
type CheckInModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DriverID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_checkins_driver_date"`
	GroupID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Date             time.Time `gorm:"type:date;not null;uniqueIndex:idx_checkins_driver_date;index"`
	Status           string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	SentAt           *time.Time
	RespondedAt      *time.Time
	ReviewedAt       *time.Time
	ReviewerID       *int64
	Reason           *string `gorm:"type:text"`
	MediaCount       int     `gorm:"not null;default:0"`
	ReviewMessageRef *string `gorm:"type:varchar(255)"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (CheckInModel) TableName() string {
	return "checkins"
}

// MediaModel represents one photo or video attached to a check-in.
type MediaModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CheckInID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind       string    `gorm:"type:varchar(20);not null"`
	FileRef    string    `gorm:"type:varchar(512);not null"`
	AlbumKey   *string   `gorm:"type:varchar(128);index"`
	ReceivedAt time.Time `gorm:"not null"`
}

func (MediaModel) TableName() string {
	return "checkin_media"
}

// ResetLogModel records administrative resets for idempotence checks
// and audit.
type ResetLogModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Scope   string    `gorm:"type:varchar(128);not null;index:idx_reset_log_scope_date"`
	Date    time.Time `gorm:"type:date;not null;index:idx_reset_log_scope_date"`
	ResetBy *int64
	ResetAt time.Time `gorm:"not null"`
}

func (ResetLogModel) TableName() string {
	return "reset_log"
}
