package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceTrackingModel represents the rolling non-compliance counter
// for a driver.
type ComplianceTrackingModel struct {
	DriverID             uuid.UUID `gorm:"type:uuid;primary_key"`
	ConsecutiveReports   int       `gorm:"not null;default:0"`
	LastReportAt         time.Time `gorm:"not null"`
	LastDriverAlertAt    *time.Time
	LastDispatchAlertAt  *time.Time
	LastStatus           string  `gorm:"type:varchar(20);not null"`
	LastCommentThreadRef *string `gorm:"type:varchar(255)"`
	UpdatedAt            time.Time `gorm:"not null"`
}

func (ComplianceTrackingModel) TableName() string {
	return "compliance_tracking"
}

// ComplianceNoteModel is a dispatcher annotation on a driver's record.
type ComplianceNoteModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DriverID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  int64     `gorm:"not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ComplianceNoteModel) TableName() string {
	return "compliance_notes"
}
