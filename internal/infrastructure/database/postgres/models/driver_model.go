package models

import (
	"time"

	"github.com/google/uuid"
)

// DriverModel represents the database model for drivers.
type DriverModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GroupID         uuid.UUID `gorm:"type:uuid;not null;index"`
	ExternalID      int64     `gorm:"not null;uniqueIndex"`
	Username        *string   `gorm:"type:varchar(255);index"`
	DisplayName     *string   `gorm:"type:varchar(255)"`
	Active          bool      `gorm:"not null;default:true;index"`
	NotifyChatID    *int64    `gorm:"uniqueIndex"`
	NotifyChatTitle *string   `gorm:"type:varchar(255)"`
	StreakCurrent   int       `gorm:"not null;default:0"`
	StreakBest      int       `gorm:"not null;default:0"`
	LastCheckDate   *time.Time `gorm:"type:date"`
	LastPassAt      *time.Time
	LastCongratsAt  *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (DriverModel) TableName() string {
	return "drivers"
}
