package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupModel represents the database model for dispatch groups.
type GroupModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChatID            int64     `gorm:"not null;uniqueIndex"`
	Title             string    `gorm:"type:varchar(255);not null"`
	Timezone          string    `gorm:"type:varchar(64);not null;default:'America/Chicago'"`
	RollingTopicID    int64     `gorm:"not null;default:0"`
	ComplianceTopicID *int64
	TrailerTopicID    *int64
	AutosendEnabled   bool    `gorm:"not null;default:false"`
	AutosendTime      *string `gorm:"type:varchar(5)"`
	DigestTime        string  `gorm:"type:varchar(5);not null;default:'10:30'"`
	Active            bool    `gorm:"not null;default:true;index"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (GroupModel) TableName() string {
	return "groups"
}
