package checkin

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn is one driver's safety check record for one calendar date.
// There is exactly one row per (driver, date).
type CheckIn struct {
	ID               uuid.UUID
	DriverID         uuid.UUID
	GroupID          uuid.UUID
	Date             time.Time // group-local calendar date, midnight UTC
	Status           Status
	SentAt           *time.Time // first reminder delivery
	RespondedAt      *time.Time // first media received
	ReviewedAt       *time.Time
	ReviewerID       *int64
	Reason           *string
	MediaCount       int
	ReviewMessageRef *string // dispatcher-side message carrying the review card
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Media is a single photo or video attached to a check-in.
type Media struct {
	ID         uuid.UUID
	CheckInID  uuid.UUID
	Kind       string // photo or video
	FileRef    string
	AlbumKey   *string
	ReceivedAt time.Time
}

// ResetEntry records an administrative reset, used both as an
// idempotence marker for scheduled resets and as an audit trail.
type ResetEntry struct {
	ID      uuid.UUID
	Scope   string // e.g. "midnight_reset:<group>" or "compliance_clear"
	Date    time.Time
	ResetBy *int64
	ResetAt time.Time
}
