package driver

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleet-compliance-monitor/internal/pause"
)

// Driver is a person enrolled for daily safety checks.
type Driver struct {
	ID              uuid.UUID
	GroupID         uuid.UUID
	ExternalID      int64 // stable identity on the messaging platform
	Username        *string
	DisplayName     *string
	Active          bool
	NotifyChatID    *int64 // at most one driver per chat
	NotifyChatTitle *string
	StreakCurrent   int
	StreakBest      int
	LastCheckDate   *time.Time // calendar date of the last completed check
	LastPassAt      *time.Time
	LastCongratsAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Mention renders the driver's handle for dispatcher-facing text.
func (d *Driver) Mention() string {
	if d.Username != nil && *d.Username != "" {
		return "@" + *d.Username
	}
	if d.DisplayName != nil && *d.DisplayName != "" {
		return *d.DisplayName
	}
	return fmt.Sprintf("Driver %d", d.ExternalID)
}

// ChatPaused reports whether the driver's linked chat is flagged
// inactive by naming convention.
func (d *Driver) ChatPaused() bool {
	return pause.IsPausedPtr(d.NotifyChatTitle)
}
