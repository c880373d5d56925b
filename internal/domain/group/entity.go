package group

import (
	"time"

	"github.com/google/uuid"

	"fleet-compliance-monitor/internal/pause"
)

// Group is a dispatcher-managed collection of drivers sharing one
// timezone and schedule configuration.
type Group struct {
	ID                uuid.UUID
	ChatID            int64 // dispatcher chat on the messaging platform
	Title             string
	Timezone          string
	RollingTopicID    int64
	ComplianceTopicID *int64
	TrailerTopicID    *int64
	AutosendEnabled   bool
	AutosendTime      *string // HH:MM in the group's timezone
	DigestTime        string  // HH:MM in the group's timezone
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Paused is derived from the chat title, never stored.
func (g *Group) Paused() bool {
	return pause.IsPaused(g.Title)
}

// Location resolves the group's timezone. Timezones are validated
// before they are persisted, so failure here means corrupted state.
func (g *Group) Location() (*time.Location, error) {
	return time.LoadLocation(g.Timezone)
}

// Today returns the current calendar date in the group's timezone,
// truncated to midnight UTC for storage.
func (g *Group) Today(now time.Time) time.Time {
	loc, err := g.Location()
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
