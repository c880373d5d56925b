package driver

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for drivers.
//
// Upsert keys on ExternalID (or, for placeholder drivers registered by
// username before they ever message the bot, on the lowercased
// username) so that repeated enrolments converge on one row.
type Repository interface {
	Upsert(ctx context.Context, d *Driver) (*Driver, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	GetByExternalID(ctx context.Context, externalID int64) (*Driver, error)
	GetByNotifyChat(ctx context.Context, chatID int64) (*Driver, error)
	GetByUsername(ctx context.Context, username string) (*Driver, error)
	ListActive(ctx context.Context, groupID uuid.UUID) ([]*Driver, error)

	SetNotifyChat(ctx context.Context, id uuid.UUID, chatID int64, chatTitle *string) error
	SetChatTitle(ctx context.Context, chatID int64, title string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// Streak bookkeeping. UpdateStreak persists a computed streak;
	// ResetMissedStreaks zeroes streak_current for every active driver
	// of the group without a completed check-in on the given date and
	// returns how many rows changed.
	UpdateStreak(ctx context.Context, id uuid.UUID, current, best int, lastCheckDate time.Time) error
	ResetMissedStreaks(ctx context.Context, groupID uuid.UUID, date time.Time) (int64, error)

	SetLastPass(ctx context.Context, id uuid.UUID, at *time.Time) error
	SetLastCongrats(ctx context.Context, id uuid.UUID, at time.Time) error
}
