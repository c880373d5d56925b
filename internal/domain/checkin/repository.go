package checkin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DailyStats is the aggregate count per status for one group and date.
type DailyStats struct {
	Total     int
	Pending   int
	Submitted int
	Pass      int
	Fail      int
	NeedsFix  int
	Excused   int
}

// PendingDriver is a not-yet-terminal check-in joined with the driver's
// recent pass count, for the dispatcher dashboard.
type PendingDriver struct {
	DriverID    uuid.UUID
	Mention     string
	Status      Status
	SentAt      *time.Time
	RespondedAt *time.Time
	PassesLast7 int
}

// WeeklyRank is one row of the weekly leaderboard. Percentage excludes
// excused days from the denominator.
type WeeklyRank struct {
	DriverID uuid.UUID
	Mention  string
	Passes   int
	Total    int
	Pct      float64
}

// Repository is the persistence contract for check-ins, their media and
// the reset audit log.
type Repository interface {
	// Ensure returns the (driver, date) row, creating it as pending when
	// absent. Concurrent callers converge on the same row.
	Ensure(ctx context.Context, driverID, groupID uuid.UUID, date time.Time) (*CheckIn, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CheckIn, error)
	GetByDriverDate(ctx context.Context, driverID uuid.UUID, date time.Time) (*CheckIn, error)

	// MarkSent stamps sent_at, keeping the earliest value on repeats.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// AttachMedia appends media atomically: rows inserted, media_count
	// incremented, responded_at stamped once, and a pending or submitted
	// check-in moved to submitted. Terminal statuses are left untouched.
	AttachMedia(ctx context.Context, id uuid.UUID, items []*Media, at time.Time) (*CheckIn, error)

	// UpdateReview applies a verdict guarded by the allowed source
	// statuses; no row is touched when the current status is not in
	// allowedFrom.
	UpdateReview(ctx context.Context, id uuid.UUID, to Status, allowedFrom []Status, reviewerID *int64, reason *string, at time.Time) (*CheckIn, error)

	// Reset rewinds the row to its pre-reminder state: pending, sent_at
	// and responded_at cleared, review fields nulled, media deleted.
	Reset(ctx context.Context, id uuid.UUID) error
	// ResetAllForDate applies the Reset semantics to every check-in of
	// the group for the date and records a reset entry, in one
	// transaction.
	ResetAllForDate(ctx context.Context, groupID uuid.UUID, date time.Time, scope string, resetBy *int64) (int64, error)

	SetReviewMessageRef(ctx context.Context, id uuid.UUID, ref string) error

	// SetReason stores the driver's stated reason on a check-in that has
	// not been reviewed yet.
	SetReason(ctx context.Context, id uuid.UUID, reason string) error

	ListMedia(ctx context.Context, checkinID uuid.UUID) ([]*Media, error)
	ListRecent(ctx context.Context, driverID uuid.UUID, days int, before time.Time) ([]*CheckIn, error)

	Stats(ctx context.Context, groupID uuid.UUID, date time.Time) (*DailyStats, error)
	PendingWithPassCounts(ctx context.Context, groupID uuid.UUID, date time.Time) ([]*PendingDriver, error)
	WeeklyRankings(ctx context.Context, groupID uuid.UUID, weekStart, weekEnd time.Time) ([]*WeeklyRank, error)
	WeeklyPassCount(ctx context.Context, driverID uuid.UUID, weekStart time.Time) (int, error)

	RecordReset(ctx context.Context, entry *ResetEntry) error
	LastReset(ctx context.Context, scope string, date time.Time) (*ResetEntry, error)
}
