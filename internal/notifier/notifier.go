package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeliveryResult reports the outcome of a single outbound message.
// Err is set when delivery failed; MessageRef identifies the delivered
// message on the transport when the channel provides one.
type DeliveryResult struct {
	OK         bool
	MessageRef string
	Err        error
}

// DriverReminder asks a driver to run the daily safety check.
type DriverReminder struct {
	CheckinID uuid.UUID
	ChatID    int64
	Mention   string
	Date      time.Time
	FollowUp  bool
}

// ReviewCard is the dispatcher-side card holding a driver's submitted
// media for verdict.
type ReviewCard struct {
	CheckinID uuid.UUID
	GroupChat int64
	TopicID   int64
	Mention   string
	MediaRefs []string
	Date      time.Time
}

// DigestReport is the once-a-day summary for a group.
type DigestReport struct {
	GroupChat  int64
	TopicID    int64
	Date       time.Time
	Total      int
	Pass       int
	Fail       int
	NeedsFix   int
	Excused    int
	Pending    []string // mentions of drivers still outstanding
	TopStreaks []string // up to three leading streak holders
}

// ComplianceReportLine is one driver's row of a periodic compliance
// report.
type ComplianceReportLine struct {
	Mention  string
	Outcome  string
	Streak   int
	Consecut int // consecutive non-compliant report runs
}

// ComplianceReport is the periodic non-compliance roll-up for
// dispatchers.
type ComplianceReport struct {
	GroupChat int64
	TopicID   int64
	At        time.Time
	Lines     []ComplianceReportLine
}

// DriverAlert nudges a driver who has missed consecutive report runs.
type DriverAlert struct {
	ChatID  int64
	Mention string
	Misses  int
}

// Escalation flags a driver who crossed the dispatch alert threshold.
type Escalation struct {
	GroupChat int64
	TopicID   int64
	DriverID  uuid.UUID
	Mention   string
	Misses    int
}

// Congrats celebrates a strong weekly pass record in the driver's chat.
type Congrats struct {
	ChatID  int64
	Mention string
	Passes  int
	Streak  int
}

// Leaderboard is the weekly rankings post.
type Leaderboard struct {
	GroupChat int64
	TopicID   int64
	WeekStart time.Time
	Lines     []LeaderboardLine
}

// LeaderboardLine is one driver's leaderboard row.
type LeaderboardLine struct {
	Rank    int
	Mention string
	Passes  int
	Total   int
	Pct     float64
}

// Notifier is the outbound messaging port. Implementations deliver to
// the fleet's chat transport; every method reports per-message results
// so callers can decide whether to mark work as done.
type Notifier interface {
	SendDriverReminder(ctx context.Context, r *DriverReminder) DeliveryResult
	SendReviewCard(ctx context.Context, c *ReviewCard) DeliveryResult
	SendDigest(ctx context.Context, d *DigestReport) DeliveryResult
	SendComplianceReport(ctx context.Context, r *ComplianceReport) DeliveryResult
	SendDriverAlert(ctx context.Context, a *DriverAlert) DeliveryResult
	SendEscalation(ctx context.Context, e *Escalation) DeliveryResult
	SendCongrats(ctx context.Context, c *Congrats) DeliveryResult
	SendLeaderboard(ctx context.Context, l *Leaderboard) DeliveryResult
}
