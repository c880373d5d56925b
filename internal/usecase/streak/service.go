package streak

import (
	"context"
	"fmt"

	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleet-compliance-monitor/internal/domain/driver"
)

// Service maintains per-driver daily streaks. A streak grows by one for
// each consecutive calendar day with a passed check, survives a repeat
// pass on the same day unchanged, and restarts at one after a gap.
type Service struct {
	drivers driver.Repository
	log     *zap.Logger
}

func NewService(drivers driver.Repository, log *zap.Logger) *Service {
	return &Service{drivers: drivers, log: log}
}

// ApplyPass advances the driver's streak for a pass on the given
// calendar date and returns the updated current and best values.
// Calling it twice for the same date is a no-op.
func (s *Service) ApplyPass(ctx context.Context, d *driver.Driver, date time.Time) (current, best int, err error) {
	if d.LastCheckDate != nil && sameDay(*d.LastCheckDate, date) {
		return d.StreakCurrent, d.StreakBest, nil
	}

	yesterday := date.AddDate(0, 0, -1)
	if d.LastCheckDate != nil && sameDay(*d.LastCheckDate, yesterday) {
		current = d.StreakCurrent + 1
	} else {
		current = 1
	}

	best = d.StreakBest
	if current > best {
		best = current
	}

	if err := s.drivers.UpdateStreak(ctx, d.ID, current, best, date); err != nil {
		return 0, 0, fmt.Errorf("failed to persist streak: %w", err)
	}

	d.StreakCurrent = current
	d.StreakBest = best
	d.LastCheckDate = &date

	s.log.Debug("streak updated",
		zap.String("driver_id", d.ID.String()),
		zap.Int("current", current),
		zap.Int("best", best),
	)
	return current, best, nil
}

// ResetMissed zeroes the running streak of every active driver in the
// group without a completed check on the given date. Best values are
// kept. Returns the number of drivers affected.
func (s *Service) ResetMissed(ctx context.Context, groupID uuid.UUID, date time.Time) (int64, error) {
	affected, err := s.drivers.ResetMissedStreaks(ctx, groupID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to reset missed streaks: %w", err)
	}
	if affected > 0 {
		s.log.Info("streaks reset for missed day",
			zap.String("group_id", groupID.String()),
			zap.Int64("drivers", affected),
		)
	}
	return affected, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
