package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	"fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/internal/notifier"
)

const jobTimeout = 2 * time.Minute

// runJob is the single entry point for every cron fire. The group is
// refetched so configuration changes made after scheduling still apply,
// and a group deactivated mid-flight is skipped.
func (s *Scheduler) runJob(kind string, groupID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		s.log.Error("job skipped, group lookup failed",
			zap.String("kind", kind),
			zap.String("group_id", groupID.String()),
			zap.Error(err),
		)
		return
	}
	if !g.Active {
		return
	}

	switch kind {
	case TriggerAutosend:
		err = s.runAutosend(ctx, g)
	case TriggerDigest:
		err = s.runDigest(ctx, g)
	case TriggerCompliance:
		err = s.compliance.RunReport(ctx, g, time.Now())
	case TriggerMidnight:
		err = s.runMidnightReset(ctx, g)
	case TriggerLeaderboard:
		err = s.compliance.WeeklyLeaderboard(ctx, g, time.Now())
	default:
		err = fmt.Errorf("unknown trigger kind %q", kind)
	}

	if err != nil {
		s.log.Error("job failed",
			zap.String("kind", kind),
			zap.String("group", g.Title),
			zap.Error(err),
		)
	}
}

// runAutosend reminds every active driver who has not yet been reminded
// today. Paused groups and paused driver chats are skipped entirely.
// The reminder goes out before sent_at is stamped, so a delivery
// failure leaves the check-in eligible for the next occurrence.
func (s *Scheduler) runAutosend(ctx context.Context, g *group.Group) error {
	if g.Paused() {
		s.log.Info("autosend skipped, group paused", zap.String("group", g.Title))
		return nil
	}

	drivers, err := s.drivers.ListActive(ctx, g.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	var sent, skipped int
	for _, d := range drivers {
		if d.NotifyChatID == nil || d.ChatPaused() {
			skipped++
			continue
		}

		ci, err := s.checkins.EnsureToday(ctx, d, now)
		if err != nil {
			s.log.Warn("autosend skipped driver",
				zap.String("driver", d.Mention()),
				zap.Error(err),
			)
			continue
		}
		if ci.SentAt != nil || ci.Status != domainCheckin.StatusPending {
			continue
		}

		if err := s.remind(ctx, d, ci, false); err != nil {
			s.log.Warn("reminder delivery failed",
				zap.String("driver", d.Mention()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	s.log.Info("autosend complete",
		zap.String("group", g.Title),
		zap.Int("sent", sent),
		zap.Int("skipped", skipped),
	)
	return nil
}

// SendReminder delivers an ad hoc reminder to one driver, outside the
// autosend window. Used by the manual notify command. A paused chat
// reports driver.ErrChatPaused so callers can treat the skip as a
// no-op rather than a delivery failure.
func (s *Scheduler) SendReminder(ctx context.Context, d *driver.Driver) error {
	if d.NotifyChatID == nil {
		return driver.ErrNoChatLinked
	}
	if d.ChatPaused() {
		return driver.ErrChatPaused
	}

	ci, err := s.checkins.EnsureToday(ctx, d, time.Now())
	if err != nil {
		return err
	}
	return s.remind(ctx, d, ci, false)
}

// remind sends the reminder and, only on success, stamps sent_at and
// arms the follow-up timers.
func (s *Scheduler) remind(ctx context.Context, d *driver.Driver, ci *domainCheckin.CheckIn, followUp bool) error {
	res := s.notify.SendDriverReminder(ctx, &notifier.DriverReminder{
		CheckinID: ci.ID,
		ChatID:    *d.NotifyChatID,
		Mention:   d.Mention(),
		Date:      ci.Date,
		FollowUp:  followUp,
	})
	if res.Err != nil {
		return res.Err
	}

	if !followUp {
		if err := s.checkins.MarkSent(ctx, ci.ID, time.Now()); err != nil {
			return err
		}
		s.scheduleFollowups(d, ci.ID)
	}
	return nil
}

// scheduleFollowups arms one timer per configured delay. Each firing
// rechecks the row and stays quiet once the driver has responded.
func (s *Scheduler) scheduleFollowups(d *driver.Driver, checkinID uuid.UUID) {
	if len(s.cfg.FollowupDelays) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timers := make([]*time.Timer, 0, len(s.cfg.FollowupDelays))
	for _, delay := range s.cfg.FollowupDelays {
		timers = append(timers, time.AfterFunc(delay, func() {
			s.fireFollowup(d, checkinID)
		}))
	}
	s.followups[checkinID] = timers
}

func (s *Scheduler) fireFollowup(d *driver.Driver, checkinID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	fresh, err := s.drivers.GetByID(ctx, d.ID)
	if err != nil || fresh.NotifyChatID == nil || fresh.ChatPaused() {
		return
	}

	ci, err := s.checkins.EnsureToday(ctx, fresh, time.Now())
	if err != nil || ci.ID != checkinID || ci.Status != domainCheckin.StatusPending {
		return
	}

	if err := s.remind(ctx, fresh, ci, true); err != nil {
		s.log.Warn("follow-up delivery failed",
			zap.String("driver", fresh.Mention()),
			zap.Error(err),
		)
	}
}

// CancelFollowups stops any pending follow-up timers for the check-in.
// Called as soon as the driver responds.
func (s *Scheduler) CancelFollowups(checkinID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.followups[checkinID] {
		t.Stop()
	}
	delete(s.followups, checkinID)
}

// runDigest posts the once-a-day status summary to the dispatcher chat:
// today's verdict counts, who is still outstanding, and the current
// streak leaders.
func (s *Scheduler) runDigest(ctx context.Context, g *group.Group) error {
	now := time.Now()
	date := g.Today(now)

	stats, err := s.checkins.Stats(ctx, g.ID, now)
	if err != nil {
		return err
	}

	drivers, err := s.drivers.ListActive(ctx, g.ID)
	if err != nil {
		return err
	}

	var outstanding []string
	for _, d := range drivers {
		ci, err := s.checkins.EnsureToday(ctx, d, now)
		if err != nil {
			continue
		}
		if !ci.Status.Terminal() {
			outstanding = append(outstanding, d.Mention())
		}
	}

	res := s.notify.SendDigest(ctx, &notifier.DigestReport{
		GroupChat:  g.ChatID,
		TopicID:    g.RollingTopicID,
		Date:       date,
		Total:      stats.Total,
		Pass:       stats.Pass,
		Fail:       stats.Fail,
		NeedsFix:   stats.NeedsFix,
		Excused:    stats.Excused,
		Pending:    outstanding,
		TopStreaks: topStreaks(drivers, 3),
	})
	if res.Err != nil {
		return fmt.Errorf("failed to deliver digest: %w", res.Err)
	}
	return nil
}

// topStreaks formats the n longest current streaks, zeroes excluded.
func topStreaks(drivers []*driver.Driver, n int) []string {
	ranked := make([]*driver.Driver, 0, len(drivers))
	for _, d := range drivers {
		if d.StreakCurrent > 0 {
			ranked = append(ranked, d)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].StreakCurrent > ranked[j].StreakCurrent
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	lines := make([]string, 0, len(ranked))
	for _, d := range ranked {
		lines = append(lines, fmt.Sprintf("%s (%d)", d.Mention(), d.StreakCurrent))
	}
	return lines
}

// runMidnightReset zeroes the streak of every driver who skipped the
// previous day. A reset log row keyed by group and date makes reruns,
// including a restart replaying the trigger, a no-op.
func (s *Scheduler) runMidnightReset(ctx context.Context, g *group.Group) error {
	yesterday := g.Today(time.Now()).AddDate(0, 0, -1)
	scope := "midnight_reset:" + g.ID.String()

	done, err := s.checkins.WasReset(ctx, scope, yesterday)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	affected, err := s.streaks.ResetMissed(ctx, g.ID, yesterday)
	if err != nil {
		return err
	}

	if err := s.checkins.RecordReset(ctx, scope, yesterday); err != nil {
		return err
	}

	// Post yesterday's snapshot to the compliance topic when the group
	// has one. Delivery failure is logged, not returned.
	if g.ComplianceTopicID != nil {
		stats, err := s.checkins.Stats(ctx, g.ID, time.Now().AddDate(0, 0, -1))
		if err == nil {
			res := s.notify.SendDigest(ctx, &notifier.DigestReport{
				GroupChat: g.ChatID,
				TopicID:   *g.ComplianceTopicID,
				Date:      yesterday,
				Total:     stats.Total,
				Pass:      stats.Pass,
				Fail:      stats.Fail,
				NeedsFix:  stats.NeedsFix,
				Excused:   stats.Excused,
			})
			err = res.Err
		}
		if err != nil {
			s.log.Warn("daily snapshot post failed",
				zap.String("group", g.Title),
				zap.Error(err),
			)
		}
	}

	s.log.Info("midnight reset complete",
		zap.String("group", g.Title),
		zap.Int64("streaks_zeroed", affected),
	)
	return nil
}
