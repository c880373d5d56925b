package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	domainCompliance "fleet-compliance-monitor/internal/domain/compliance"
	"fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/internal/notifier"
)

// Thresholds tune the escalation ladder.
type Thresholds struct {
	DriverAlert   int           // consecutive misses before the driver is nudged
	DispatchAlert int           // consecutive misses before dispatch is notified
	CongratsPass  int           // weekly passes that earn a congratulations note
	AlertCooldown time.Duration // minimum gap between repeat alerts per driver
	ReportWindow  time.Duration // how far back a pass still covers a quiet driver
}

// Service runs the periodic compliance evaluation, the escalation
// ladder and the positive reinforcement path.
type Service struct {
	tracking   domainCompliance.Repository
	checkins   domainCheckin.Repository
	drivers    driver.Repository
	notify     notifier.Notifier
	thresholds Thresholds
	log        *zap.Logger
}

func NewService(
	tracking domainCompliance.Repository,
	checkins domainCheckin.Repository,
	drivers driver.Repository,
	notify notifier.Notifier,
	thresholds Thresholds,
	log *zap.Logger,
) *Service {
	return &Service{
		tracking:   tracking,
		checkins:   checkins,
		drivers:    drivers,
		notify:     notify,
		thresholds: thresholds,
		log:        log,
	}
}

// RunReport evaluates every active driver of the group against today's
// check-in, updates the consecutive-miss counters, fires any alerts the
// ladder calls for and posts the roll-up to the dispatcher chat.
func (s *Service) RunReport(ctx context.Context, g *group.Group, now time.Time) error {
	date := g.Today(now)

	drivers, err := s.drivers.ListActive(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("failed to list drivers: %w", err)
	}

	var lines []notifier.ComplianceReportLine
	for _, d := range drivers {
		if d.ChatPaused() {
			continue
		}

		outcome := s.evaluate(ctx, d, date, now)
		tr, err := s.tracking.UpsertObservation(ctx, d.ID, outcome, now)
		if err != nil {
			s.log.Error("failed to record observation",
				zap.String("driver", d.Mention()),
				zap.Error(err),
			)
			continue
		}

		if outcome == domainCompliance.OutcomeNonCompliant {
			s.escalate(ctx, d, g, tr, now)
		}

		lines = append(lines, notifier.ComplianceReportLine{
			Mention:  d.Mention(),
			Outcome:  outcome,
			Streak:   d.StreakCurrent,
			Consecut: tr.ConsecutiveReports,
		})
	}

	topic := g.RollingTopicID
	if g.ComplianceTopicID != nil {
		topic = *g.ComplianceTopicID
	}
	res := s.notify.SendComplianceReport(ctx, &notifier.ComplianceReport{
		GroupChat: g.ChatID,
		TopicID:   topic,
		At:        now,
		Lines:     lines,
	})
	if res.Err != nil {
		return fmt.Errorf("failed to deliver compliance report: %w", res.Err)
	}

	s.log.Info("compliance report delivered",
		zap.String("group", g.Title),
		zap.Int("drivers", len(lines)),
	)
	return nil
}

// evaluate classifies the driver's standing for the date. A pass or a
// submission awaiting review is compliant, and so is a quiet driver
// whose last pass still falls inside the report window, which covers
// the report runs before today's row exists. Excused days, redo
// requests and recognized exception reasons are exceptions; everything
// else counts against the driver.
func (s *Service) evaluate(ctx context.Context, d *driver.Driver, date, now time.Time) string {
	ci, err := s.checkins.GetByDriverDate(ctx, d.ID, date)
	if err != nil {
		if s.recentPass(d, now) {
			return domainCompliance.OutcomeCompliant
		}
		return domainCompliance.OutcomeNonCompliant
	}

	switch ci.Status {
	case domainCheckin.StatusPass, domainCheckin.StatusSubmitted:
		return domainCompliance.OutcomeCompliant
	case domainCheckin.StatusExcused, domainCheckin.StatusNeedsFix:
		return domainCompliance.OutcomeException
	}
	if ci.Reason != nil && domainCompliance.IsException(*ci.Reason) {
		return domainCompliance.OutcomeException
	}
	if ci.Status == domainCheckin.StatusPending && s.recentPass(d, now) {
		return domainCompliance.OutcomeCompliant
	}
	return domainCompliance.OutcomeNonCompliant
}

func (s *Service) recentPass(d *driver.Driver, now time.Time) bool {
	return d.LastPassAt != nil && now.Sub(*d.LastPassAt) < s.thresholds.ReportWindow
}

// escalate walks the alert ladder for a non-compliant driver. The rungs
// are independent of each other; each fires at most once per cooldown
// window.
func (s *Service) escalate(ctx context.Context, d *driver.Driver, g *group.Group, tr *domainCompliance.Tracking, now time.Time) {
	if tr.ConsecutiveReports >= s.thresholds.DispatchAlert &&
		cooledDown(tr.LastDispatchAlertAt, now, s.thresholds.AlertCooldown) {
		topic := g.RollingTopicID
		if g.ComplianceTopicID != nil {
			topic = *g.ComplianceTopicID
		}
		res := s.notify.SendEscalation(ctx, &notifier.Escalation{
			GroupChat: g.ChatID,
			TopicID:   topic,
			DriverID:  d.ID,
			Mention:   d.Mention(),
			Misses:    tr.ConsecutiveReports,
		})
		if res.OK {
			var ref *string
			if res.MessageRef != "" {
				ref = &res.MessageRef
			}
			if err := s.tracking.MarkDispatchAlert(ctx, d.ID, now, ref); err != nil {
				s.log.Warn("failed to mark dispatch alert", zap.Error(err))
			}
		}
	}

	if tr.ConsecutiveReports >= s.thresholds.DriverAlert &&
		cooledDown(tr.LastDriverAlertAt, now, s.thresholds.AlertCooldown) &&
		d.NotifyChatID != nil {
		res := s.notify.SendDriverAlert(ctx, &notifier.DriverAlert{
			ChatID:  *d.NotifyChatID,
			Mention: d.Mention(),
			Misses:  tr.ConsecutiveReports,
		})
		if res.OK {
			if err := s.tracking.MarkDriverAlert(ctx, d.ID, now); err != nil {
				s.log.Warn("failed to mark driver alert", zap.Error(err))
			}
		}
	}
}

// HandlePass clears the driver's miss counter and, when the weekly pass
// count earns it, sends a congratulations note at most once per week.
func (s *Service) HandlePass(ctx context.Context, d *driver.Driver, g *group.Group, date time.Time) error {
	if err := s.tracking.ResetCounter(ctx, d.ID); err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}

	weekStart := WeekStart(date)
	passes, err := s.checkins.WeeklyPassCount(ctx, d.ID, weekStart)
	if err != nil {
		return fmt.Errorf("failed to count weekly passes: %w", err)
	}
	if passes < s.thresholds.CongratsPass {
		return nil
	}
	if d.LastCongratsAt != nil && !d.LastCongratsAt.Before(weekStart) {
		return nil
	}
	if d.NotifyChatID == nil || d.ChatPaused() {
		return nil
	}

	res := s.notify.SendCongrats(ctx, &notifier.Congrats{
		ChatID:  *d.NotifyChatID,
		Mention: d.Mention(),
		Passes:  passes,
		Streak:  d.StreakCurrent,
	})
	if res.OK {
		if err := s.drivers.SetLastCongrats(ctx, d.ID, time.Now()); err != nil {
			return fmt.Errorf("failed to mark congrats: %w", err)
		}
	}
	return nil
}

// WeeklyLeaderboard posts the previous week's pass rankings to the
// group chat.
func (s *Service) WeeklyLeaderboard(ctx context.Context, g *group.Group, now time.Time) error {
	today := g.Today(now)
	weekEnd := WeekStart(today)
	weekStart := weekEnd.AddDate(0, 0, -7)

	ranks, err := s.checkins.WeeklyRankings(ctx, g.ID, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("failed to compute rankings: %w", err)
	}
	if len(ranks) == 0 {
		return nil
	}

	lines := make([]notifier.LeaderboardLine, len(ranks))
	for i, r := range ranks {
		lines[i] = notifier.LeaderboardLine{
			Rank:    i + 1,
			Mention: r.Mention,
			Passes:  r.Passes,
			Total:   r.Total,
			Pct:     r.Pct,
		}
	}

	res := s.notify.SendLeaderboard(ctx, &notifier.Leaderboard{
		GroupChat: g.ChatID,
		TopicID:   g.RollingTopicID,
		WeekStart: weekStart,
		Lines:     lines,
	})
	if res.Err != nil {
		return fmt.Errorf("failed to deliver leaderboard: %w", res.Err)
	}
	return nil
}

// AddNote appends a dispatcher annotation to the driver's record.
func (s *Service) AddNote(ctx context.Context, driverID uuid.UUID, authorID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("note text is empty")
	}
	return s.tracking.AddNote(ctx, &domainCompliance.Note{
		DriverID: driverID,
		AuthorID: authorID,
		Text:     text,
	})
}

// Notes returns the most recent annotations for the driver.
func (s *Service) Notes(ctx context.Context, driverID uuid.UUID, limit int) ([]*domainCompliance.Note, error) {
	return s.tracking.LatestNotes(ctx, driverID, limit)
}

// Tracking returns the driver's current standing, or nil when the
// driver has never been observed.
func (s *Service) Tracking(ctx context.Context, driverID uuid.UUID) (*domainCompliance.Tracking, error) {
	tr, err := s.tracking.GetByDriver(ctx, driverID)
	if err == domainCompliance.ErrTrackingNotFound {
		return nil, nil
	}
	return tr, err
}

// ClearTracking wipes every miss counter in the group, auditing who
// asked for it.
func (s *Service) ClearTracking(ctx context.Context, groupID uuid.UUID, resetBy *int64) (int64, error) {
	return s.tracking.ClearAll(ctx, groupID, resetBy)
}

// WeekStart returns the Monday on or before the date, at the date's
// clock time.
func WeekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

func cooledDown(last *time.Time, now time.Time, cooldown time.Duration) bool {
	return last == nil || now.Sub(*last) >= cooldown
}
