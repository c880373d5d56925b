package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	domainCompliance "fleet-compliance-monitor/internal/domain/compliance"
	"fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/internal/notifier"
	"fleet-compliance-monitor/internal/usecase/streak"
)

// PassHandler receives the side effects of a passed review.
type PassHandler interface {
	HandlePass(ctx context.Context, d *driver.Driver, g *group.Group, date time.Time) error
}

// FollowupCanceler stops pending follow-up reminders for a check-in.
type FollowupCanceler interface {
	CancelFollowups(checkinID uuid.UUID)
}

// Service drives the daily check-in lifecycle: creating the day's row,
// recording the driver's media, applying reviewer verdicts and the
// administrative reopen and reset operations.
type Service struct {
	checkins  domainCheckin.Repository
	drivers   driver.Repository
	groups    group.Repository
	streaks   *streak.Service
	notify    notifier.Notifier
	passes    PassHandler
	followups FollowupCanceler
	log       *zap.Logger
}

func NewService(
	checkins domainCheckin.Repository,
	drivers driver.Repository,
	groups group.Repository,
	streaks *streak.Service,
	notify notifier.Notifier,
	log *zap.Logger,
) *Service {
	return &Service{
		checkins: checkins,
		drivers:  drivers,
		groups:   groups,
		streaks:  streaks,
		notify:   notify,
		log:      log,
	}
}

// SetPassHandler wires the compliance side effects of a pass. Set once
// at startup; the handler is optional in tests.
func (s *Service) SetPassHandler(h PassHandler) { s.passes = h }

// SetFollowupCanceler wires the scheduler's follow-up cancellation.
func (s *Service) SetFollowupCanceler(c FollowupCanceler) { s.followups = c }

// EnsureToday returns the driver's check-in row for the group-local
// date of now, creating a pending one when absent.
func (s *Service) EnsureToday(ctx context.Context, d *driver.Driver, now time.Time) (*domainCheckin.CheckIn, error) {
	g, err := s.groups.GetByID(ctx, d.GroupID)
	if err != nil {
		return nil, err
	}
	return s.checkins.Ensure(ctx, d.ID, g.ID, g.Today(now))
}

// MarkSent stamps the first reminder delivery time on the check-in.
func (s *Service) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.checkins.MarkSent(ctx, id, at)
}

// SubmitMedia records the media a driver posted in their linked chat.
// The check-in row for today is created when missing, pending follow-up
// reminders are cancelled, and a review card is pushed to dispatch.
func (s *Service) SubmitMedia(ctx context.Context, chatID int64, items []*domainCheckin.Media, at time.Time) (*domainCheckin.CheckIn, error) {
	d, err := s.drivers.GetByNotifyChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, driver.ErrDriverNotFound
	}

	g, err := s.groups.GetByID(ctx, d.GroupID)
	if err != nil {
		return nil, err
	}
	date := g.Today(at)

	ci, err := s.checkins.Ensure(ctx, d.ID, g.ID, date)
	if err != nil {
		return nil, err
	}

	ci, err = s.checkins.AttachMedia(ctx, ci.ID, items, at)
	if err != nil {
		return nil, err
	}

	if s.followups != nil {
		s.followups.CancelFollowups(ci.ID)
	}

	refs := make([]string, len(items))
	for i, m := range items {
		refs[i] = m.FileRef
	}
	res := s.notify.SendReviewCard(ctx, &notifier.ReviewCard{
		CheckinID: ci.ID,
		GroupChat: g.ChatID,
		TopicID:   g.RollingTopicID,
		Mention:   d.Mention(),
		MediaRefs: refs,
		Date:      date,
	})
	if res.OK && res.MessageRef != "" {
		if err := s.checkins.SetReviewMessageRef(ctx, ci.ID, res.MessageRef); err != nil {
			s.log.Warn("failed to store review message ref", zap.Error(err))
		}
	} else if res.Err != nil {
		// The submission itself stands; only the card delivery failed.
		s.log.Warn("review card delivery failed",
			zap.String("checkin_id", ci.ID.String()),
			zap.Error(res.Err),
		)
	}

	s.log.Info("media submitted",
		zap.String("checkin_id", ci.ID.String()),
		zap.String("driver", d.Mention()),
		zap.Int("items", len(items)),
	)
	return ci, nil
}

// RecordDriverText inspects a text message from the driver's chat.
// Messages naming a recognized exception reason are stored on today's
// check-in so the compliance run can classify the day as an exception;
// anything else is ignored.
func (s *Service) RecordDriverText(ctx context.Context, chatID int64, text string, at time.Time) error {
	if !domainCompliance.IsException(text) {
		return nil
	}

	d, err := s.drivers.GetByNotifyChat(ctx, chatID)
	if err != nil {
		return err
	}
	ci, err := s.EnsureToday(ctx, d, at)
	if err != nil {
		return err
	}

	err = s.checkins.SetReason(ctx, ci.ID, text)
	if errors.Is(err, domainCheckin.ErrCheckinNotFound) {
		// Already reviewed; the stated reason no longer matters.
		return nil
	}
	return err
}

// Review applies a reviewer verdict. A pass feeds the streak and
// compliance engines; fail and needs_fix clear the driver's last pass
// marker. Reviewing a day with no row is an invalid transition, not a
// missing record.
func (s *Service) Review(ctx context.Context, checkinID uuid.UUID, to domainCheckin.Status, reviewerID *int64, reason *string, now time.Time) (*domainCheckin.CheckIn, error) {
	if !to.Valid() || !to.Terminal() {
		return nil, domainCheckin.ErrInvalidStatus
	}

	allowed := reviewSources(to)
	ci, err := s.checkins.UpdateReview(ctx, checkinID, to, allowed, reviewerID, reason, now)
	if errors.Is(err, domainCheckin.ErrCheckinNotFound) {
		return nil, domainCheckin.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	if err := s.applyVerdictEffects(ctx, ci, to, now); err != nil {
		s.log.Warn("verdict side effects incomplete",
			zap.String("checkin_id", ci.ID.String()),
			zap.Error(err),
		)
	}
	return ci, nil
}

func (s *Service) applyVerdictEffects(ctx context.Context, ci *domainCheckin.CheckIn, to domainCheckin.Status, now time.Time) error {
	d, err := s.drivers.GetByID(ctx, ci.DriverID)
	if err != nil {
		return err
	}

	switch to {
	case domainCheckin.StatusPass:
		g, err := s.groups.GetByID(ctx, ci.GroupID)
		if err != nil {
			return err
		}
		if _, _, err := s.streaks.ApplyPass(ctx, d, ci.Date); err != nil {
			return err
		}
		if err := s.drivers.SetLastPass(ctx, d.ID, &now); err != nil {
			return err
		}
		if s.passes != nil {
			return s.passes.HandlePass(ctx, d, g, ci.Date)
		}
	case domainCheckin.StatusFail, domainCheckin.StatusNeedsFix:
		return s.drivers.SetLastPass(ctx, d.ID, nil)
	}
	return nil
}

// Excuse marks the driver's day as excused, creating the row first when
// the driver was never reminded.
func (s *Service) Excuse(ctx context.Context, driverID uuid.UUID, reviewerID *int64, reason *string, now time.Time) (*domainCheckin.CheckIn, error) {
	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	ci, err := s.EnsureToday(ctx, d, now)
	if err != nil {
		return nil, err
	}
	return s.Review(ctx, ci.ID, domainCheckin.StatusExcused, reviewerID, reason, now)
}

// Reopen moves a reviewed check-in back to submitted so it can be
// judged again. Only terminal statuses reopen.
func (s *Service) Reopen(ctx context.Context, checkinID uuid.UUID, now time.Time) (*domainCheckin.CheckIn, error) {
	terminals := []domainCheckin.Status{
		domainCheckin.StatusPass,
		domainCheckin.StatusFail,
		domainCheckin.StatusNeedsFix,
		domainCheckin.StatusExcused,
	}
	ci, err := s.checkins.UpdateReview(ctx, checkinID, domainCheckin.StatusSubmitted, terminals, nil, nil, now)
	if err != nil {
		return nil, err
	}
	return ci, nil
}

// Reset rewinds a single check-in to pending, clearing its sent and
// media state so the next autosend reminds the driver again. Allowed
// from any status and idempotent on an already pending row.
func (s *Service) Reset(ctx context.Context, checkinID uuid.UUID) error {
	return s.checkins.Reset(ctx, checkinID)
}

// ResetAllToday rewinds every check-in of the group for today to
// pending and records the reset for the audit trail.
func (s *Service) ResetAllToday(ctx context.Context, groupID uuid.UUID, resetBy *int64, now time.Time) (int64, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return 0, err
	}
	date := g.Today(now)
	return s.checkins.ResetAllForDate(ctx, g.ID, date, manualResetScope(g.ID), resetBy)
}

// LastManualReset returns the most recent dispatcher reset of the
// group's current day, or nil when none happened.
func (s *Service) LastManualReset(ctx context.Context, groupID uuid.UUID, now time.Time) (*domainCheckin.ResetEntry, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.checkins.LastReset(ctx, manualResetScope(g.ID), g.Today(now))
}

func manualResetScope(groupID uuid.UUID) string {
	return "manual_reset:" + groupID.String()
}

// WasReset reports whether a reset with the scope already ran for the
// date.
func (s *Service) WasReset(ctx context.Context, scope string, date time.Time) (bool, error) {
	entry, err := s.checkins.LastReset(ctx, scope, date)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// RecordReset logs a reset occurrence for the scope and date.
func (s *Service) RecordReset(ctx context.Context, scope string, date time.Time) error {
	return s.checkins.RecordReset(ctx, &domainCheckin.ResetEntry{
		Scope: scope,
		Date:  date,
	})
}

// Stats returns the per-status counts for the group's current day.
func (s *Service) Stats(ctx context.Context, groupID uuid.UUID, now time.Time) (*domainCheckin.DailyStats, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.checkins.Stats(ctx, g.ID, g.Today(now))
}

// Pending returns the group's not-yet-reviewed drivers for today, each
// with their pass count over the trailing week.
func (s *Service) Pending(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domainCheckin.PendingDriver, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.checkins.PendingWithPassCounts(ctx, g.ID, g.Today(now))
}

// History returns the driver's check-ins over the trailing window.
func (s *Service) History(ctx context.Context, driverID uuid.UUID, days int, now time.Time) ([]*domainCheckin.CheckIn, error) {
	if days <= 0 {
		days = 7
	}
	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, d.GroupID)
	if err != nil {
		return nil, err
	}
	return s.checkins.ListRecent(ctx, driverID, days, g.Today(now))
}

// reviewSources lists the statuses a verdict may be applied from,
// narrowed to the ones the transition table allows for the target.
func reviewSources(to domainCheckin.Status) []domainCheckin.Status {
	candidates := []domainCheckin.Status{
		domainCheckin.StatusPending,
		domainCheckin.StatusSubmitted,
		domainCheckin.StatusPass,
		domainCheckin.StatusFail,
		domainCheckin.StatusNeedsFix,
		domainCheckin.StatusExcused,
	}
	var out []domainCheckin.Status
	for _, from := range candidates {
		if domainCheckin.CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}
