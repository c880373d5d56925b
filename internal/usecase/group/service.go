package group

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainGroup "fleet-compliance-monitor/internal/domain/group"
)

// ScheduleRegistry is the scheduler's surface the configuration path
// needs: rebuild a group's triggers after a change, drop them on
// deactivation.
type ScheduleRegistry interface {
	UpsertGroupSchedule(g *domainGroup.Group) error
	RemoveGroupSchedule(groupID uuid.UUID)
}

var timeOfDayRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// ValidateTimeOfDay checks an HH:MM wall clock string.
func ValidateTimeOfDay(s string) error {
	if !timeOfDayRe.MatchString(s) {
		return domainGroup.ErrInvalidTime
	}
	return nil
}

// Service manages group registration and schedule configuration. Every
// setter validates first and reprograms the scheduler only after the
// new configuration is persisted, so a bad value never tears down the
// running triggers.
type Service struct {
	groups    domainGroup.Repository
	schedules ScheduleRegistry
	log       *zap.Logger
}

func NewService(groups domainGroup.Repository, schedules ScheduleRegistry, log *zap.Logger) *Service {
	return &Service{groups: groups, schedules: schedules, log: log}
}

// Register creates or updates a group binding for a dispatcher chat.
func (s *Service) Register(ctx context.Context, chatID int64, title, timezone string, rollingTopicID int64) (*domainGroup.Group, error) {
	if timezone == "" {
		timezone = "America/Chicago"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, domainGroup.ErrUnknownTimezone
	}

	g, err := s.groups.GetByChatID(ctx, chatID)
	if err == domainGroup.ErrGroupNotFound {
		g = &domainGroup.Group{
			ChatID:     chatID,
			Active:     true,
			DigestTime: "10:30",
		}
	} else if err != nil {
		return nil, err
	}

	g.Title = title
	g.Timezone = timezone
	g.RollingTopicID = rollingTopicID

	if err := s.groups.Save(ctx, g); err != nil {
		return nil, err
	}
	return g, s.reschedule(g)
}

// Get returns the group by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domainGroup.Group, error) {
	return s.groups.GetByID(ctx, id)
}

// List returns every active group.
func (s *Service) List(ctx context.Context) ([]*domainGroup.Group, error) {
	return s.groups.ListActive(ctx)
}

// SetTimezone changes the group's timezone and rebuilds its triggers.
func (s *Service) SetTimezone(ctx context.Context, id uuid.UUID, timezone string) (*domainGroup.Group, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, domainGroup.ErrUnknownTimezone
	}
	return s.update(ctx, id, func(g *domainGroup.Group) error {
		g.Timezone = timezone
		return nil
	})
}

// SetAutosend enables or disables the daily reminder and optionally
// moves its local send time.
func (s *Service) SetAutosend(ctx context.Context, id uuid.UUID, enabled bool, at *string) (*domainGroup.Group, error) {
	if at != nil {
		if err := ValidateTimeOfDay(*at); err != nil {
			return nil, err
		}
	}
	return s.update(ctx, id, func(g *domainGroup.Group) error {
		g.AutosendEnabled = enabled
		if at != nil {
			g.AutosendTime = at
		}
		if enabled && g.AutosendTime == nil {
			return fmt.Errorf("%w: autosend enabled without a time", domainGroup.ErrInvalidTime)
		}
		return nil
	})
}

// SetDigestTime moves the group's daily digest.
func (s *Service) SetDigestTime(ctx context.Context, id uuid.UUID, at string) (*domainGroup.Group, error) {
	if err := ValidateTimeOfDay(at); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(g *domainGroup.Group) error {
		g.DigestTime = at
		return nil
	})
}

// SetTopics rebinds the group's message topics.
func (s *Service) SetTopics(ctx context.Context, id uuid.UUID, rolling int64, compliance, trailer *int64) (*domainGroup.Group, error) {
	return s.update(ctx, id, func(g *domainGroup.Group) error {
		g.RollingTopicID = rolling
		g.ComplianceTopicID = compliance
		g.TrailerTopicID = trailer
		return nil
	})
}

// Deactivate stops all scheduling for the group and hides it from
// active listings. Historical data is kept.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.groups.Deactivate(ctx, id); err != nil {
		return err
	}
	s.schedules.RemoveGroupSchedule(id)
	s.log.Info("group deactivated", zap.String("group_id", id.String()))
	return nil
}

func (s *Service) update(ctx context.Context, id uuid.UUID, mutate func(*domainGroup.Group) error) (*domainGroup.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(g); err != nil {
		return nil, err
	}
	if err := s.groups.Save(ctx, g); err != nil {
		return nil, err
	}
	return g, s.reschedule(g)
}

func (s *Service) reschedule(g *domainGroup.Group) error {
	if err := s.schedules.UpsertGroupSchedule(g); err != nil {
		return fmt.Errorf("configuration saved but scheduling failed: %w", err)
	}
	return nil
}
