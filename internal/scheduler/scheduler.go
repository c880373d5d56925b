package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fleet-compliance-monitor/internal/config"
	"fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/internal/notifier"
	checkinUC "fleet-compliance-monitor/internal/usecase/checkin"
	complianceUC "fleet-compliance-monitor/internal/usecase/compliance"
	streakUC "fleet-compliance-monitor/internal/usecase/streak"
	pkgErrors "fleet-compliance-monitor/pkg/errors"
)

// trigger kinds, used for introspection and logging.
const (
	TriggerAutosend    = "autosend"
	TriggerDigest      = "digest"
	TriggerCompliance  = "compliance_report"
	TriggerMidnight    = "midnight_reset"
	TriggerLeaderboard = "weekly_leaderboard"
)

type entryRecord struct {
	id   cron.EntryID
	kind string
	spec string
}

// Scheduler owns every recurring trigger. Each group contributes up to
// five cron entries, all evaluated in the group's own timezone, plus
// ad hoc follow-up timers per outstanding check-in. Jobs refetch their
// group at fire time so a stale closure never acts on old settings.
type Scheduler struct {
	cron *cron.Cron

	groups     group.Repository
	drivers    driver.Repository
	checkins   *checkinUC.Service
	compliance *complianceUC.Service
	streaks    *streakUC.Service
	notify     notifier.Notifier
	cfg        config.ScheduleConfig
	log        *zap.Logger

	mu        sync.Mutex
	entries   map[uuid.UUID][]entryRecord
	followups map[uuid.UUID][]*time.Timer
}

func New(
	groups group.Repository,
	drivers driver.Repository,
	checkins *checkinUC.Service,
	compliance *complianceUC.Service,
	streaks *streakUC.Service,
	notify notifier.Notifier,
	cfg config.ScheduleConfig,
	log *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		groups:     groups,
		drivers:    drivers,
		checkins:   checkins,
		compliance: compliance,
		streaks:    streaks,
		notify:     notify,
		cfg:        cfg,
		log:        log,
		entries:    make(map[uuid.UUID][]entryRecord),
		followups:  make(map[uuid.UUID][]*time.Timer),
	}
}

// Start loads every active group and begins firing triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	groups, err := s.groups.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}

	for _, g := range groups {
		if err := s.UpsertGroupSchedule(g); err != nil {
			// One misconfigured group must not block the rest.
			s.log.Error("failed to schedule group",
				zap.String("group", g.Title),
				zap.Error(err),
			)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("groups", len(groups)))
	return nil
}

// Stop halts the cron loop and cancels outstanding follow-up timers.
// Running jobs are allowed to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()

	s.mu.Lock()
	for id, timers := range s.followups {
		for _, t := range timers {
			t.Stop()
		}
		delete(s.followups, id)
	}
	s.mu.Unlock()

	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
}

// UpsertGroupSchedule replaces the group's triggers with ones built
// from its current configuration. The new specs are validated in full
// before the old entries are removed, so an invalid configuration
// leaves the running schedule untouched.
func (s *Scheduler) UpsertGroupSchedule(g *group.Group) error {
	if _, err := time.LoadLocation(g.Timezone); err != nil {
		return pkgErrors.NewAppError(pkgErrors.CodeScheduleConfig,
			"unknown timezone "+g.Timezone, group.ErrUnknownTimezone)
	}

	specs, err := s.buildSpecs(g)
	if err != nil {
		return pkgErrors.NewAppError(pkgErrors.CodeScheduleConfig,
			"invalid schedule configuration", err)
	}
	for _, sp := range specs {
		if _, err := cron.ParseStandard(sp.spec); err != nil {
			return pkgErrors.NewAppError(pkgErrors.CodeScheduleConfig,
				fmt.Sprintf("bad %s spec %q", sp.kind, sp.spec), err)
		}
	}

	groupID := g.ID
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.entries[groupID] {
		s.cron.Remove(rec.id)
	}
	delete(s.entries, groupID)

	records := make([]entryRecord, 0, len(specs))
	for _, sp := range specs {
		kind := sp.kind
		id, err := s.cron.AddFunc(sp.spec, func() { s.runJob(kind, groupID) })
		if err != nil {
			// Specs were parsed above; failure here is unexpected. Undo
			// what was added to keep the group all-or-nothing.
			for _, rec := range records {
				s.cron.Remove(rec.id)
			}
			return fmt.Errorf("failed to add %s trigger: %w", sp.kind, err)
		}
		records = append(records, entryRecord{id: id, kind: sp.kind, spec: sp.spec})
	}
	s.entries[groupID] = records

	s.log.Info("group schedule updated",
		zap.String("group", g.Title),
		zap.String("timezone", g.Timezone),
		zap.Int("triggers", len(records)),
	)
	return nil
}

// RemoveGroupSchedule drops every trigger and follow-up for the group.
func (s *Scheduler) RemoveGroupSchedule(groupID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.entries[groupID] {
		s.cron.Remove(rec.id)
	}
	delete(s.entries, groupID)
}

// ActiveTriggers lists the trigger kinds currently scheduled for the
// group.
func (s *Scheduler) ActiveTriggers(groupID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]string, 0, len(s.entries[groupID]))
	for _, rec := range s.entries[groupID] {
		kinds = append(kinds, rec.kind)
	}
	return kinds
}

type specEntry struct {
	kind string
	spec string
}

func (s *Scheduler) buildSpecs(g *group.Group) ([]specEntry, error) {
	var specs []specEntry

	if g.AutosendEnabled && g.AutosendTime != nil {
		spec, err := dailySpec(g.Timezone, *g.AutosendTime)
		if err != nil {
			return nil, err
		}
		specs = append(specs, specEntry{TriggerAutosend, spec})
	}

	digestAt := g.DigestTime
	if digestAt == "" {
		digestAt = s.cfg.DefaultDigestTime
	}
	digestSpec, err := dailySpec(g.Timezone, digestAt)
	if err != nil {
		return nil, err
	}
	specs = append(specs, specEntry{TriggerDigest, digestSpec})

	// Periodic compliance reports only run for groups that configured a
	// topic for them.
	if g.ComplianceTopicID != nil {
		specs = append(specs,
			specEntry{TriggerCompliance, fmt.Sprintf("@every %s", s.cfg.ComplianceInterval)})
	}

	specs = append(specs,
		specEntry{TriggerMidnight, fmt.Sprintf("CRON_TZ=%s 5 0 * * *", g.Timezone)},
		specEntry{TriggerLeaderboard, fmt.Sprintf("CRON_TZ=%s 0 6 * * 1", g.Timezone)},
	)
	return specs, nil
}

// dailySpec builds a cron spec firing once a day at the local HH:MM.
func dailySpec(timezone, at string) (string, error) {
	hour, minute, err := parseTimeOfDay(at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CRON_TZ=%s %d %d * * *", timezone, minute, hour), nil
}

func parseTimeOfDay(at string) (hour, minute int, err error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return 0, 0, group.ErrInvalidTime
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, group.ErrInvalidTime
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, group.ErrInvalidTime
	}
	return hour, minute, nil
}
