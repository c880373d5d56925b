package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fleet-compliance-monitor/internal/config"
	"fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/domain/group"
	pkgErrors "fleet-compliance-monitor/pkg/errors"
)

type fakeGroupRepo struct {
	groups map[uuid.UUID]*group.Group
}

func (r *fakeGroupRepo) Save(_ context.Context, g *group.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.groups[g.ID] = g
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*group.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, group.ErrGroupNotFound
	}
	return g, nil
}

func (r *fakeGroupRepo) GetByChatID(_ context.Context, chatID int64) (*group.Group, error) {
	for _, g := range r.groups {
		if g.ChatID == chatID {
			return g, nil
		}
	}
	return nil, group.ErrGroupNotFound
}

func (r *fakeGroupRepo) ListActive(_ context.Context) ([]*group.Group, error) {
	var out []*group.Group
	for _, g := range r.groups {
		if g.Active {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	g, ok := r.groups[id]
	if !ok {
		return group.ErrGroupNotFound
	}
	g.Active = false
	return nil
}

func testConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		ComplianceInterval:  2 * time.Hour,
		MediaDebounceWindow: 3 * time.Second,
		FollowupDelays:      []time.Duration{15 * time.Minute, 50 * time.Minute},
		AlertCooldown:       24 * time.Hour,
		DefaultDigestTime:   "10:30",
	}
}

func newTestScheduler(t *testing.T, repo *fakeGroupRepo) *Scheduler {
	t.Helper()
	return New(repo, nil, nil, nil, nil, nil, testConfig(), zaptest.NewLogger(t))
}

func testGroup() *group.Group {
	return &group.Group{
		ID:         uuid.New(),
		ChatID:     -100,
		Title:      "Night Fleet",
		Timezone:   "America/Chicago",
		DigestTime: "10:30",
		Active:     true,
	}
}

func TestUpsertGroupScheduleBaseline(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()

	require.NoError(t, s.UpsertGroupSchedule(g))

	kinds := s.ActiveTriggers(g.ID)
	assert.ElementsMatch(t, []string{
		TriggerDigest, TriggerMidnight, TriggerLeaderboard,
	}, kinds, "no autosend and no compliance topic leaves three triggers")
}

func TestUpsertGroupScheduleWithComplianceTopic(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()
	topic := int64(77)
	g.ComplianceTopicID = &topic

	require.NoError(t, s.UpsertGroupSchedule(g))
	assert.Contains(t, s.ActiveTriggers(g.ID), TriggerCompliance)
	assert.Len(t, s.ActiveTriggers(g.ID), 4)
}

func TestUpsertGroupScheduleWithAutosend(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()
	at := "07:00"
	g.AutosendEnabled = true
	g.AutosendTime = &at

	require.NoError(t, s.UpsertGroupSchedule(g))
	assert.Contains(t, s.ActiveTriggers(g.ID), TriggerAutosend)
	assert.Len(t, s.ActiveTriggers(g.ID), 4)
}

func TestUpsertGroupScheduleReplacesEntries(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()
	at := "07:00"
	g.AutosendEnabled = true
	g.AutosendTime = &at

	require.NoError(t, s.UpsertGroupSchedule(g))
	require.Len(t, s.ActiveTriggers(g.ID), 4)

	g.AutosendEnabled = false
	require.NoError(t, s.UpsertGroupSchedule(g))
	assert.Len(t, s.ActiveTriggers(g.ID), 3, "old entries removed, not accumulated")
}

func TestUpsertGroupScheduleUnknownTimezone(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()

	require.NoError(t, s.UpsertGroupSchedule(g))

	g.Timezone = "Mars/Olympus"
	err := s.UpsertGroupSchedule(g)
	require.Error(t, err)

	var appErr *pkgErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, pkgErrors.CodeScheduleConfig, appErr.Code)
	assert.ErrorIs(t, err, group.ErrUnknownTimezone)

	assert.Len(t, s.ActiveTriggers(g.ID), 3, "running schedule untouched on bad config")
}

func TestUpsertGroupScheduleBadAutosendTime(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()
	require.NoError(t, s.UpsertGroupSchedule(g))

	bad := "25:99"
	g.AutosendEnabled = true
	g.AutosendTime = &bad
	err := s.UpsertGroupSchedule(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, group.ErrInvalidTime)
	assert.Len(t, s.ActiveTriggers(g.ID), 3)
}

func TestRemoveGroupSchedule(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})
	g := testGroup()
	require.NoError(t, s.UpsertGroupSchedule(g))

	s.RemoveGroupSchedule(g.ID)
	assert.Empty(t, s.ActiveTriggers(g.ID))
}

func TestStartSchedulesActiveGroups(t *testing.T) {
	repo := &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}}
	good := testGroup()
	require.NoError(t, repo.Save(context.Background(), good))

	broken := testGroup()
	broken.Timezone = "Nowhere/Null"
	require.NoError(t, repo.Save(context.Background(), broken))

	inactive := testGroup()
	inactive.Active = false
	require.NoError(t, repo.Save(context.Background(), inactive))

	s := newTestScheduler(t, repo)
	require.NoError(t, s.Start(context.Background()), "one broken group must not block startup")
	defer s.Stop()

	assert.Len(t, s.ActiveTriggers(good.ID), 3)
	assert.Empty(t, s.ActiveTriggers(broken.ID))
	assert.Empty(t, s.ActiveTriggers(inactive.ID))
}

func TestSendReminderPausedChatIsSkipped(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})

	chatID := int64(555)
	title := "Bob - Home Time"
	d := &driver.Driver{
		ID:              uuid.New(),
		ExternalID:      42,
		Active:          true,
		NotifyChatID:    &chatID,
		NotifyChatTitle: &title,
	}

	err := s.SendReminder(context.Background(), d)
	assert.ErrorIs(t, err, driver.ErrChatPaused)
}

func TestSendReminderRequiresLinkedChat(t *testing.T) {
	s := newTestScheduler(t, &fakeGroupRepo{groups: map[uuid.UUID]*group.Group{}})

	d := &driver.Driver{ID: uuid.New(), ExternalID: 42, Active: true}
	err := s.SendReminder(context.Background(), d)
	assert.ErrorIs(t, err, driver.ErrNoChatLinked)
}

func TestDailySpec(t *testing.T) {
	spec, err := dailySpec("America/Chicago", "10:30")
	require.NoError(t, err)
	assert.Equal(t, "CRON_TZ=America/Chicago 30 10 * * *", spec)

	_, err = dailySpec("America/Chicago", "1030")
	assert.ErrorIs(t, err, group.ErrInvalidTime)
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"7:05", 7, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
		{"-1:30", 0, 0, true},
	}

	for _, tc := range cases {
		hour, minute, err := parseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTimeOfDay(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTimeOfDay(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if hour != tc.hour || minute != tc.minute {
			t.Errorf("parseTimeOfDay(%q) = %d:%d, want %d:%d", tc.in, hour, minute, tc.hour, tc.minute)
		}
	}
}
