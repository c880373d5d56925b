package group

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domainGroup "fleet-compliance-monitor/internal/domain/group"
)

type fakeGroupRepo struct {
	groups map[uuid.UUID]*domainGroup.Group
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[uuid.UUID]*domainGroup.Group)}
}

func (r *fakeGroupRepo) Save(_ context.Context, g *domainGroup.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.groups[g.ID] = g
	return nil
}

// reads return copies so a rejected mutation never leaks into the store
func (r *fakeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*domainGroup.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, domainGroup.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGroupRepo) GetByChatID(_ context.Context, chatID int64) (*domainGroup.Group, error) {
	for _, g := range r.groups {
		if g.ChatID == chatID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domainGroup.ErrGroupNotFound
}

func (r *fakeGroupRepo) ListActive(_ context.Context) ([]*domainGroup.Group, error) {
	var out []*domainGroup.Group
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
		return domainGroup.ErrGroupNotFound
	}
	g.Active = false
	return nil
}

type fakeRegistry struct {
	upserts []uuid.UUID
	removes []uuid.UUID
}

func (r *fakeRegistry) UpsertGroupSchedule(g *domainGroup.Group) error {
	r.upserts = append(r.upserts, g.ID)
	return nil
}

func (r *fakeRegistry) RemoveGroupSchedule(groupID uuid.UUID) {
	r.removes = append(r.removes, groupID)
}

func newTestService(t *testing.T) (*Service, *fakeGroupRepo, *fakeRegistry) {
	t.Helper()
	repo := newFakeGroupRepo()
	reg := &fakeRegistry{}
	return NewService(repo, reg, zaptest.NewLogger(t)), repo, reg
}

func TestRegisterNewGroup(t *testing.T) {
	svc, repo, reg := newTestService(t)

	g, err := svc.Register(context.Background(), -100, "Night Fleet", "", 11)
	require.NoError(t, err)

	assert.Equal(t, "America/Chicago", g.Timezone, "empty timezone falls back to the fleet default")
	assert.Equal(t, "10:30", g.DigestTime)
	assert.True(t, g.Active)
	assert.Contains(t, repo.groups, g.ID)
	assert.Equal(t, []uuid.UUID{g.ID}, reg.upserts, "registration programs the scheduler")
}

func TestRegisterExistingChatUpdatesInPlace(t *testing.T) {
	svc, repo, _ := newTestService(t)

	first, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), -100, "Night Fleet v2", "America/Denver", 12)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same chat maps to the same group")
	assert.Len(t, repo.groups, 1)
	assert.Equal(t, "America/Denver", second.Timezone)
	assert.Equal(t, int64(12), second.RollingTopicID)
}

func TestRegisterUnknownTimezone(t *testing.T) {
	svc, _, reg := newTestService(t)

	_, err := svc.Register(context.Background(), -100, "Night Fleet", "Mars/Olympus", 11)
	assert.ErrorIs(t, err, domainGroup.ErrUnknownTimezone)
	assert.Empty(t, reg.upserts)
}

func TestSetTimezoneReschedules(t *testing.T) {
	svc, _, reg := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	updated, err := svc.SetTimezone(context.Background(), g.ID, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", updated.Timezone)
	assert.Len(t, reg.upserts, 2)
}

func TestSetAutosend(t *testing.T) {
	svc, _, _ := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	at := "07:00"
	updated, err := svc.SetAutosend(context.Background(), g.ID, true, &at)
	require.NoError(t, err)
	assert.True(t, updated.AutosendEnabled)
	require.NotNil(t, updated.AutosendTime)
	assert.Equal(t, "07:00", *updated.AutosendTime)

	// disabling keeps the stored time for the next enable
	updated, err = svc.SetAutosend(context.Background(), g.ID, false, nil)
	require.NoError(t, err)
	assert.False(t, updated.AutosendEnabled)
	assert.NotNil(t, updated.AutosendTime)
}

func TestSetAutosendEnabledWithoutTime(t *testing.T) {
	svc, repo, _ := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	_, err = svc.SetAutosend(context.Background(), g.ID, true, nil)
	assert.ErrorIs(t, err, domainGroup.ErrInvalidTime)
	assert.False(t, repo.groups[g.ID].AutosendEnabled, "rejected change not persisted")
}

func TestSetAutosendBadTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	bad := "24:00"
	_, err = svc.SetAutosend(context.Background(), g.ID, true, &bad)
	assert.ErrorIs(t, err, domainGroup.ErrInvalidTime)
}

func TestSetDigestTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	updated, err := svc.SetDigestTime(context.Background(), g.ID, "09:15")
	require.NoError(t, err)
	assert.Equal(t, "09:15", updated.DigestTime)

	_, err = svc.SetDigestTime(context.Background(), g.ID, "9:5")
	assert.ErrorIs(t, err, domainGroup.ErrInvalidTime)
}

func TestSetTopics(t *testing.T) {
	svc, _, _ := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	compliance := int64(77)
	updated, err := svc.SetTopics(context.Background(), g.ID, 22, &compliance, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(22), updated.RollingTopicID)
	require.NotNil(t, updated.ComplianceTopicID)
	assert.Equal(t, int64(77), *updated.ComplianceTopicID)
	assert.Nil(t, updated.TrailerTopicID)
}

func TestDeactivate(t *testing.T) {
	svc, repo, reg := newTestService(t)
	g, err := svc.Register(context.Background(), -100, "Night Fleet", "UTC", 11)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), g.ID))
	assert.False(t, repo.groups[g.ID].Active)
	assert.Equal(t, []uuid.UUID{g.ID}, reg.removes)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestValidateTimeOfDay(t *testing.T) {
	valid := []string{"00:00", "7:05", "07:05", "23:59", "19:30"}
	for _, s := range valid {
		if err := ValidateTimeOfDay(s); err != nil {
			t.Errorf("ValidateTimeOfDay(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "24:00", "12:60", "1230", "12:3", "noon", "-1:30"}
	for _, s := range invalid {
		if err := ValidateTimeOfDay(s); err == nil {
			t.Errorf("ValidateTimeOfDay(%q) expected error", s)
		}
	}
}
