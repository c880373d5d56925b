package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	"fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/internal/notifier"
	"fleet-compliance-monitor/internal/usecase/streak"
)

// --- fakes ---

type fakeCheckinRepo struct {
	rows   map[uuid.UUID]*domainCheckin.CheckIn
	media  map[uuid.UUID][]*domainCheckin.Media
	resets []*domainCheckin.ResetEntry
}

func newFakeCheckinRepo() *fakeCheckinRepo {
	return &fakeCheckinRepo{
		rows:  make(map[uuid.UUID]*domainCheckin.CheckIn),
		media: make(map[uuid.UUID][]*domainCheckin.Media),
	}
}

func (r *fakeCheckinRepo) Ensure(_ context.Context, driverID, groupID uuid.UUID, date time.Time) (*domainCheckin.CheckIn, error) {
	for _, ci := range r.rows {
		if ci.DriverID == driverID && ci.Date.Equal(date) {
			return ci, nil
		}
	}
	ci := &domainCheckin.CheckIn{
		ID:       uuid.New(),
		DriverID: driverID,
		GroupID:  groupID,
		Date:     date,
		Status:   domainCheckin.StatusPending,
	}
	r.rows[ci.ID] = ci
	return ci, nil
}

func (r *fakeCheckinRepo) GetByID(_ context.Context, id uuid.UUID) (*domainCheckin.CheckIn, error) {
	ci, ok := r.rows[id]
	if !ok {
		return nil, domainCheckin.ErrCheckinNotFound
	}
	return ci, nil
}

func (r *fakeCheckinRepo) GetByDriverDate(_ context.Context, driverID uuid.UUID, date time.Time) (*domainCheckin.CheckIn, error) {
	for _, ci := range r.rows {
		if ci.DriverID == driverID && ci.Date.Equal(date) {
			return ci, nil
		}
	}
	return nil, domainCheckin.ErrCheckinNotFound
}

func (r *fakeCheckinRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	ci, ok := r.rows[id]
	if !ok {
		return domainCheckin.ErrCheckinNotFound
	}
	if ci.SentAt == nil {
		ci.SentAt = &at
	}
	return nil
}

func (r *fakeCheckinRepo) AttachMedia(_ context.Context, id uuid.UUID, items []*domainCheckin.Media, at time.Time) (*domainCheckin.CheckIn, error) {
	ci, ok := r.rows[id]
	if !ok {
		return nil, domainCheckin.ErrCheckinNotFound
	}
	r.media[id] = append(r.media[id], items...)
	ci.MediaCount += len(items)
	if ci.RespondedAt == nil {
		ci.RespondedAt = &at
	}
	if ci.Status == domainCheckin.StatusPending || ci.Status == domainCheckin.StatusSubmitted {
		ci.Status = domainCheckin.StatusSubmitted
	}
	return ci, nil
}

func (r *fakeCheckinRepo) UpdateReview(_ context.Context, id uuid.UUID, to domainCheckin.Status, allowedFrom []domainCheckin.Status, reviewerID *int64, reason *string, at time.Time) (*domainCheckin.CheckIn, error) {
	ci, ok := r.rows[id]
	if !ok {
		return nil, domainCheckin.ErrCheckinNotFound
	}
	allowed := false
	for _, s := range allowedFrom {
		if ci.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, domainCheckin.ErrInvalidTransition
	}
	ci.Status = to
	ci.ReviewedAt = &at
	ci.ReviewerID = reviewerID
	ci.Reason = reason
	return ci, nil
}

func (r *fakeCheckinRepo) rewind(ci *domainCheckin.CheckIn) {
	ci.Status = domainCheckin.StatusPending
	ci.SentAt = nil
	ci.RespondedAt = nil
	ci.ReviewedAt = nil
	ci.ReviewerID = nil
	ci.Reason = nil
	ci.MediaCount = 0
	ci.ReviewMessageRef = nil
	delete(r.media, ci.ID)
}

func (r *fakeCheckinRepo) Reset(_ context.Context, id uuid.UUID) error {
	ci, ok := r.rows[id]
	if !ok {
		return domainCheckin.ErrCheckinNotFound
	}
	r.rewind(ci)
	return nil
}

func (r *fakeCheckinRepo) ResetAllForDate(_ context.Context, groupID uuid.UUID, date time.Time, scope string, resetBy *int64) (int64, error) {
	var affected int64
	for _, ci := range r.rows {
		if ci.GroupID == groupID && ci.Date.Equal(date) {
			r.rewind(ci)
			affected++
		}
	}
	r.resets = append(r.resets, &domainCheckin.ResetEntry{Scope: scope, Date: date, ResetBy: resetBy})
	return affected, nil
}

func (r *fakeCheckinRepo) SetReviewMessageRef(_ context.Context, id uuid.UUID, ref string) error {
	ci, ok := r.rows[id]
	if !ok {
		return domainCheckin.ErrCheckinNotFound
	}
	ci.ReviewMessageRef = &ref
	return nil
}

func (r *fakeCheckinRepo) SetReason(_ context.Context, id uuid.UUID, reason string) error {
	ci, ok := r.rows[id]
	if !ok {
		return domainCheckin.ErrCheckinNotFound
	}
	if ci.Status != domainCheckin.StatusPending && ci.Status != domainCheckin.StatusSubmitted {
		return domainCheckin.ErrCheckinNotFound
	}
	ci.Reason = &reason
	return nil
}

func (r *fakeCheckinRepo) ListMedia(_ context.Context, checkinID uuid.UUID) ([]*domainCheckin.Media, error) {
	return r.media[checkinID], nil
}

func (r *fakeCheckinRepo) ListRecent(_ context.Context, driverID uuid.UUID, days int, before time.Time) ([]*domainCheckin.CheckIn, error) {
	var out []*domainCheckin.CheckIn
	for _, ci := range r.rows {
		if ci.DriverID == driverID {
			out = append(out, ci)
		}
	}
	return out, nil
}

func (r *fakeCheckinRepo) Stats(_ context.Context, groupID uuid.UUID, date time.Time) (*domainCheckin.DailyStats, error) {
	stats := &domainCheckin.DailyStats{}
	for _, ci := range r.rows {
		if ci.GroupID != groupID || !ci.Date.Equal(date) {
			continue
		}
		stats.Total++
		switch ci.Status {
		case domainCheckin.StatusPending:
			stats.Pending++
		case domainCheckin.StatusSubmitted:
			stats.Submitted++
		case domainCheckin.StatusPass:
			stats.Pass++
		case domainCheckin.StatusFail:
			stats.Fail++
		case domainCheckin.StatusNeedsFix:
			stats.NeedsFix++
		case domainCheckin.StatusExcused:
			stats.Excused++
		}
	}
	return stats, nil
}

func (r *fakeCheckinRepo) PendingWithPassCounts(_ context.Context, groupID uuid.UUID, date time.Time) ([]*domainCheckin.PendingDriver, error) {
	return nil, nil
}

func (r *fakeCheckinRepo) WeeklyRankings(_ context.Context, groupID uuid.UUID, weekStart, weekEnd time.Time) ([]*domainCheckin.WeeklyRank, error) {
	return nil, nil
}

func (r *fakeCheckinRepo) WeeklyPassCount(_ context.Context, driverID uuid.UUID, weekStart time.Time) (int, error) {
	count := 0
	for _, ci := range r.rows {
		if ci.DriverID == driverID && ci.Status == domainCheckin.StatusPass && !ci.Date.Before(weekStart) {
			count++
		}
	}
	return count, nil
}

func (r *fakeCheckinRepo) RecordReset(_ context.Context, entry *domainCheckin.ResetEntry) error {
	r.resets = append(r.resets, entry)
	return nil
}

func (r *fakeCheckinRepo) LastReset(_ context.Context, scope string, date time.Time) (*domainCheckin.ResetEntry, error) {
	for _, e := range r.resets {
		if e.Scope == scope && e.Date.Equal(date) {
			return e, nil
		}
	}
	return nil, nil
}

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

type fakeDriverRepo struct {
	drivers map[uuid.UUID]*driver.Driver
}

func (r *fakeDriverRepo) Upsert(_ context.Context, d *driver.Driver) (*driver.Driver, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.drivers[d.ID] = d
	return d, nil
}

func (r *fakeDriverRepo) GetByID(_ context.Context, id uuid.UUID) (*driver.Driver, error) {
	d, ok := r.drivers[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return d, nil
}

func (r *fakeDriverRepo) GetByExternalID(_ context.Context, externalID int64) (*driver.Driver, error) {
	for _, d := range r.drivers {
		if d.ExternalID == externalID {
			return d, nil
		}
	}
	return nil, driver.ErrDriverNotFound
}

func (r *fakeDriverRepo) GetByNotifyChat(_ context.Context, chatID int64) (*driver.Driver, error) {
	for _, d := range r.drivers {
		if d.NotifyChatID != nil && *d.NotifyChatID == chatID {
			return d, nil
		}
	}
	return nil, driver.ErrDriverNotFound
}

func (r *fakeDriverRepo) GetByUsername(_ context.Context, username string) (*driver.Driver, error) {
	return nil, driver.ErrDriverNotFound
}

func (r *fakeDriverRepo) ListActive(_ context.Context, groupID uuid.UUID) ([]*driver.Driver, error) {
	var out []*driver.Driver
	for _, d := range r.drivers {
		if d.GroupID == groupID && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDriverRepo) SetNotifyChat(_ context.Context, id uuid.UUID, chatID int64, chatTitle *string) error {
	d := r.drivers[id]
	d.NotifyChatID = &chatID
	d.NotifyChatTitle = chatTitle
	return nil
}

func (r *fakeDriverRepo) SetChatTitle(_ context.Context, chatID int64, title string) error {
	return nil
}

func (r *fakeDriverRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.drivers[id].Active = active
	return nil
}

func (r *fakeDriverRepo) UpdateStreak(_ context.Context, id uuid.UUID, current, best int, lastCheckDate time.Time) error {
	d := r.drivers[id]
	d.StreakCurrent = current
	d.StreakBest = best
	d.LastCheckDate = &lastCheckDate
	return nil
}

func (r *fakeDriverRepo) ResetMissedStreaks(_ context.Context, groupID uuid.UUID, date time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeDriverRepo) SetLastPass(_ context.Context, id uuid.UUID, at *time.Time) error {
	r.drivers[id].LastPassAt = at
	return nil
}

func (r *fakeDriverRepo) SetLastCongrats(_ context.Context, id uuid.UUID, at time.Time) error {
	r.drivers[id].LastCongratsAt = &at
	return nil
}

type fakeNotifier struct {
	reviewCards []*notifier.ReviewCard
	failNext    bool
}

func (n *fakeNotifier) result() notifier.DeliveryResult {
	if n.failNext {
		n.failNext = false
		return notifier.DeliveryResult{Err: assert.AnError}
	}
	return notifier.DeliveryResult{OK: true, MessageRef: "msg-1"}
}

func (n *fakeNotifier) SendDriverReminder(_ context.Context, r *notifier.DriverReminder) notifier.DeliveryResult {
	return n.result()
}

func (n *fakeNotifier) SendReviewCard(_ context.Context, c *notifier.ReviewCard) notifier.DeliveryResult {
	res := n.result()
	if res.OK {
		n.reviewCards = append(n.reviewCards, c)
	}
	return res
}

func (n *fakeNotifier) SendDigest(_ context.Context, d *notifier.DigestReport) notifier.DeliveryResult {
	return n.result()
}

func (n *fakeNotifier) SendComplianceReport(_ context.Context, r *notifier.ComplianceReport) notifier.DeliveryResult {
	return n.result()
}

func (n *fakeNotifier) SendDriverAlert(_ context.Context, a *notifier.DriverAlert) notifier.DeliveryResult {
	return n.result()
}

func (n *fakeNotifier) SendEscalation(_ context.Context, e *notifier.Escalation) notifier.DeliveryResult {
	return n.result()
}

func (n *fakeNotifier) SendCongrats(_ context.Context, c *notifier.Congrats) notifier.DeliveryResult {
	return n.result()
}

func (n *fakeNotifier) SendLeaderboard(_ context.Context, l *notifier.Leaderboard) notifier.DeliveryResult {
	return n.result()
}

type fakeCanceler struct {
	cancelled []uuid.UUID
}

func (c *fakeCanceler) CancelFollowups(id uuid.UUID) {
	c.cancelled = append(c.cancelled, id)
}

type fakePassHandler struct {
	passes int
}

func (h *fakePassHandler) HandlePass(_ context.Context, d *driver.Driver, g *group.Group, date time.Time) error {
	h.passes++
	return nil
}

// --- fixtures ---

type fixture struct {
	svc      *Service
	checkins *fakeCheckinRepo
	drivers  *fakeDriverRepo
	groups   *fakeGroupRepo
	notify   *fakeNotifier
	canceler *fakeCanceler
	passes   *fakePassHandler
	group    *group.Group
	driver   *driver.Driver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	checkins := newFakeCheckinRepo()
	drivers := &fakeDriverRepo{drivers: make(map[uuid.UUID]*driver.Driver)}
	groups := &fakeGroupRepo{groups: make(map[uuid.UUID]*group.Group)}
	notify := &fakeNotifier{}
	canceler := &fakeCanceler{}
	passes := &fakePassHandler{}

	g := &group.Group{
		ChatID:     -100,
		Title:      "Night Fleet",
		Timezone:   "America/Chicago",
		DigestTime: "10:30",
		Active:     true,
	}
	require.NoError(t, groups.Save(context.Background(), g))

	chatID := int64(555)
	d, err := drivers.Upsert(context.Background(), &driver.Driver{
		GroupID:      g.ID,
		ExternalID:   42,
		Active:       true,
		NotifyChatID: &chatID,
	})
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	streaks := streak.NewService(drivers, log)
	svc := NewService(checkins, drivers, groups, streaks, notify, log)
	svc.SetPassHandler(passes)
	svc.SetFollowupCanceler(canceler)

	return &fixture{
		svc:      svc,
		checkins: checkins,
		drivers:  drivers,
		groups:   groups,
		notify:   notify,
		canceler: canceler,
		passes:   passes,
		group:    g,
		driver:   d,
	}
}

var testNow = time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)

// --- tests ---

func TestSubmitMediaCreatesAndSubmits(t *testing.T) {
	f := newFixture(t)

	items := []*domainCheckin.Media{
		{Kind: "photo", FileRef: "f1"},
		{Kind: "photo", FileRef: "f2"},
		{Kind: "video", FileRef: "f3"},
	}
	ci, err := f.svc.SubmitMedia(context.Background(), 555, items, testNow)
	require.NoError(t, err)

	assert.Equal(t, domainCheckin.StatusSubmitted, ci.Status)
	assert.Equal(t, 3, ci.MediaCount)
	assert.NotNil(t, ci.RespondedAt)
	require.Len(t, f.notify.reviewCards, 1)
	assert.Equal(t, []string{"f1", "f2", "f3"}, f.notify.reviewCards[0].MediaRefs)
	assert.Equal(t, []uuid.UUID{ci.ID}, f.canceler.cancelled)
	require.NotNil(t, ci.ReviewMessageRef)
	assert.Equal(t, "msg-1", *ci.ReviewMessageRef)
}

func TestSubmitMediaUnknownChat(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitMedia(context.Background(), 999, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	assert.ErrorIs(t, err, driver.ErrDriverNotFound)
}

func TestSubmitMediaSurvivesCardDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.notify.failNext = true

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)
	assert.Equal(t, domainCheckin.StatusSubmitted, ci.Status)
	assert.Nil(t, ci.ReviewMessageRef)
}

func TestReviewPassAppliesSideEffects(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)

	reviewer := int64(7)
	reviewed, err := f.svc.Review(context.Background(), ci.ID, domainCheckin.StatusPass, &reviewer, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, domainCheckin.StatusPass, reviewed.Status)
	assert.Equal(t, 1, f.passes.passes)
	d := f.drivers.drivers[f.driver.ID]
	assert.Equal(t, 1, d.StreakCurrent)
	assert.NotNil(t, d.LastPassAt)
}

func TestReviewFailClearsLastPass(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)

	passAt := testNow.Add(-time.Hour)
	f.drivers.drivers[f.driver.ID].LastPassAt = &passAt

	reason := "tires look bald"
	_, err = f.svc.Review(context.Background(), ci.ID, domainCheckin.StatusFail, nil, &reason, testNow)
	require.NoError(t, err)
	assert.Nil(t, f.drivers.drivers[f.driver.ID].LastPassAt)
}

func TestReviewPendingRejected(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.EnsureToday(context.Background(), f.driver, testNow)
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), ci.ID, domainCheckin.StatusPass, nil, nil, testNow)
	assert.ErrorIs(t, err, domainCheckin.ErrInvalidTransition)
}

func TestReviewMissingRowIsInvalidTransition(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Review(context.Background(), uuid.New(), domainCheckin.StatusPass, nil, nil, testNow)
	assert.ErrorIs(t, err, domainCheckin.ErrInvalidTransition)
}

func TestReviewRejectsNonTerminalTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Review(context.Background(), uuid.New(), domainCheckin.StatusSubmitted, nil, nil, testNow)
	assert.ErrorIs(t, err, domainCheckin.ErrInvalidStatus)
}

func TestReReviewTerminal(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), ci.ID, domainCheckin.StatusFail, nil, nil, testNow)
	require.NoError(t, err)

	reviewed, err := f.svc.Review(context.Background(), ci.ID, domainCheckin.StatusPass, nil, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, domainCheckin.StatusPass, reviewed.Status)
}

func TestExcuseCreatesRow(t *testing.T) {
	f := newFixture(t)

	reason := "at shop"
	ci, err := f.svc.Excuse(context.Background(), f.driver.ID, nil, &reason, testNow)
	require.NoError(t, err)
	assert.Equal(t, domainCheckin.StatusExcused, ci.Status)
	require.NotNil(t, ci.Reason)
	assert.Equal(t, "at shop", *ci.Reason)
}

func TestReopenOnlyFromTerminal(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)

	_, err = f.svc.Reopen(context.Background(), ci.ID, testNow)
	assert.ErrorIs(t, err, domainCheckin.ErrInvalidTransition)

	_, err = f.svc.Review(context.Background(), ci.ID, domainCheckin.StatusNeedsFix, nil, nil, testNow)
	require.NoError(t, err)

	reopened, err := f.svc.Reopen(context.Background(), ci.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, domainCheckin.StatusSubmitted, reopened.Status)
}

func TestResetIdempotent(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reset(context.Background(), ci.ID))
	require.NoError(t, f.svc.Reset(context.Background(), ci.ID))
	assert.Equal(t, domainCheckin.StatusPending, f.checkins.rows[ci.ID].Status)
}

func TestResetClearsDeliveryState(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkSent(context.Background(), ci.ID, testNow))

	require.NoError(t, f.svc.Reset(context.Background(), ci.ID))

	row := f.checkins.rows[ci.ID]
	assert.Equal(t, domainCheckin.StatusPending, row.Status)
	assert.Nil(t, row.SentAt, "a reset day is eligible for the next autosend")
	assert.Nil(t, row.RespondedAt)
	assert.Nil(t, row.ReviewMessageRef)
	assert.Zero(t, row.MediaCount)

	media, err := f.checkins.ListMedia(context.Background(), ci.ID)
	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestResetAllTodayRecordsAudit(t *testing.T) {
	f := newFixture(t)

	ci, err := f.svc.SubmitMedia(context.Background(), 555, []*domainCheckin.Media{{Kind: "photo", FileRef: "f"}}, testNow)
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkSent(context.Background(), ci.ID, testNow))

	by := int64(9)
	affected, err := f.svc.ResetAllToday(context.Background(), f.group.ID, &by, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.Len(t, f.checkins.resets, 1)
	assert.Contains(t, f.checkins.resets[0].Scope, "manual_reset:")

	row := f.checkins.rows[ci.ID]
	assert.Equal(t, domainCheckin.StatusPending, row.Status)
	assert.Nil(t, row.SentAt)
	assert.Zero(t, row.MediaCount)
}

func TestRecordDriverTextStoresExceptionReason(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.RecordDriverText(context.Background(), 555, "no trailer today", testNow))

	ci, err := f.checkins.GetByDriverDate(context.Background(), f.driver.ID, f.group.Today(testNow))
	require.NoError(t, err)
	require.NotNil(t, ci.Reason)
	assert.Equal(t, "no trailer today", *ci.Reason)
}

func TestRecordDriverTextIgnoresChatter(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.RecordDriverText(context.Background(), 555, "good morning", testNow))
	assert.Empty(t, f.checkins.rows)
}
