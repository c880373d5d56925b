package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	domainCompliance "fleet-compliance-monitor/internal/domain/compliance"
	domainGroup "fleet-compliance-monitor/internal/domain/group"
	checkinUC "fleet-compliance-monitor/internal/usecase/checkin"
	complianceUC "fleet-compliance-monitor/internal/usecase/compliance"
	groupUC "fleet-compliance-monitor/internal/usecase/group"
)

type dashboardService struct {
	groups     *groupUC.Service
	checkins   *checkinUC.Service
	compliance *complianceUC.Service
}

// NewDashboardService assembles the dashboard read surface from the
// underlying services.
func NewDashboardService(groups *groupUC.Service, checkins *checkinUC.Service, compliance *complianceUC.Service) DashboardService {
	return &dashboardService{groups: groups, checkins: checkins, compliance: compliance}
}

func (s *dashboardService) ListGroups(ctx context.Context) ([]*domainGroup.Group, error) {
	return s.groups.List(ctx)
}

func (s *dashboardService) GroupStats(ctx context.Context, groupID uuid.UUID, now time.Time) (*domainCheckin.DailyStats, error) {
	return s.checkins.Stats(ctx, groupID, now)
}

func (s *dashboardService) GroupLastReset(ctx context.Context, groupID uuid.UUID, now time.Time) (*domainCheckin.ResetEntry, error) {
	return s.checkins.LastManualReset(ctx, groupID, now)
}

func (s *dashboardService) GroupPending(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domainCheckin.PendingDriver, error) {
	return s.checkins.Pending(ctx, groupID, now)
}

func (s *dashboardService) DriverHistory(ctx context.Context, driverID uuid.UUID, days int, now time.Time) ([]*domainCheckin.CheckIn, error) {
	return s.checkins.History(ctx, driverID, days, now)
}

func (s *dashboardService) DriverTracking(ctx context.Context, driverID uuid.UUID) (*domainCompliance.Tracking, error) {
	return s.compliance.Tracking(ctx, driverID)
}

func (s *dashboardService) DriverNotes(ctx context.Context, driverID uuid.UUID, limit int) ([]*domainCompliance.Note, error) {
	return s.compliance.Notes(ctx, driverID, limit)
}
