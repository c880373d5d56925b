package driver

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainDriver "fleet-compliance-monitor/internal/domain/driver"
	domainGroup "fleet-compliance-monitor/internal/domain/group"
)

// Service manages driver enrolment and the binding between a driver and
// their notification chat.
type Service struct {
	drivers domainDriver.Repository
	groups  domainGroup.Repository
	log     *zap.Logger
}

func NewService(drivers domainDriver.Repository, groups domainGroup.Repository, log *zap.Logger) *Service {
	return &Service{drivers: drivers, groups: groups, log: log}
}

// Enroll registers a driver into a group, reactivating them when they
// were previously enrolled.
func (s *Service) Enroll(ctx context.Context, groupID uuid.UUID, externalID int64, username, displayName *string) (*domainDriver.Driver, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	d, err := s.drivers.Upsert(ctx, &domainDriver.Driver{
		GroupID:     groupID,
		ExternalID:  externalID,
		Username:    username,
		DisplayName: displayName,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("driver enrolled",
		zap.String("driver", d.Mention()),
		zap.String("group_id", groupID.String()),
	)
	return d, nil
}

// LinkChat binds a driver to the chat their reminders go to. The chat
// title is kept so pause checks work without a platform round trip.
func (s *Service) LinkChat(ctx context.Context, driverID uuid.UUID, chatID int64, chatTitle *string) error {
	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return err
	}
	return s.drivers.SetNotifyChat(ctx, driverID, chatID, chatTitle)
}

// SetActive toggles whether the driver participates in scheduling.
func (s *Service) SetActive(ctx context.Context, driverID uuid.UUID, active bool) error {
	return s.drivers.SetActive(ctx, driverID, active)
}

// Get returns a driver by ID.
func (s *Service) Get(ctx context.Context, driverID uuid.UUID) (*domainDriver.Driver, error) {
	return s.drivers.GetByID(ctx, driverID)
}

// Resolve finds a driver by @username or numeric external ID.
func (s *Service) Resolve(ctx context.Context, ref string) (*domainDriver.Driver, error) {
	ref = strings.TrimSpace(ref)
	if externalID, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.drivers.GetByExternalID(ctx, externalID)
	}
	return s.drivers.GetByUsername(ctx, ref)
}

// ListActive returns the group's active roster.
func (s *Service) ListActive(ctx context.Context, groupID uuid.UUID) ([]*domainDriver.Driver, error) {
	return s.drivers.ListActive(ctx, groupID)
}
