package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainCompliance "fleet-compliance-monitor/internal/domain/compliance"
	"fleet-compliance-monitor/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComplianceRepository implements domain compliance.Repository
type ComplianceRepository struct {
	db *DB
}

// NewComplianceRepository creates a new compliance repository
func NewComplianceRepository(db *DB) domainCompliance.Repository {
	return &ComplianceRepository{db: db}
}

func (r *ComplianceRepository) UpsertObservation(ctx context.Context, driverID uuid.UUID, outcome string, at time.Time) (*domainCompliance.Tracking, error) {
	err := r.db.DB.WithContext(ctx).Exec(`
        INSERT INTO compliance_tracking
            (driver_id, consecutive_reports, last_report_at, last_status, updated_at)
        VALUES (?, CASE WHEN ? = 'non_compliant' THEN 1 ELSE 0 END, ?, ?, NOW())
        ON CONFLICT (driver_id) DO UPDATE SET
            consecutive_reports = CASE
                WHEN EXCLUDED.last_status = 'non_compliant'
                    THEN compliance_tracking.consecutive_reports + 1
                ELSE 0
            END,
            last_report_at = EXCLUDED.last_report_at,
            last_status = EXCLUDED.last_status,
            updated_at = NOW()
    `, driverID, outcome, at, outcome).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert observation: %w", err)
	}

	return r.GetByDriver(ctx, driverID)
}

func (r *ComplianceRepository) GetByDriver(ctx context.Context, driverID uuid.UUID) (*domainCompliance.Tracking, error) {
	var dbModel models.ComplianceTrackingModel
	err := r.db.DB.WithContext(ctx).
		Where("driver_id = ?", driverID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainCompliance.ErrTrackingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking: %w", err)
	}

	return toTrackingEntity(&dbModel), nil
}

func (r *ComplianceRepository) ResetCounter(ctx context.Context, driverID uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.ComplianceTrackingModel{}).
		Where("driver_id = ?", driverID).
		Updates(map[string]interface{}{
			"consecutive_reports": 0,
			"last_status":         domainCompliance.OutcomeCompliant,
			"updated_at":          time.Now(),
		}).Error
}

func (r *ComplianceRepository) MarkDriverAlert(ctx context.Context, driverID uuid.UUID, at time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ComplianceTrackingModel{}).
		Where("driver_id = ?", driverID).
		Updates(map[string]interface{}{
			"last_driver_alert_at": at,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark driver alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainCompliance.ErrTrackingNotFound
	}
	return nil
}

func (r *ComplianceRepository) MarkDispatchAlert(ctx context.Context, driverID uuid.UUID, at time.Time, threadRef *string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ComplianceTrackingModel{}).
		Where("driver_id = ?", driverID).
		Updates(map[string]interface{}{
			"last_dispatch_alert_at":  at,
			"last_comment_thread_ref": threadRef,
			"updated_at":              time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark dispatch alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainCompliance.ErrTrackingNotFound
	}
	return nil
}

func (r *ComplianceRepository) ClearAll(ctx context.Context, groupID uuid.UUID, resetBy *int64) (int64, error) {
	var removed int64
	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := &models.ResetLogModel{
			ID:      uuid.New(),
			Scope:   "compliance_clear:" + groupID.String(),
			Date:    time.Now().UTC().Truncate(24 * time.Hour),
			ResetBy: resetBy,
			ResetAt: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to record reset: %w", err)
		}

		result := tx.Exec(`
            DELETE FROM compliance_tracking ct
            USING drivers d
            WHERE ct.driver_id = d.id AND d.group_id = ?
        `, groupID)
		if result.Error != nil {
			return fmt.Errorf("failed to clear tracking: %w", result.Error)
		}
		removed = result.RowsAffected
		return nil
	})
	return removed, err
}

func (r *ComplianceRepository) AddNote(ctx context.Context, n *domainCompliance.Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	row := &models.ComplianceNoteModel{
		ID:        n.ID,
		DriverID:  n.DriverID,
		AuthorID:  n.AuthorID,
		Text:      n.Text,
		CreatedAt: n.CreatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

func (r *ComplianceRepository) LatestNotes(ctx context.Context, driverID uuid.UUID, limit int) ([]*domainCompliance.Note, error) {
	if limit <= 0 {
		limit = 5
	}

	var dbModels []models.ComplianceNoteModel
	err := r.db.DB.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]*domainCompliance.Note, len(dbModels))
	for i := range dbModels {
		notes[i] = &domainCompliance.Note{
			ID:        dbModels[i].ID,
			DriverID:  dbModels[i].DriverID,
			AuthorID:  dbModels[i].AuthorID,
			Text:      dbModels[i].Text,
			CreatedAt: dbModels[i].CreatedAt,
		}
	}
	return notes, nil
}

func toTrackingEntity(m *models.ComplianceTrackingModel) *domainCompliance.Tracking {
	return &domainCompliance.Tracking{
		DriverID:             m.DriverID,
		ConsecutiveReports:   m.ConsecutiveReports,
		LastReportAt:         m.LastReportAt,
		LastDriverAlertAt:    m.LastDriverAlertAt,
		LastDispatchAlertAt:  m.LastDispatchAlertAt,
		LastStatus:           m.LastStatus,
		LastCommentThreadRef: m.LastCommentThreadRef,
		UpdatedAt:            m.UpdatedAt,
	}
}
