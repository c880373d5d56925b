package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	"fleet-compliance-monitor/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckinRepository implements domain checkin.Repository
type CheckinRepository struct {
	db *DB
}

// NewCheckinRepository creates a new check-in repository
func NewCheckinRepository(db *DB) domainCheckin.Repository {
	return &CheckinRepository{db: db}
}

func (r *CheckinRepository) Ensure(ctx context.Context, driverID, groupID uuid.UUID, date time.Time) (*domainCheckin.CheckIn, error) {
	now := time.Now()
	dbModel := &models.CheckInModel{
		ID:        uuid.New(),
		DriverID:  driverID,
		GroupID:   groupID,
		Date:      date,
		Status:    string(domainCheckin.StatusPending),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Losers of the (driver_id, date) race fall through to the refetch.
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "driver_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(dbModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure check-in: %w", err)
	}

	return r.GetByDriverDate(ctx, driverID, date)
}

func (r *CheckinRepository) GetByID(ctx context.Context, id uuid.UUID) (*domainCheckin.CheckIn, error) {
	var dbModel models.CheckInModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainCheckin.ErrCheckinNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}

	return toCheckinEntity(&dbModel), nil
}

func (r *CheckinRepository) GetByDriverDate(ctx context.Context, driverID uuid.UUID, date time.Time) (*domainCheckin.CheckIn, error) {
	var dbModel models.CheckInModel
	err := r.db.DB.WithContext(ctx).
		Where("driver_id = ? AND date = ?", driverID, date).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainCheckin.ErrCheckinNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}

	return toCheckinEntity(&dbModel), nil
}

func (r *CheckinRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.CheckInModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent_at":    gorm.Expr("COALESCE(sent_at, ?)", at),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark sent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainCheckin.ErrCheckinNotFound
	}
	return nil
}

func (r *CheckinRepository) AttachMedia(ctx context.Context, id uuid.UUID, items []*domainCheckin.Media, at time.Time) (*domainCheckin.CheckIn, error) {
	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range items {
			row := &models.MediaModel{
				ID:         uuid.New(),
				CheckInID:  id,
				Kind:       m.Kind,
				FileRef:    m.FileRef,
				AlbumKey:   m.AlbumKey,
				ReceivedAt: at,
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert media: %w", err)
			}
			m.ID = row.ID
			m.CheckInID = id
			m.ReceivedAt = at
		}

		result := tx.Model(&models.CheckInModel{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"media_count":  gorm.Expr("media_count + ?", len(items)),
				"responded_at": gorm.Expr("COALESCE(responded_at, ?)", at),
				"status": gorm.Expr(
					"CASE WHEN status IN ('pending', 'submitted') THEN 'submitted' ELSE status END"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update check-in: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainCheckin.ErrCheckinNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *CheckinRepository) UpdateReview(ctx context.Context, id uuid.UUID, to domainCheckin.Status, allowedFrom []domainCheckin.Status, reviewerID *int64, reason *string, at time.Time) (*domainCheckin.CheckIn, error) {
	from := make([]string, len(allowedFrom))
	for i, s := range allowedFrom {
		from[i] = string(s)
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.CheckInModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":      string(to),
			"reviewed_at": at,
			"reviewer_id": reviewerID,
			"reason":      reason,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from a disallowed source status.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domainCheckin.ErrInvalidTransition
	}

	return r.GetByID(ctx, id)
}

// resetColumns rewinds a check-in row all the way to its pre-reminder
// state: pending, never sent, no media, no review.
func resetColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":             string(domainCheckin.StatusPending),
		"sent_at":            nil,
		"responded_at":       nil,
		"reviewed_at":        nil,
		"reviewer_id":        nil,
		"reason":             nil,
		"media_count":        0,
		"review_message_ref": nil,
		"updated_at":         time.Now(),
	}
}

func (r *CheckinRepository) Reset(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("check_in_id = ?", id).
			Delete(&models.MediaModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete media: %w", err)
		}

		result := tx.Model(&models.CheckInModel{}).
			Where("id = ?", id).
			Updates(resetColumns())
		if result.Error != nil {
			return fmt.Errorf("failed to reset check-in: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainCheckin.ErrCheckinNotFound
		}
		return nil
	})
}

func (r *CheckinRepository) ResetAllForDate(ctx context.Context, groupID uuid.UUID, date time.Time, scope string, resetBy *int64) (int64, error) {
	var affected int64
	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&models.CheckInModel{}).
			Select("id").
			Where("group_id = ? AND date = ?", groupID, date)
		if err := tx.Where("check_in_id IN (?)", ids).
			Delete(&models.MediaModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete media: %w", err)
		}

		result := tx.Model(&models.CheckInModel{}).
			Where("group_id = ? AND date = ?", groupID, date).
			Updates(resetColumns())
		if result.Error != nil {
			return fmt.Errorf("failed to reset check-ins: %w", result.Error)
		}
		affected = result.RowsAffected

		entry := &models.ResetLogModel{
			ID:      uuid.New(),
			Scope:   scope,
			Date:    date,
			ResetBy: resetBy,
			ResetAt: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to record reset: %w", err)
		}
		return nil
	})
	return affected, err
}

func (r *CheckinRepository) SetReviewMessageRef(ctx context.Context, id uuid.UUID, ref string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.CheckInModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"review_message_ref": ref,
			"updated_at":         time.Now(),
		}).Error
}

func (r *CheckinRepository) SetReason(ctx context.Context, id uuid.UUID, reason string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.CheckInModel{}).
		Where("id = ? AND status IN ('pending', 'submitted')", id).
		Updates(map[string]interface{}{
			"reason":     reason,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set reason: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainCheckin.ErrCheckinNotFound
	}
	return nil
}

func (r *CheckinRepository) ListMedia(ctx context.Context, checkinID uuid.UUID) ([]*domainCheckin.Media, error) {
	var dbModels []models.MediaModel
	err := r.db.DB.WithContext(ctx).
		Where("check_in_id = ?", checkinID).
		Order("received_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	media := make([]*domainCheckin.Media, len(dbModels))
	for i := range dbModels {
		media[i] = toMediaEntity(&dbModels[i])
	}
	return media, nil
}

func (r *CheckinRepository) ListRecent(ctx context.Context, driverID uuid.UUID, days int, before time.Time) ([]*domainCheckin.CheckIn, error) {
	var dbModels []models.CheckInModel
	err := r.db.DB.WithContext(ctx).
		Where("driver_id = ? AND date > ? AND date <= ?",
			driverID, before.AddDate(0, 0, -days), before).
		Order("date DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent check-ins: %w", err)
	}

	checkins := make([]*domainCheckin.CheckIn, len(dbModels))
	for i := range dbModels {
		checkins[i] = toCheckinEntity(&dbModels[i])
	}
	return checkins, nil
}

func (r *CheckinRepository) Stats(ctx context.Context, groupID uuid.UUID, date time.Time) (*domainCheckin.DailyStats, error) {
	stats := &domainCheckin.DailyStats{}
	err := r.db.DB.WithContext(ctx).Raw(`
        SELECT
            COUNT(*) as total,
            COUNT(*) FILTER (WHERE status = 'pending') as pending,
            COUNT(*) FILTER (WHERE status = 'submitted') as submitted,
            COUNT(*) FILTER (WHERE status = 'pass') as pass,
            COUNT(*) FILTER (WHERE status = 'fail') as fail,
            COUNT(*) FILTER (WHERE status = 'needs_fix') as needs_fix,
            COUNT(*) FILTER (WHERE status = 'excused') as excused
        FROM checkins
        WHERE group_id = ? AND date = ?
    `, groupID, date).Scan(stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

func (r *CheckinRepository) PendingWithPassCounts(ctx context.Context, groupID uuid.UUID, date time.Time) ([]*domainCheckin.PendingDriver, error) {
	var rows []struct {
		DriverID    uuid.UUID
		Username    *string
		DisplayName *string
		ExternalID  int64
		Status      string
		SentAt      *time.Time
		RespondedAt *time.Time
		PassesLast7 int
	}

	err := r.db.DB.WithContext(ctx).Raw(`
        WITH recent_passes AS (
            SELECT driver_id, COUNT(*) as passes
            FROM checkins
            WHERE status = 'pass' AND date > ? - INTERVAL '7 days' AND date <= ?
            GROUP BY driver_id
        )
        SELECT
            c.driver_id, d.username, d.display_name, d.external_id,
            c.status, c.sent_at, c.responded_at,
            COALESCE(rp.passes, 0) as passes_last7
        FROM checkins c
        JOIN drivers d ON d.id = c.driver_id
        LEFT JOIN recent_passes rp ON rp.driver_id = c.driver_id
        WHERE c.group_id = ? AND c.date = ?
          AND c.status IN ('pending', 'submitted')
        ORDER BY c.sent_at NULLS LAST, d.external_id
    `, date, date, groupID, date).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending drivers: %w", err)
	}

	pending := make([]*domainCheckin.PendingDriver, len(rows))
	for i, row := range rows {
		pending[i] = &domainCheckin.PendingDriver{
			DriverID:    row.DriverID,
			Mention:     mention(row.Username, row.DisplayName, row.ExternalID),
			Status:      domainCheckin.Status(row.Status),
			SentAt:      row.SentAt,
			RespondedAt: row.RespondedAt,
			PassesLast7: row.PassesLast7,
		}
	}
	return pending, nil
}

func (r *CheckinRepository) WeeklyRankings(ctx context.Context, groupID uuid.UUID, weekStart, weekEnd time.Time) ([]*domainCheckin.WeeklyRank, error) {
	var rows []struct {
		DriverID    uuid.UUID
		Username    *string
		DisplayName *string
		ExternalID  int64
		Passes      int
		Total       int
	}

	// Excused days are not held against the driver.
	err := r.db.DB.WithContext(ctx).Raw(`
        SELECT
            c.driver_id, d.username, d.display_name, d.external_id,
            COUNT(*) FILTER (WHERE c.status = 'pass') as passes,
            COUNT(*) FILTER (WHERE c.status != 'excused') as total
        FROM checkins c
        JOIN drivers d ON d.id = c.driver_id
        WHERE c.group_id = ? AND c.date >= ? AND c.date < ?
        GROUP BY c.driver_id, d.username, d.display_name, d.external_id
        HAVING COUNT(*) FILTER (WHERE c.status != 'excused') > 0
        ORDER BY passes DESC, total ASC
    `, groupID, weekStart, weekEnd).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly rankings: %w", err)
	}

	ranks := make([]*domainCheckin.WeeklyRank, len(rows))
	for i, row := range rows {
		pct := 0.0
		if row.Total > 0 {
			pct = float64(row.Passes) / float64(row.Total) * 100
		}
		ranks[i] = &domainCheckin.WeeklyRank{
			DriverID: row.DriverID,
			Mention:  mention(row.Username, row.DisplayName, row.ExternalID),
			Passes:   row.Passes,
			Total:    row.Total,
			Pct:      pct,
		}
	}
	return ranks, nil
}

func (r *CheckinRepository) WeeklyPassCount(ctx context.Context, driverID uuid.UUID, weekStart time.Time) (int, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.CheckInModel{}).
		Where("driver_id = ? AND date >= ? AND status = ?",
			driverID, weekStart, string(domainCheckin.StatusPass)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count weekly passes: %w", err)
	}
	return int(count), nil
}

func (r *CheckinRepository) RecordReset(ctx context.Context, entry *domainCheckin.ResetEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ResetAt.IsZero() {
		entry.ResetAt = time.Now()
	}

	row := &models.ResetLogModel{
		ID:      entry.ID,
		Scope:   entry.Scope,
		Date:    entry.Date,
		ResetBy: entry.ResetBy,
		ResetAt: entry.ResetAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to record reset: %w", err)
	}
	return nil
}

func (r *CheckinRepository) LastReset(ctx context.Context, scope string, date time.Time) (*domainCheckin.ResetEntry, error) {
	var dbModel models.ResetLogModel
	err := r.db.DB.WithContext(ctx).
		Where("scope = ? AND date = ?", scope, date).
		Order("reset_at DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last reset: %w", err)
	}

	return &domainCheckin.ResetEntry{
		ID:      dbModel.ID,
		Scope:   dbModel.Scope,
		Date:    dbModel.Date,
		ResetBy: dbModel.ResetBy,
		ResetAt: dbModel.ResetAt,
	}, nil
}

func mention(username, displayName *string, externalID int64) string {
	if username != nil && *username != "" {
		return "@" + *username
	}
	if displayName != nil && *displayName != "" {
		return *displayName
	}
	return fmt.Sprintf("Driver %d", externalID)
}

func toCheckinEntity(m *models.CheckInModel) *domainCheckin.CheckIn {
	return &domainCheckin.CheckIn{
		ID:               m.ID,
		DriverID:         m.DriverID,
		GroupID:          m.GroupID,
		Date:             m.Date,
		Status:           domainCheckin.Status(m.Status),
		SentAt:           m.SentAt,
		RespondedAt:      m.RespondedAt,
		ReviewedAt:       m.ReviewedAt,
		ReviewerID:       m.ReviewerID,
		Reason:           m.Reason,
		MediaCount:       m.MediaCount,
		ReviewMessageRef: m.ReviewMessageRef,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toMediaEntity(m *models.MediaModel) *domainCheckin.Media {
	return &domainCheckin.Media{
		ID:         m.ID,
		CheckInID:  m.CheckInID,
		Kind:       m.Kind,
		FileRef:    m.FileRef,
		AlbumKey:   m.AlbumKey,
		ReceivedAt: m.ReceivedAt,
	}
}
