package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainDriver "fleet-compliance-monitor/internal/domain/driver"
	"fleet-compliance-monitor/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DriverRepository implements domain driver.Repository
type DriverRepository struct {
	db *DB
}

// NewDriverRepository creates a new driver repository
func NewDriverRepository(db *DB) domainDriver.Repository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) Upsert(ctx context.Context, d *domainDriver.Driver) (*domainDriver.Driver, error) {
	now := time.Now()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.Username != nil {
		lower := strings.ToLower(strings.TrimPrefix(*d.Username, "@"))
		d.Username = &lower
	}

	dbModel := toDriverModel(d)
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"group_id", "username", "display_name", "active", "updated_at",
			}),
		}).
		Create(dbModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert driver: %w", err)
	}

	return r.GetByExternalID(ctx, d.ExternalID)
}

func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*domainDriver.Driver, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *DriverRepository) GetByExternalID(ctx context.Context, externalID int64) (*domainDriver.Driver, error) {
	return r.getOne(ctx, "external_id = ?", externalID)
}

func (r *DriverRepository) GetByNotifyChat(ctx context.Context, chatID int64) (*domainDriver.Driver, error) {
	return r.getOne(ctx, "notify_chat_id = ?", chatID)
}

func (r *DriverRepository) GetByUsername(ctx context.Context, username string) (*domainDriver.Driver, error) {
	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	return r.getOne(ctx, "username = ?", username)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg interface{}) (*domainDriver.Driver, error) {
	var dbModel models.DriverModel
	err := r.db.DB.WithContext(ctx).
		Where(query, arg).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDriver.ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	return toDriverEntity(&dbModel), nil
}

func (r *DriverRepository) ListActive(ctx context.Context, groupID uuid.UUID) ([]*domainDriver.Driver, error) {
	var dbModels []models.DriverModel
	err := r.db.DB.WithContext(ctx).
		Where("group_id = ? AND active = ?", groupID, true).
		Order("external_id ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}

	drivers := make([]*domainDriver.Driver, len(dbModels))
	for i := range dbModels {
		drivers[i] = toDriverEntity(&dbModels[i])
	}
	return drivers, nil
}

func (r *DriverRepository) SetNotifyChat(ctx context.Context, id uuid.UUID, chatID int64, chatTitle *string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DriverModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notify_chat_id":    chatID,
			"notify_chat_title": chatTitle,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "duplicate key value") {
			return domainDriver.ErrChatTaken
		}
		return fmt.Errorf("failed to set notify chat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDriver.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepository) SetChatTitle(ctx context.Context, chatID int64, title string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.DriverModel{}).
		Where("notify_chat_id = ?", chatID).
		Updates(map[string]interface{}{
			"notify_chat_title": title,
			"updated_at":        time.Now(),
		}).Error
}

func (r *DriverRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DriverModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDriver.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepository) UpdateStreak(ctx context.Context, id uuid.UUID, current, best int, lastCheckDate time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DriverModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"streak_current":  current,
			"streak_best":     best,
			"last_check_date": lastCheckDate,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update streak: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDriver.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepository) ResetMissedStreaks(ctx context.Context, groupID uuid.UUID, date time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).Exec(`
        UPDATE drivers d
        SET streak_current = 0, updated_at = NOW()
        FROM groups g
        WHERE d.group_id = g.id
          AND g.id = ?
          AND d.active = TRUE
          AND d.streak_current > 0
          AND NOT EXISTS (
              SELECT 1 FROM checkins c
              WHERE c.driver_id = d.id
                AND c.date = ?
                AND c.status IN ('pass', 'excused')
          )
    `, groupID, date)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset missed streaks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *DriverRepository) SetLastPass(ctx context.Context, id uuid.UUID, at *time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.DriverModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_pass_at": at,
			"updated_at":   time.Now(),
		}).Error
}

func (r *DriverRepository) SetLastCongrats(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.DriverModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_congrats_at": at,
			"updated_at":       time.Now(),
		}).Error
}

func toDriverModel(d *domainDriver.Driver) *models.DriverModel {
	return &models.DriverModel{
		ID:              d.ID,
		GroupID:         d.GroupID,
		ExternalID:      d.ExternalID,
		Username:        d.Username,
		DisplayName:     d.DisplayName,
		Active:          d.Active,
		NotifyChatID:    d.NotifyChatID,
		NotifyChatTitle: d.NotifyChatTitle,
		StreakCurrent:   d.StreakCurrent,
		StreakBest:      d.StreakBest,
		LastCheckDate:   d.LastCheckDate,
		LastPassAt:      d.LastPassAt,
		LastCongratsAt:  d.LastCongratsAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toDriverEntity(m *models.DriverModel) *domainDriver.Driver {
	return &domainDriver.Driver{
		ID:              m.ID,
		GroupID:         m.GroupID,
		ExternalID:      m.ExternalID,
		Username:        m.Username,
		DisplayName:     m.DisplayName,
		Active:          m.Active,
		NotifyChatID:    m.NotifyChatID,
		NotifyChatTitle: m.NotifyChatTitle,
		StreakCurrent:   m.StreakCurrent,
		StreakBest:      m.StreakBest,
		LastCheckDate:   m.LastCheckDate,
		LastPassAt:      m.LastPassAt,
		LastCongratsAt:  m.LastCongratsAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
