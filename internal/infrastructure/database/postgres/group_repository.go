package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainGroup "fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository implements domain group.Repository
type GroupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) domainGroup.Repository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Save(ctx context.Context, g *domainGroup.Group) error {
	now := time.Now()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	dbModel := toGroupModel(g)
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "timezone", "rolling_topic_id", "compliance_topic_id",
				"trailer_topic_id", "autosend_enabled", "autosend_time",
				"digest_time", "active", "updated_at",
			}),
		}).
		Create(dbModel).Error
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	g.ID = dbModel.ID
	g.CreatedAt = dbModel.CreatedAt
	g.UpdatedAt = dbModel.UpdatedAt
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domainGroup.Group, error) {
	var dbModel models.GroupModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainGroup.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return toGroupEntity(&dbModel), nil
}

func (r *GroupRepository) GetByChatID(ctx context.Context, chatID int64) (*domainGroup.Group, error) {
	var dbModel models.GroupModel
	err := r.db.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainGroup.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by chat: %w", err)
	}

	return toGroupEntity(&dbModel), nil
}

func (r *GroupRepository) ListActive(ctx context.Context) ([]*domainGroup.Group, error) {
	var dbModels []models.GroupModel
	err := r.db.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := make([]*domainGroup.Group, len(dbModels))
	for i := range dbModels {
		groups[i] = toGroupEntity(&dbModels[i])
	}
	return groups, nil
}

func (r *GroupRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.GroupModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainGroup.ErrGroupNotFound
	}
	return nil
}

func toGroupModel(g *domainGroup.Group) *models.GroupModel {
	return &models.GroupModel{
		ID:                g.ID,
		ChatID:            g.ChatID,
		Title:             g.Title,
		Timezone:          g.Timezone,
		RollingTopicID:    g.RollingTopicID,
		ComplianceTopicID: g.ComplianceTopicID,
		TrailerTopicID:    g.TrailerTopicID,
		AutosendEnabled:   g.AutosendEnabled,
		AutosendTime:      g.AutosendTime,
		DigestTime:        g.DigestTime,
		Active:            g.Active,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

func toGroupEntity(m *models.GroupModel) *domainGroup.Group {
	return &domainGroup.Group{
		ID:                m.ID,
		ChatID:            m.ChatID,
		Title:             m.Title,
		Timezone:          m.Timezone,
		RollingTopicID:    m.RollingTopicID,
		ComplianceTopicID: m.ComplianceTopicID,
		TrailerTopicID:    m.TrailerTopicID,
		AutosendEnabled:   m.AutosendEnabled,
		AutosendTime:      m.AutosendTime,
		DigestTime:        m.DigestTime,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
