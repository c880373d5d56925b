package group

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for groups.
type Repository interface {
	Save(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	GetByChatID(ctx context.Context, chatID int64) (*Group, error)
	ListActive(ctx context.Context) ([]*Group, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
