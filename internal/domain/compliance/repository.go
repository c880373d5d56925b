package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for compliance tracking and
// notes.
type Repository interface {
	// UpsertObservation records the outcome of one report run for the
	// driver: non-compliant runs increment the consecutive counter,
	// anything else resets it to zero. Returns the row after the update.
	UpsertObservation(ctx context.Context, driverID uuid.UUID, outcome string, at time.Time) (*Tracking, error)

	GetByDriver(ctx context.Context, driverID uuid.UUID) (*Tracking, error)
	ResetCounter(ctx context.Context, driverID uuid.UUID) error

	MarkDriverAlert(ctx context.Context, driverID uuid.UUID, at time.Time) error
	MarkDispatchAlert(ctx context.Context, driverID uuid.UUID, at time.Time, threadRef *string) error

	// ClearAll deletes every tracking row for the group and writes a
	// reset audit entry in the same transaction. Returns rows removed.
	ClearAll(ctx context.Context, groupID uuid.UUID, resetBy *int64) (int64, error)

	AddNote(ctx context.Context, n *Note) error
	LatestNotes(ctx context.Context, driverID uuid.UUID, limit int) ([]*Note, error)
}
