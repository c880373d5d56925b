package compliance

import (
	"time"

	"github.com/google/uuid"
)

// Observation outcome for one driver in one report run.
const (
	OutcomeCompliant    = "compliant"
	OutcomeNonCompliant = "non_compliant"
	OutcomeException    = "exception"
)

// Tracking is the rolling non-compliance counter for a driver. One row
// per driver; the counter climbs on consecutive non-compliant report
// runs and clears on a pass.
type Tracking struct {
	DriverID             uuid.UUID
	ConsecutiveReports   int
	LastReportAt         time.Time
	LastDriverAlertAt    *time.Time
	LastDispatchAlertAt  *time.Time
	LastStatus           string
	LastCommentThreadRef *string
	UpdatedAt            time.Time
}

// Note is a dispatcher annotation on a driver's compliance record.
type Note struct {
	ID        uuid.UUID
	DriverID  uuid.UUID
	AuthorID  int64
	Text      string
	CreatedAt time.Time
}
