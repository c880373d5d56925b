package checkin

// Status is the review state of a daily check-in.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusPass      Status = "pass"
	StatusFail      Status = "fail"
	StatusNeedsFix  Status = "needs_fix"
	StatusExcused   Status = "excused"
)

// Terminal reports whether the status ends the review cycle for the day.
func (s Status) Terminal() bool {
	switch s {
	case StatusPass, StatusFail, StatusNeedsFix, StatusExcused:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusPass, StatusFail, StatusNeedsFix, StatusExcused:
		return true
	}
	return false
}

// validTransitions maps each status to the statuses it may move to.
// Terminal statuses may be re-reviewed into another terminal status or
// reopened back to submitted. Reset to pending is a separate operation
// allowed from any status and is not part of this table.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusSubmitted, StatusExcused},
	StatusSubmitted: {StatusPass, StatusFail, StatusNeedsFix, StatusExcused},
	StatusPass:      {StatusFail, StatusNeedsFix, StatusExcused, StatusSubmitted},
	StatusFail:      {StatusPass, StatusNeedsFix, StatusExcused, StatusSubmitted},
	StatusNeedsFix:  {StatusPass, StatusFail, StatusExcused, StatusSubmitted},
	StatusExcused:   {StatusPass, StatusFail, StatusNeedsFix, StatusSubmitted},
}

// CanTransition reports whether a check-in may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when the move is not
// allowed.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// ReviewSources lists the statuses a reviewer verdict may be applied
// from. A verdict on a pending check-in is rejected; the driver has not
// submitted anything to review.
func ReviewSources() []Status {
	return []Status{StatusSubmitted, StatusPass, StatusFail, StatusNeedsFix, StatusExcused}
}
