package checkin

import "errors"

var (
	ErrCheckinNotFound   = errors.New("check-in not found")
	ErrInvalidTransition = errors.New("invalid check-in status transition")
	ErrInvalidStatus     = errors.New("unknown check-in status")
)
