package group

import "errors"

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrUnknownTimezone = errors.New("unknown timezone")
	ErrInvalidTime     = errors.New("invalid time of day, expected HH:MM")
)
