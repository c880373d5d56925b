package errors

import "fmt"

// Stable codes carried by AppError.
const (
	CodeScheduleConfig  = "SCHEDULE_CONFIG"
	CodeDeliveryFailure = "DELIVERY_FAILURE"
	CodeInvalidInput    = "INVALID_INPUT"
)

// AppError wraps a domain error with a stable machine-readable code for
// the HTTP boundary.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
