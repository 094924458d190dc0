package domain

import "errors"

// Domain errors
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrInvalidCriteria      = errors.New("invalid filter criteria")
	ErrStreamFailed         = errors.New("stream failed")
	ErrShutdownInProgress   = errors.New("shutdown in progress")
	ErrConfigNotFound       = errors.New("config file not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// Error codes for API responses
const (
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeAlertNotFound        = "ALERT_NOT_FOUND"
	ErrCodeInvalidCriteria      = "INVALID_CRITERIA"
	ErrCodeStreamFailed         = "STREAM_FAILED"
	ErrCodeShutdownInProgress   = "SHUTDOWN_IN_PROGRESS"

	// Export-related error codes (API-only, used for HTTP response
	// formatting when an unsupported format is requested)
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		return ErrCodeSubscriptionNotFound
	case errors.Is(err, ErrAlertNotFound):
		return ErrCodeAlertNotFound
	case errors.Is(err, ErrInvalidCriteria):
		return ErrCodeInvalidCriteria
	case errors.Is(err, ErrStreamFailed):
		return ErrCodeStreamFailed
	case errors.Is(err, ErrShutdownInProgress):
		return ErrCodeShutdownInProgress
	default:
		return "INTERNAL_ERROR"
	}
}
