package artifact

import "fmt"

// ErrorType represents the category of error that occurred while
// fetching a coverage artifact.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeNotFound
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeNotFound:
		return "artifact not found"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error represents an artifact download error with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("coverage artifact: %s: %s (status: %d)", e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// classifyStatus maps an HTTP status code to a typed error.
func classifyStatus(status int, message string) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: status, Retryable: false}
	case status == 404:
		return &Error{Type: ErrTypeNotFound, Message: message, StatusCode: status, Retryable: false}
	case status == 429:
		return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: status, Retryable: true}
	case status == 408:
		return &Error{Type: ErrTypeTimeout, Message: message, StatusCode: status, Retryable: true}
	case status >= 500:
		return &Error{Type: ErrTypeServiceUnavailable, Message: message, StatusCode: status, Retryable: true}
	default:
		return &Error{Type: ErrTypeUnknown, Message: message, StatusCode: status, Retryable: false}
	}
}
