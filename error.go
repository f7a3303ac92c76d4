package mediavault

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// The codes double as the retry taxonomy: ECONFLICT and EUNAVAILABLE are
// transient remote faults, everything else is permanent. Classification by
// code keeps new error text from being silently treated as non-retryable.
const (
	ECONFLICT     = "conflict"     // remote lock contention, concurrent modification
	EINTERNAL     = "internal"     // internal error
	EINVALID      = "invalid"      // validation failed, malformed request
	ENOTFOUND     = "not_found"    // entity does not exist
	EUNAUTHORIZED = "unauthorized" // authentication or authorization failed
	EUNAVAILABLE  = "unavailable"  // remote overload, temporary outage
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract the code and message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string
}

// Error implements the error interface. Not used by the application
// otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("mediavault error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
