package cardgap

import (
	"errors"
	"fmt"
)

// Application error codes. The dashboard maps them to HTTP statuses and the
// harvester uses ENOTFOUND to tell a model without a card from a failed fetch.
const (
	ECONFLICT = "conflict"  // tag locked by another harvest
	EINTERNAL = "internal"  // anything unexpected
	EINVALID  = "invalid"   // bad tag, model, top-k or config value
	ENOTFOUND = "not_found" // no card, no snapshot, or model outside the corpus
)

// Error represents an application-specific error. Infrastructure errors are
// wrapped with fmt.Errorf instead.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("cardgap error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
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
	return "Internal error"
}
