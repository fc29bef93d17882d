// internal/fault/fault.go
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so that handlers can map it to a transport
// status and callers can decide whether a retry makes sense.
type Kind int

const (
	// KindUnknown is an unclassified error (treated as infrastructure).
	KindUnknown Kind = iota
	// KindValidation is malformed input, caught before any storage call.
	KindValidation
	// KindNotFound is a referenced entity that does not exist.
	KindNotFound
	// KindRejected is a business-rule rejection: a normal, terminal outcome.
	KindRejected
	// KindInfrastructure is a storage or file-system failure; retryable.
	KindInfrastructure
)

// Error carries a user-facing message and a classification. The wrapped
// cause, if any, is for logs only and never surfaced to the caller.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the user-facing message without the wrapped cause.
func (e *Error) Message() string { return e.msg }

// Validation builds a malformed-input error.
func Validation(format string, args ...any) error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-entity error.
func NotFound(format string, args ...any) error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// Rejected builds a business-rule rejection.
func Rejected(format string, args ...any) error {
	return &Error{kind: KindRejected, msg: fmt.Sprintf(format, args...)}
}

// Infrastructure wraps a technical failure behind a generic retryable
// message; the cause stays attached for logging.
func Infrastructure(msg string, cause error) error {
	return &Error{kind: KindInfrastructure, msg: msg, cause: cause}
}

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindUnknown
}

// MessageOf extracts the user-facing message from err. Unclassified
// errors get a generic message so technical detail never leaks.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.msg
	}
	return "internal error, please retry"
}
