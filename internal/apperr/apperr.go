// Package apperr defines the error taxonomy shared by all request handlers.
// Every failure surfaced to a client maps to exactly one Kind, and every Kind
// maps to exactly one HTTP status.
package apperr

import (
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal     Kind = iota // anything unclassified
	KindValidation               // missing or malformed client input
	KindNotFound                 // referenced entity absent
	KindUnauthorized             // no caller identity where one is required
	KindConflict                 // reference/constraint violation
	KindUnavailable              // transient infrastructure failure, retried before surfacing
)

// Error carries a client-facing message, an optional detail string, and the
// wrapped cause. The cause never reaches the client.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so handlers can compare against sentinel constructors.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an Error of the given kind.
func New(kind Kind, message, detail string) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message, detail string) *Error {
	return New(KindValidation, message, detail)
}

func NotFound(message, detail string) *Error {
	return New(KindNotFound, message, detail)
}

func Unauthorized() *Error {
	return New(KindUnauthorized, "Unauthorized", "")
}

func Conflict(message, detail string) *Error {
	return New(KindConflict, message, detail)
}

func Unavailable(message, detail string) *Error {
	return New(KindUnavailable, message, detail)
}

func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}

// HTTPStatus maps an error to the response code its kind prescribes.
// Non-apperr errors map to 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return consts.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return consts.StatusBadRequest
	case KindNotFound:
		return consts.StatusNotFound
	case KindUnauthorized:
		return consts.StatusUnauthorized
	case KindUnavailable:
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}

// Payload renders the {error, details?} body for err. Unclassified errors get
// a generic message; the cause stays server-side.
func Payload(err error) map[string]interface{} {
	var e *Error
	if !errors.As(err, &e) {
		return map[string]interface{}{
			"error":   "Internal server error",
			"details": "An unexpected error occurred.",
		}
	}
	body := map[string]interface{}{"error": e.Message}
	if e.Detail != "" {
		body["details"] = e.Detail
	}
	return body
}
