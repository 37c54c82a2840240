// Package apperror is the error taxonomy shared by services and the HTTP layer.
// Message is safe to show to clients; Err is the internal cause and is only logged.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindNotFound      Kind = "not_found"
	KindEligibility   Kind = "eligibility"
	KindConflict      Kind = "conflict"
	KindValidation    Kind = "validation"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindRateLimited   Kind = "rate_limited"
	KindUpstream      Kind = "upstream"
	KindInternal      Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error    { return New(KindNotFound, message) }
func Eligibility(message string) *Error { return New(KindEligibility, message) }
func Conflict(message string) *Error    { return New(KindConflict, message) }
func Validation(message string) *Error  { return New(KindValidation, message) }
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}
func Forbidden(message string) *Error   { return New(KindForbidden, message) }
func RateLimited(message string) *Error { return New(KindRateLimited, message) }

// Configuration always renders the same generic message; the cause stays internal.
func Configuration(err error) *Error {
	return Wrap(KindConfiguration, "payment system unavailable", err)
}

func Upstream(message string, err error) *Error { return Wrap(KindUpstream, message, err) }
func Internal(message string, err error) *Error { return Wrap(KindInternal, message, err) }

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
