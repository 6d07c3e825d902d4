// Package errors provides the storefront error taxonomy and its HTTP rendering.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindUpstream      Kind = "upstream"
	KindConfiguration Kind = "configuration"
	KindInternal      Kind = "internal"
)

// Error is a classified application error. Details carries diagnostic data
// such as the raw provider payload and is rendered to the caller as-is.
type Error struct {
	Kind    Kind
	Message string
	Details any
	// Status overrides the default HTTP status for the kind when non-zero.
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// WithDetails returns a copy carrying the given details.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithStatus returns a copy rendered with the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	clone := *e
	clone.Status = status
	return &clone
}

// New builds a classified error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Configuration(message string) *Error { return New(KindConfiguration, message) }

// Upstream classifies a failed or malformed provider interaction, keeping the
// provider payload for diagnosis.
func Upstream(message string, payload any, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Details: payload, Err: cause}
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatusFromError maps err onto an HTTP status code.
func HTTPStatusFromError(err error) int {
	var classified *Error
	if !errors.As(err, &classified) {
		return http.StatusInternalServerError
	}
	if classified.Status != 0 {
		return classified.Status
	}
	switch classified.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
