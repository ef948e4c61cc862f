package services

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so the transport can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUnsupportedMediaType
	KindTooLarge
	KindPersistence
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnsupportedMediaType:
		return "unsupported_media_type"
	case KindTooLarge:
		return "too_large"
	case KindPersistence:
		return "persistence"
	case KindUpload:
		return "upload"
	default:
		return "internal"
	}
}

// Error is the single error type returned by services.
// Message is safe to show to clients; Err is the underlying cause and is only logged.
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrInvalidCredentials) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// ErrInvalidCredentials is returned for both an unknown phone and a wrong password.
var ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "invalid credentials"}

// ErrForbidden is returned when a session acts on another company's data.
var ErrForbidden = &Error{Kind: KindForbidden, Message: "forbidden"}

// NewValidationError reports malformed input detected outside a service.
func NewValidationError(msg string) *Error { return validationError(msg) }

// NewTooLargeError reports an upload over the size ceiling.
func NewTooLargeError(maxBytes int64) *Error {
	return newError(KindTooLarge, fmt.Sprintf("file exceeds the %d byte limit", maxBytes), nil)
}

func validationError(msg string) *Error { return newError(KindValidation, msg, nil) }

func notFound(msg string) *Error { return newError(KindNotFound, msg, nil) }

func persistence(msg string, err error) *Error { return newError(KindPersistence, msg, err) }

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
