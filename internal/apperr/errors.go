// Package apperr defines the error taxonomy shared by the inventory core and
// the HTTP layer.
//
// Callers match on the sentinels with errors.Is; the HTTP layer turns any
// error into a status code and a machine readable code with HTTPStatus and
// KindOf.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine readable category of an error. It is sent to clients
// in the "code" field of error responses.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindInsufficientSerials Kind = "insufficient_serials"
	KindSerialUnavailable   Kind = "serial_unavailable"
	KindStateConflict       Kind = "state_conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindInternal            Kind = "internal"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientSerials = errors.New("insufficient serials")
	ErrSerialUnavailable   = errors.New("serial unavailable")
	ErrStateConflict       = errors.New("state conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

var sentinels = map[Kind]error{
	KindValidation:          ErrValidation,
	KindNotFound:            ErrNotFound,
	KindInsufficientStock:   ErrInsufficientStock,
	KindInsufficientSerials: ErrInsufficientSerials,
	KindSerialUnavailable:   ErrSerialUnavailable,
	KindStateConflict:       ErrStateConflict,
	KindUnauthorized:        ErrUnauthorized,
	KindForbidden:           ErrForbidden,
}

// Error carries a human readable message and unwraps to the sentinel of its
// kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return sentinels[e.Kind]
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func InsufficientSerials(format string, args ...any) *Error {
	return newf(KindInsufficientSerials, format, args...)
}

func SerialUnavailable(format string, args ...any) *Error {
	return newf(KindSerialUnavailable, format, args...)
}

func StateConflict(format string, args ...any) *Error {
	return newf(KindStateConflict, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

// KindOf returns the kind of err, or KindInternal when err is not one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindInsufficientSerials,
		KindSerialUnavailable, KindStateConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err was caused by the request rather than by
// the server.
func IsClientError(err error) bool {
	return HTTPStatus(err) < http.StatusInternalServerError
}
