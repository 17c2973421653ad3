// Package apperror defines the closed set of failure kinds surfaced by the
// authentication flow and how each maps onto an HTTP response.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindNotFound
	KindUnauthenticated
	KindUnauthorized
	KindInvalidToken
	KindTooManyRequests
)

type kindInfo struct {
	status int
	code   string
}

var kinds = map[Kind]kindInfo{
	KindInternal:        {http.StatusInternalServerError, "INTERNAL_ERROR"},
	KindValidation:      {http.StatusBadRequest, "VALIDATION_ERROR"},
	KindBadRequest:      {http.StatusBadRequest, "BAD_REQUEST"},
	KindNotFound:        {http.StatusNotFound, "NOT_FOUND"},
	KindUnauthenticated: {http.StatusUnauthorized, "UNAUTHENTICATED"},
	KindUnauthorized:    {http.StatusForbidden, "UNAUTHORIZED"},
	KindInvalidToken:    {http.StatusUnauthorized, "INVALID_TOKEN"},
	KindTooManyRequests: {http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
}

// StatusCode returns the HTTP status for k.
func (k Kind) StatusCode() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Code returns the machine readable code for k.
func (k Kind) Code() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return kinds[KindInternal].code
}

func (k Kind) String() string {
	return k.Code()
}

// Error is a classified failure carrying a user facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Validation(message string) *Error      { return New(KindValidation, message) }
func BadRequest(message string) *Error      { return New(KindBadRequest, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Unauthorized(message string) *Error    { return New(KindUnauthorized, message) }
func InvalidToken(message string) *Error    { return New(KindInvalidToken, message) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// StatusCode returns the HTTP status code for err.
func StatusCode(err error) int {
	return KindOf(err).StatusCode()
}
