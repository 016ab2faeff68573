package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared across the repo - handlers map these to HTTP statuses.
// Credential failures share one message on purpose : the caller must not be
// able to tell "no such user" apart from "wrong password".
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrDuplicateName      = errors.New("name already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenMissing       = errors.New("authentication token missing")
	ErrTokenInvalid       = errors.New("authentication token invalid")
	ErrTokenExpired       = errors.New("authentication token expired")
	ErrIdentityNotFound   = errors.New("account no longer exists")
	ErrAccessDenied       = errors.New("access denied")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidDueDate     = errors.New("due date cannot be in the past")
	ErrStorageTimeout     = errors.New("storage operation timed out")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInternal           = errors.New("internal error")
)

// Error wraps a kind with optional detail and per-field messages.
type Error struct {
	Kind   error
	Msg    string
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Wrap attaches detail to a kind.
func Wrap(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validation builds a 400-class error carrying field level messages.
func Validation(fields map[string]string) error {
	return &Error{Kind: ErrValidation, Fields: fields}
}

// FieldsOf extracts field messages when the error carries them.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// HTTPStatus maps an error kind to the status code the transport returns.
// Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidDueDate):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateIdentity), errors.Is(err, ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenMissing),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrIdentityNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStorageTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what goes over the wire. Internal detail stays in logs.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "something went wrong"
	}
	for _, kind := range []error{
		ErrValidation, ErrDuplicateIdentity, ErrDuplicateName,
		ErrInvalidCredentials, ErrTokenMissing, ErrTokenInvalid,
		ErrTokenExpired, ErrIdentityNotFound, ErrAccessDenied,
		ErrNotFound, ErrInvalidDueDate, ErrStorageTimeout,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "something went wrong"
}
