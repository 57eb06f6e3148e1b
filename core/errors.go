package core

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrBusy             = errors.New("another action is still in progress")
	ErrActionNotAllowed = errors.New("action not allowed")
	ErrNotConfirmed     = errors.New("action not confirmed")
	ErrNoGroup          = errors.New("you are not a member of any group")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fld := range err.Fields {
		msgs = append(msgs, fld.Field+": "+fld.Error)
	}
	return strings.Join(msgs, "; ")
}

// AuthError is returned when the API rejects the credentials or the bearer token.
type AuthError struct {
	Status  int
	Message string
}

func (err *AuthError) Error() string {
	if err.Message == "" {
		return "authentication failed"
	}
	return err.Message
}

// APIError is a non-2xx API response carrying the server message.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (err *APIError) Error() string {
	if err.Message != "" {
		return err.Message
	}
	if len(err.Fields) > 0 {
		keys := make([]string, 0, len(err.Fields))
		for k := range err.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, k+": "+err.Fields[k])
		}
		return strings.Join(msgs, "; ")
	}
	return fmt.Sprintf("request failed with status %d (%s)", err.Status, http.StatusText(err.Status))
}

func IsAuthError(err error) bool {
	_, ok := errors.Cause(err).(*AuthError)
	return ok
}

// IsAuthStatus reports whether an HTTP status code means the token was rejected.
func IsAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// UserMessage returns what should be displayed for err: server and validation messages verbatim,
// the fallback for anything else (transport failures, unexpected errors).
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	switch origErr := errors.Cause(err).(type) {
	case *ValidationError:
		if msg := origErr.Error(); msg != "" {
			return msg
		}
	case *APIError:
		if origErr.Message != "" || len(origErr.Fields) > 0 {
			return origErr.Error()
		}
	case *AuthError:
		return origErr.Error()
	}
	switch errors.Cause(err) {
	case ErrBusy, ErrActionNotAllowed, ErrNotConfirmed, ErrNoGroup:
		return errors.Cause(err).Error()
	}
	return fallback
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
