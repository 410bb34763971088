// Package apperr defines the error taxonomy shared by all domain services.
// Services return *Error values; the HTTP layer maps them to status codes
// via EchoErrorHandler without inspecting internal detail.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindUnauthorized means the identity assertion is missing or invalid.
	KindUnauthorized Kind = iota
	// KindForbidden means a role, consent, session or approval gate failed.
	// The Reason field carries the machine-readable reason code.
	KindForbidden
	// KindNotFound means the referenced entity does not exist.
	KindNotFound
	// KindConflict means the operation collides with existing state,
	// e.g. a second concurrent assisted session.
	KindConflict
	// KindGone means the resource existed but is terminally ended or
	// expired. Distinct from NotFound so callers can explain why
	// re-access is impossible instead of retrying.
	KindGone
	// KindValidation means the input is malformed. Rejected before any
	// state mutation.
	KindValidation
	// KindProvider means a downstream STT/LLM/translation/RTC call
	// failed. Always recovered locally via a fallback chain.
	KindProvider
)

// Reason codes surfaced for Forbidden decisions.
const (
	ReasonRoleForbidden   = "role_forbidden"
	ReasonNoActiveSession = "no_active_session"
	ReasonConsentMissing  = "consent_missing"
	ReasonNotApproved     = "not_approved"
	ReasonNotOwner        = "not_owner"
	ReasonFinalized       = "finalized"
)

type Error struct {
	Kind   Kind
	Reason string // reason code for Forbidden, empty otherwise
	Msg    string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return e.Reason + ": " + e.Msg
	}
	return e.Msg
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Forbidden builds a gate failure carrying a reason code so callers can
// distinguish "wrong role" from "consent missing" from "session expired".
func Forbidden(reason, msg string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Gone(msg string) *Error {
	return &Error{Kind: KindGone, Msg: msg}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Provider(format string, args ...interface{}) *Error {
	return &Error{Kind: KindProvider, Msg: fmt.Sprintf(format, args...)}
}

// KindOf unwraps err and returns its Kind, or -1 for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Kind(-1)
}

// ReasonOf unwraps err and returns its reason code, if any.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status the handler layer should emit.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindValidation:
		return http.StatusBadRequest
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
