// Package apperr defines the closed set of failures services report to the
// HTTP layer. Callers match on Kind via errors.As, never on message text.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags an Error
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDuplicateAccount
	KindInvalidCredentials
	KindAccountLocked
	KindOtpInvalid
	KindNotFound
	KindUnauthenticated
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateAccount:
		return "duplicate_account"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAccountLocked:
		return "account_locked"
	case KindOtpInvalid:
		return "otp_invalid"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindDependency:
		return "dependency_failure"
	default:
		return "unknown"
	}
}

// OtpReason subdivides KindOtpInvalid for user messaging
type OtpReason string

const (
	OtpMissing     OtpReason = "no_otp"
	OtpMaxAttempts OtpReason = "max_attempts_reached"
	OtpExpired     OtpReason = "otp_expired"
	OtpMismatch    OtpReason = "otp_mismatch"
)

// Error is the tagged service error
type Error struct {
	Kind    Kind
	Message string

	// Field names the offending input for validation and duplicate errors
	Field string
	// Fields marks every missing required input
	Fields map[string]bool

	OtpReason    OtpReason
	AttemptsLeft int

	// LockedUntil and RetryAfter are set for KindAccountLocked. RetryAfter is
	// measured on the service clock.
	LockedUntil time.Time
	RetryAfter  time.Duration

	// Reason is a machine-readable code, e.g. for unauthenticated requests
	Reason string

	Err error
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

// As extracts an *Error from err
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func MissingFields(message string, fields map[string]bool) *Error {
	return &Error{Kind: KindValidation, Fields: fields, Message: message}
}

func DuplicateAccount(field, message string) *Error {
	return &Error{Kind: KindDuplicateAccount, Field: field, Message: message}
}

// InvalidCredentials carries the same message whatever the cause
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
}

func AccountLocked(until, now time.Time) *Error {
	return &Error{
		Kind:        KindAccountLocked,
		Message:     "Account is temporarily locked",
		LockedUntil: until,
		RetryAfter:  until.Sub(now),
	}
}

func OtpInvalid(reason OtpReason, attemptsLeft int) *Error {
	msg := "Invalid verification code"
	switch reason {
	case OtpMissing:
		msg = "No verification code pending. Please request a new code."
	case OtpMaxAttempts:
		msg = "Maximum OTP attempts reached. Please request a new code."
	case OtpExpired:
		msg = "OTP has expired. Please request a new code."
	}
	return &Error{Kind: KindOtpInvalid, OtpReason: reason, AttemptsLeft: attemptsLeft, Message: msg}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unauthenticated(reason, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Reason: reason, Message: message}
}

func Dependency(message string, err error) *Error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}
