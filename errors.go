package authcore

import (
	"errors"
	"fmt"
)

// ErrorKind is the externally visible failure class of an operation.
type ErrorKind uint8

const (
	// KindConflict reports a duplicate identity on register.
	KindConflict ErrorKind = iota + 1
	// KindInvalidCredential reports a bad OTP or reset ticket.
	KindInvalidCredential
	// KindUnauthorized reports a failed login or an invalid, expired,
	// revoked, reused or blacklisted token.
	KindUnauthorized
	// KindInvalidRequest reports a request that violates input policy.
	KindInvalidRequest
	// KindDependencyUnavailable reports a store or directory failure after
	// bounded retry.
	KindDependencyUnavailable
)

// String returns the stable lowercase name of k.
func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidRequest:
		return "invalid_request"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	default:
		return "unknown"
	}
}

var (
	// ErrConflict matches every *Error of KindConflict.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredential matches every *Error of KindInvalidCredential.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnauthorized matches every *Error of KindUnauthorized.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRequest matches every *Error of KindInvalidRequest.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDependencyUnavailable matches every *Error of KindDependencyUnavailable.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrEngineNotReady is returned by an Engine that was not built through
	// the Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderMissingStore is returned when Build has no ephemeral store.
	ErrBuilderMissingStore = errors.New("ephemeral store is required")
	// ErrBuilderMissingDirectory is returned when Build has no user directory.
	ErrBuilderMissingDirectory = errors.New("user directory is required")
	// ErrBuilderUsed is returned when Build is called twice.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrConfigInvalid wraps Config.Validate failures.
	ErrConfigInvalid = errors.New("invalid config")
)

// External messages. Internal reasons never appear in them.
const (
	MessageUserExists          = "User already exists"
	MessageInvalidOTP          = "Invalid OTP"
	MessageInvalidCredentials  = "Invalid credentials"
	MessageInvalidRefreshToken = "invalid refresh token"
	MessageInvalidResetToken   = "Invalid reset token"
	MessageInvalidAccessToken  = "Invalid access token"
	MessageUnavailable         = "Service temporarily unavailable"
)

// Error is the typed failure returned by every Engine operation.
//
// Message is safe to show to clients. Reason is an internal code for logs,
// audit and metrics, and must not be serialized to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so errors.Is(err, ErrUnauthorized) works.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrInvalidCredential:
		return e.Kind == KindInvalidCredential
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrInvalidRequest:
		return e.Kind == KindInvalidRequest
	case ErrDependencyUnavailable:
		return e.Kind == KindDependencyUnavailable
	}
	return false
}

// KindOf returns the kind of err, or zero when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ReasonOf returns the internal reason of err, or "".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func newError(kind ErrorKind, message, reason string, err error) *Error {
	return &Error{Kind: kind, Message: message, Reason: reason, Err: err}
}
