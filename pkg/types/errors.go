package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy every wallet, network, and backend error
// is normalized into at the boundary where it occurs.
type ErrorKind string

const (
	ErrUserRejected       ErrorKind = "user_rejected"
	ErrWalletIncompatible ErrorKind = "wallet_incompatible"
	ErrBackendRejected    ErrorKind = "backend_rejected"
	ErrNetworkTransient   ErrorKind = "network_transient"
	ErrTimeout            ErrorKind = "timeout"
	ErrValidationFailed   ErrorKind = "validation_failed"
)

// Error carries a taxonomy kind, an optional machine code from the backend,
// and a human-readable message.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error with no underlying cause.
func NewError(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the taxonomy kind of err, or "" if err was never
// classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
