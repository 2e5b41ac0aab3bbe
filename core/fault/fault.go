// Package fault defines the closed set of domain error kinds shared by the
// AI providers, the payment gateway, the token ledger, and the session
// manager, so calling handlers can react uniformly regardless of the source.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies one of the closed domain error categories.
type Kind string

const (
	KindNetworkError        Kind = "NETWORK_ERROR"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindNotFound            Kind = "NOT_FOUND"
	KindRateLimit           Kind = "RATE_LIMIT"
	KindInsufficientCredits Kind = "INSUFFICIENT_CREDITS"
	KindInsufficientTokens  Kind = "INSUFFICIENT_TOKENS"
	KindValidationError     Kind = "VALIDATION_ERROR"
	KindServiceUnavailable  Kind = "SERVICE_UNAVAILABLE"
	KindSessionConflict     Kind = "SESSION_CONFLICT"
	KindUnknown             Kind = "UNKNOWN_ERROR"
)

// Retryable reports whether the kind is transient and safe to retry.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkError, KindRateLimit, KindServiceUnavailable:
		return true
	}
	return false
}

// Error is a classified failure carrying the domain kind alongside optional
// upstream diagnostics. Diagnostics are for logs only, never user output.
type Error struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	RawBody    string
	Err        error
}

// New builds a classified error with a human message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the kind name so log summaries can derive err_code.
func (e *Error) Code() string {
	return string(e.Kind)
}

// Retryable reports whether the classified failure is transient.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// KindOf extracts the domain kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the error classifies to a transient kind.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
