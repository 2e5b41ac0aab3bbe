package fault

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
)

// ClassifyHTTP maps an upstream HTTP status to a domain kind.
func ClassifyHTTP(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusPaymentRequired:
		return KindInsufficientCredits
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidationError
	}
	if status >= 500 {
		return KindServiceUnavailable
	}
	return KindUnknown
}

// Classify maps a transport or context error to a domain kind. Errors that
// already carry a kind pass through unchanged.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetworkError
	}
	if errors.Is(err, context.Canceled) {
		return KindNetworkError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetworkError
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetworkError
	}

	return KindUnknown
}

// FromHTTP builds a classified error for a non-2xx upstream response,
// preserving the status and raw body for diagnostics.
func FromHTTP(status int, body, message string) *Error {
	return &Error{
		Kind:       ClassifyHTTP(status),
		Message:    message,
		HTTPStatus: status,
		RawBody:    body,
	}
}
