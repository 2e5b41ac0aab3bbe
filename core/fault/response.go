package fault

import "errors"

// Response is the envelope every provider-facing adapter returns to callers.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    Kind   `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// OK wraps a successful payload.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Fail converts an error into the failure envelope. Classified errors keep
// their kind and human message; anything else becomes UNKNOWN_ERROR.
func Fail(err error) Response {
	if err == nil {
		return Response{Success: false, Code: KindUnknown}
	}
	var fe *Error
	if errors.As(err, &fe) {
		resp := Response{
			Success: false,
			Error:   fe.Message,
			Code:    fe.Kind,
		}
		if resp.Error == "" {
			resp.Error = humanMessage(fe.Kind)
		}
		if fe.Err != nil {
			resp.Details = fe.Err.Error()
		}
		return resp
	}
	return Response{
		Success: false,
		Error:   humanMessage(KindUnknown),
		Code:    Classify(err),
		Details: err.Error(),
	}
}

// humanMessage maps kinds to short user-facing fallbacks. Internal
// diagnostics (status codes, bodies) stay in logs via Details.
func humanMessage(kind Kind) string {
	switch kind {
	case KindNetworkError:
		return "Network problem, please try again"
	case KindUnauthorized:
		return "Access denied"
	case KindNotFound:
		return "Not found"
	case KindRateLimit:
		return "Too many requests, slow down"
	case KindInsufficientCredits:
		return "The provider ran out of credits"
	case KindInsufficientTokens:
		return "Not enough tokens, top up your balance"
	case KindValidationError:
		return "Invalid request"
	case KindServiceUnavailable:
		return "Service is temporarily unavailable"
	case KindSessionConflict:
		return "Another session is already active"
	}
	return "Something went wrong"
}

// HumanMessage exposes the short localized message for a terminal failure.
func HumanMessage(err error) string {
	return humanMessage(KindOf(err))
}
