package fault

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func TestClassifyHTTP(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusPaymentRequired, KindInsufficientCredits},
		{http.StatusBadRequest, KindValidationError},
		{http.StatusUnprocessableEntity, KindValidationError},
		{http.StatusInternalServerError, KindServiceUnavailable},
		{http.StatusBadGateway, KindServiceUnavailable},
		{http.StatusTeapot, KindUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyHTTP(tc.status); got != tc.want {
			t.Errorf("ClassifyHTTP(%d) = %s, want %s", tc.status, got, tc.want)
		}
	}
}

func TestClassifyPassesThroughKind(t *testing.T) {
	err := fmt.Errorf("debit: %w", New(KindInsufficientTokens, "not enough tokens"))
	if got := Classify(err); got != KindInsufficientTokens {
		t.Fatalf("Classify = %s, want INSUFFICIENT_TOKENS", got)
	}
	if !IsKind(err, KindInsufficientTokens) {
		t.Fatal("IsKind should see the wrapped kind")
	}
}

func TestClassifyTransport(t *testing.T) {
	urlErr := &url.Error{Op: "Post", URL: "http://gw", Err: errors.New("connection refused")}
	if got := Classify(urlErr); got != KindNetworkError {
		t.Fatalf("Classify(url.Error) = %s, want NETWORK_ERROR", got)
	}
	if got := Classify(errors.New("mystery")); got != KindUnknown {
		t.Fatalf("Classify(plain) = %s, want UNKNOWN_ERROR", got)
	}
}

func TestRetryable(t *testing.T) {
	transient := []Kind{KindNetworkError, KindRateLimit, KindServiceUnavailable}
	for _, k := range transient {
		if !k.Retryable() {
			t.Errorf("%s should be retryable", k)
		}
	}
	permanent := []Kind{KindUnauthorized, KindValidationError, KindNotFound, KindInsufficientTokens, KindSessionConflict}
	for _, k := range permanent {
		if k.Retryable() {
			t.Errorf("%s should not be retryable", k)
		}
	}
}

func TestErrorCode(t *testing.T) {
	e := FromHTTP(503, `{"error":"down"}`, "gateway unavailable")
	if e.Code() != "SERVICE_UNAVAILABLE" {
		t.Fatalf("Code = %s", e.Code())
	}
	if e.HTTPStatus != 503 || e.RawBody == "" {
		t.Fatal("diagnostics should be preserved")
	}
}

func TestFailEnvelope(t *testing.T) {
	resp := Fail(New(KindInsufficientTokens, ""))
	if resp.Success {
		t.Fatal("Fail must not be success")
	}
	if resp.Code != KindInsufficientTokens {
		t.Fatalf("code = %s", resp.Code)
	}
	if resp.Error == "" {
		t.Fatal("expected a human message fallback")
	}

	ok := OK(map[string]int{"balance": 10})
	if !ok.Success || ok.Data == nil {
		t.Fatal("OK envelope malformed")
	}
}
