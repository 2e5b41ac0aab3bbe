package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"aibot/core/config"
	"aibot/core/fault"
)

func testClient(url string) *Client {
	return New(config.GatewayConfig{
		BaseURL:        url,
		ShopID:         "shop-1",
		Secret:         "test-secret",
		MaxRetries:     3,
		RetryBackoffMS: 1,
	})
}

func TestCreateSubscriptionSignsExactBody(t *testing.T) {
	var gotBody string
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/subscriptions/create" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotSig = r.Header.Get(SignatureHeader)
		w.Write([]byte(`{"id":"sub-1","orderId":"ord-123","status":"pending","paymentUrl":"https://pay.example/1"}`))
	}))
	defer srv.Close()

	sub, err := testClient(srv.URL).CreateSubscription(context.Background(), "prod-9", "42", "ord-123")
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if sub.ID != "sub-1" || sub.Status != StatusPending || sub.PaymentURL == "" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}

	wantBody := `{"shopId":"shop-1","productId":"prod-9","consumerId":"42","orderId":"ord-123"}`
	if gotBody != wantBody {
		t.Fatalf("body = %s, want %s", gotBody, wantBody)
	}
	if !VerifySignature("test-secret", []byte(gotBody), gotSig) {
		t.Fatalf("signature %s does not verify against body", gotSig)
	}
}

func TestListProductsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"shopId":"shop-1"}` {
			t.Errorf("body = %s", raw)
		}
		w.Write([]byte(`[{"id":"p1","name":"Basic","price":"490.00","currency":"RUB","periodDays":30}]`))
	}))
	defer srv.Close()

	products, err := testClient(srv.URL).ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" || products[0].PeriodDays != 30 {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestOffsetChargeDateStringifiesDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		want := `{"shopId":"shop-1","days":"7","subscriptionId":"sub-1"}`
		if string(raw) != want {
			t.Errorf("body = %s, want %s", raw, want)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).OffsetChargeDate(context.Background(), BySubscription("sub-1"), 7); err != nil {
		t.Fatalf("OffsetChargeDate: %v", err)
	}
}

func TestRefValidation(t *testing.T) {
	c := testClient("http://127.0.0.1:0")
	for name, ref := range map[string]Ref{
		"neither": {},
		"both":    {SubscriptionID: "sub-1", OrderID: "ord-1"},
	} {
		if _, err := c.Status(context.Background(), ref); !fault.IsKind(err, fault.KindValidationError) {
			t.Errorf("%s: err = %v, want VALIDATION_ERROR", name, err)
		}
	}
	if err := c.Unsubscribe(context.Background(), Ref{}); !fault.IsKind(err, fault.KindValidationError) {
		t.Errorf("Unsubscribe err = %v, want VALIDATION_ERROR", err)
	}
}

func TestPermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"card declined"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Status(context.Background(), ByOrder("ord-1"))
	if !fault.IsKind(err, fault.KindInsufficientCredits) {
		t.Fatalf("err = %v, want INSUFFICIENT_CREDITS", err)
	}
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("err = %T, want *fault.Error", err)
	}
	if fe.HTTPStatus != http.StatusPaymentRequired || !strings.Contains(fe.RawBody, "card declined") {
		t.Fatalf("diagnostics lost: %+v", fe)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1 for permanent failure", n)
	}
}

func TestTransientErrorRetriedUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"sub-1","status":"active"}`))
	}))
	defer srv.Close()

	sub, err := testClient(srv.URL).Status(context.Background(), BySubscription("sub-1"))
	if err != nil {
		t.Fatalf("Status after retries: %v", err)
	}
	if sub.Status != StatusActive {
		t.Fatalf("status = %s", sub.Status)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestTransientErrorExhaustsBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := testClient(srv.URL).Unsubscribe(context.Background(), ByOrder("ord-1"))
	if !fault.IsKind(err, fault.KindServiceUnavailable) {
		t.Fatalf("err = %v, want SERVICE_UNAVAILABLE", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("calls = %d, want full budget of 3", n)
	}
}

func TestMalformedResponseKeepsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ListProducts(context.Background())
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("err = %T, want *fault.Error", err)
	}
	if !strings.Contains(fe.RawBody, "not json") {
		t.Fatalf("raw body lost: %+v", fe)
	}
}
