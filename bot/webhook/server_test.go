package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aibot/bot/service"
	"aibot/bot/store"
	"aibot/core/fault"
	"aibot/core/gateway"
	"aibot/core/ledger"
)

const testSecret = "callback-secret"

func newFixture(t *testing.T) (*Server, *ledger.Ledger) {
	t.Helper()
	lg := ledger.New(ledger.NewMemoryStore())
	users := store.NewMemoryUsers()
	plans := store.NewMemoryPlans(store.Plan{
		ID: 1, ProductID: "prod-1", Name: "Basic",
		PriceMinor: 49000, Currency: "RUB", PeriodDays: 30,
		TokensGranted: 1000, Active: true,
	})
	payments := store.NewMemoryPayments()

	ctx := context.Background()
	if err := users.Upsert(ctx, &store.User{ID: 7, Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	err := payments.Create(ctx, &store.PaymentRequest{
		UserID: 7, PlanID: 1, OrderID: "ord-1", Status: store.PaymentPending,
	})
	if err != nil {
		t.Fatal(err)
	}

	// status callbacks never call the gateway, so no client is wired
	billing := service.NewBilling(nil, lg, service.NewUsers(users), plans, payments)
	return New("127.0.0.1:0", testSecret, billing), lg
}

func postCallback(t *testing.T, srv *Server, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/gateway/callback", bytes.NewReader(body))
	req.Header.Set(gateway.SignatureHeader, sig)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) fault.Response {
	t.Helper()
	var resp fault.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCallbackActivatesAndGrantsOnce(t *testing.T) {
	srv, lg := newFixture(t)
	body := []byte(`{"orderId":"ord-1","subscriptionId":"sub-1","status":"active"}`)
	sig := gateway.Sign(testSecret, body)

	for i := 0; i < 3; i++ {
		rec := postCallback(t, srv, body, sig)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want 200", i, rec.Code)
		}
		if resp := decodeResponse(t, rec); !resp.Success {
			t.Fatalf("attempt %d: success = false: %+v", i, resp)
		}
	}

	view, err := lg.Read(context.Background(), 7, 10)
	if err != nil {
		t.Fatal(err)
	}
	if view.TokenBalance != 1000 {
		t.Fatalf("balance = %d, want 1000 after duplicate callbacks", view.TokenBalance)
	}
	if len(view.LastEntries) != 1 {
		t.Fatalf("entries = %d, want exactly one grant", len(view.LastEntries))
	}
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	srv, lg := newFixture(t)
	body := []byte(`{"orderId":"ord-1","status":"active"}`)

	rec := postCallback(t, srv, body, gateway.Sign("wrong-secret", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success || resp.Code != fault.KindUnauthorized {
		t.Fatalf("response = %+v, want UNAUTHORIZED failure", resp)
	}

	view, err := lg.Read(context.Background(), 7, 10)
	if err != nil {
		t.Fatal(err)
	}
	if view.TokenBalance != 0 {
		t.Fatalf("balance = %d, want 0 after rejected callback", view.TokenBalance)
	}
}

func TestCallbackUnknownOrder(t *testing.T) {
	srv, _ := newFixture(t)
	body := []byte(`{"orderId":"ord-missing","status":"active"}`)

	rec := postCallback(t, srv, body, gateway.Sign(testSecret, body))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCallbackMalformedBody(t *testing.T) {
	srv, _ := newFixture(t)
	for _, body := range [][]byte{
		[]byte(`not json`),
		[]byte(`{"status":"active"}`),
	} {
		rec := postCallback(t, srv, body, gateway.Sign(testSecret, body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}
