package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"aibot/bot/store"
	"aibot/core/fault"
	"aibot/core/gateway"
	"aibot/core/ledger"
)

type fakeGateway struct {
	consumers     []string
	subscriptions []string
	statusBy      map[string]string
	unsubscribed  []gateway.Ref
	statusErr     error
}

func (f *fakeGateway) ListProducts(ctx context.Context) ([]gateway.Product, error) {
	return []gateway.Product{{ID: "prod-1", Name: "Basic"}}, nil
}

func (f *fakeGateway) CreateConsumer(ctx context.Context, consumerID, email, phone string) (*gateway.Consumer, error) {
	f.consumers = append(f.consumers, consumerID)
	return &gateway.Consumer{ID: consumerID, Email: email}, nil
}

func (f *fakeGateway) CreateSubscription(ctx context.Context, productID, consumerID, orderID string) (*gateway.Subscription, error) {
	f.subscriptions = append(f.subscriptions, orderID)
	return &gateway.Subscription{
		ID:         "sub-" + orderID,
		OrderID:    orderID,
		ProductID:  productID,
		ConsumerID: consumerID,
		Status:     gateway.StatusPending,
		PaymentURL: "https://pay.example/" + orderID,
	}, nil
}

func (f *fakeGateway) Status(ctx context.Context, ref gateway.Ref) (*gateway.Subscription, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	status := f.statusBy[ref.String()]
	if status == "" {
		status = gateway.StatusPending
	}
	return &gateway.Subscription{ID: "sub-" + ref.String(), OrderID: ref.OrderID, Status: status}, nil
}

func (f *fakeGateway) OffsetChargeDate(ctx context.Context, ref gateway.Ref, days int) error {
	return nil
}

func (f *fakeGateway) Unsubscribe(ctx context.Context, ref gateway.Ref) error {
	f.unsubscribed = append(f.unsubscribed, ref)
	return nil
}

func newBillingFixture(t *testing.T) (*Billing, *fakeGateway, *ledger.Ledger, store.Users) {
	t.Helper()
	gw := &fakeGateway{statusBy: make(map[string]string)}
	lg := ledger.New(ledger.NewMemoryStore())
	users := store.NewMemoryUsers()
	plans := store.NewMemoryPlans(store.Plan{
		ID: 1, ProductID: "prod-1", Name: "Basic",
		PriceMinor: 49000, Currency: "RUB", PeriodDays: 30,
		TokensGranted: 1000, Active: true,
	})
	svc := NewBilling(gw, lg, NewUsers(users), plans, store.NewMemoryPayments())
	if err := users.Upsert(context.Background(), &store.User{ID: 7, Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	return svc, gw, lg, users
}

func TestSubscribeCreatesPendingRequest(t *testing.T) {
	svc, gw, _, _ := newBillingFixture(t)
	ctx := context.Background()

	req, payURL, err := svc.Subscribe(ctx, 7, 1, "alice@example.com")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if req.Status != store.PaymentPending {
		t.Fatalf("status = %s", req.Status)
	}
	if _, err := uuid.Parse(req.OrderID); err != nil {
		t.Fatalf("order id %q is not a uuid: %v", req.OrderID, err)
	}
	if payURL == "" {
		t.Fatal("payment url missing")
	}
	if len(gw.consumers) != 1 || gw.consumers[0] != "7" {
		t.Fatalf("consumers = %v", gw.consumers)
	}
	if len(gw.subscriptions) != 1 || gw.subscriptions[0] != req.OrderID {
		t.Fatalf("subscriptions = %v", gw.subscriptions)
	}
}

func TestApplyActiveGrantsTokensOnce(t *testing.T) {
	svc, _, lg, users := newBillingFixture(t)
	ctx := context.Background()

	req, _, err := svc.Subscribe(ctx, 7, 1, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// Duplicate activation callbacks must credit exactly once.
	for i := 0; i < 3; i++ {
		if err := svc.Apply(ctx, req.OrderID, gateway.StatusActive, "sub-x"); err != nil {
			t.Fatalf("Apply #%d: %v", i, err)
		}
	}

	rm, err := lg.Read(ctx, 7, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rm.TokenBalance != 1000 {
		t.Fatalf("balance = %d, want 1000", rm.TokenBalance)
	}
	if len(rm.LastEntries) != 1 || rm.LastEntries[0].Kind != ledger.KindSubscriptionGrant {
		t.Fatalf("entries = %+v", rm.LastEntries)
	}

	u, err := users.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if u.Tier != store.TierPremium {
		t.Fatalf("tier = %s, want premium", u.Tier)
	}
}

func TestApplyUnknownOrderFails(t *testing.T) {
	svc, _, _, _ := newBillingFixture(t)
	err := svc.Apply(context.Background(), "missing", gateway.StatusActive, "")
	if !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestReconcileActivatesPending(t *testing.T) {
	svc, gw, lg, _ := newBillingFixture(t)
	ctx := context.Background()

	req, _, err := svc.Subscribe(ctx, 7, 1, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	gw.statusBy[req.OrderID] = gateway.StatusActive

	if err := svc.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	rm, _ := lg.Read(ctx, 7, 1)
	if rm.TokenBalance != 1000 {
		t.Fatalf("balance = %d, want 1000 after reconcile", rm.TokenBalance)
	}

	// Activated requests leave the pending set; another run is a no-op.
	if err := svc.Reconcile(ctx); err != nil {
		t.Fatal(err)
	}
	rm, _ = lg.Read(ctx, 7, 1)
	if rm.TokenBalance != 1000 {
		t.Fatalf("balance changed on idle reconcile: %d", rm.TokenBalance)
	}
}

func TestReconcileSkipsTransientGatewayFailure(t *testing.T) {
	svc, gw, _, _ := newBillingFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Subscribe(ctx, 7, 1, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	gw.statusErr = fault.New(fault.KindServiceUnavailable, "gateway down")

	if err := svc.Reconcile(ctx); err != nil {
		t.Fatalf("transient failure must not abort reconcile: %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc, gw, _, users := newBillingFixture(t)
	ctx := context.Background()

	req, _, err := svc.Subscribe(ctx, 7, 1, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Apply(ctx, req.OrderID, gateway.StatusActive, ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.Cancel(ctx, 99, req.OrderID); !fault.IsKind(err, fault.KindValidationError) {
		t.Fatalf("foreign cancel err = %v, want VALIDATION_ERROR", err)
	}

	if err := svc.Cancel(ctx, 7, req.OrderID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(gw.unsubscribed) != 1 || gw.unsubscribed[0].SubscriptionID == "" {
		t.Fatalf("unsubscribed = %+v, want subscription ref", gw.unsubscribed)
	}
	u, _ := users.Get(ctx, 7)
	if u.Tier != store.TierFree {
		t.Fatalf("tier = %s, want free after cancel", u.Tier)
	}
}
