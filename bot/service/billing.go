// Package service wires the gateway client, the token ledger, and the
// persistence layer into the billing and user flows the handlers call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"aibot/bot/store"
	"aibot/core/fault"
	"aibot/core/gateway"
	"aibot/core/ledger"
	"aibot/core/logger"
)

const billingComponent = "service.billing"

// Gateway is the billing-provider surface the service depends on.
// *gateway.Client satisfies it.
type Gateway interface {
	ListProducts(ctx context.Context) ([]gateway.Product, error)
	CreateConsumer(ctx context.Context, consumerID, email, phone string) (*gateway.Consumer, error)
	CreateSubscription(ctx context.Context, productID, consumerID, orderID string) (*gateway.Subscription, error)
	Status(ctx context.Context, ref gateway.Ref) (*gateway.Subscription, error)
	OffsetChargeDate(ctx context.Context, ref gateway.Ref, days int) error
	Unsubscribe(ctx context.Context, ref gateway.Ref) error
}

// Billing drives the subscription lifecycle: initiate, reconcile, cancel.
type Billing struct {
	gw       Gateway
	ledger   *ledger.Ledger
	users    *Users
	plans    store.Plans
	payments store.Payments
}

// NewBilling builds the billing service.
func NewBilling(gw Gateway, lg *ledger.Ledger, users *Users, plans store.Plans, payments store.Payments) *Billing {
	return &Billing{
		gw:       gw,
		ledger:   lg,
		users:    users,
		plans:    plans,
		payments: payments,
	}
}

// Plans returns the purchasable plan catalog.
func (s *Billing) Plans(ctx context.Context) ([]store.Plan, error) {
	return s.plans.Active(ctx)
}

// Subscribe starts a subscription for the plan. A fresh orderId keys the
// gateway-side idempotency; the consumer is registered on every attempt
// since consumer creation addresses the same identity.
func (s *Billing) Subscribe(ctx context.Context, userID, planID int64, email string) (*store.PaymentRequest, string, error) {
	plan, err := s.plans.ByID(ctx, planID)
	if err != nil {
		return nil, "", err
	}

	consumerID := strconv.FormatInt(userID, 10)
	orderID := uuid.NewString()

	if _, err := s.gw.CreateConsumer(ctx, consumerID, email, ""); err != nil {
		return nil, "", fmt.Errorf("register payer: %w", err)
	}

	sub, err := s.gw.CreateSubscription(ctx, plan.ProductID, consumerID, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("create subscription: %w", err)
	}

	req := &store.PaymentRequest{
		UserID:         userID,
		PlanID:         plan.ID,
		OrderID:        orderID,
		SubscriptionID: sub.ID,
		Status:         store.PaymentPending,
	}
	if err := s.payments.Create(ctx, req); err != nil {
		return nil, "", err
	}

	logger.Info(ctx, billingComponent, "billing.subscribe",
		slog.Int64("user_id", userID),
		slog.String("plan", plan.Name),
		slog.String("order_id", orderID),
		slog.String("subscription_id", sub.ID),
	)
	return req, sub.PaymentURL, nil
}

// Apply transitions a payment request to the reported gateway status and
// credits the plan's token grant exactly once on activation.
func (s *Billing) Apply(ctx context.Context, orderID, status, subscriptionID string) error {
	req, err := s.payments.ByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	local := mapGatewayStatus(status)
	if err := s.payments.UpdateStatus(ctx, orderID, local, subscriptionID); err != nil {
		return err
	}

	logger.Info(ctx, billingComponent, "billing.status",
		slog.Int64("user_id", req.UserID),
		slog.String("order_id", orderID),
		slog.String("payment_status", local),
	)

	switch local {
	case store.PaymentActive:
		granted, err := s.payments.MarkGranted(ctx, orderID)
		if err != nil {
			return err
		}
		if !granted {
			return nil
		}
		plan, err := s.plans.ByID(ctx, req.PlanID)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, req.UserID, plan.TokensGranted, ledger.KindSubscriptionGrant); err != nil {
			return fmt.Errorf("grant tokens for %s: %w", orderID, err)
		}
		if err := s.users.Promote(ctx, req.UserID); err != nil {
			return err
		}
	case store.PaymentCanceled, store.PaymentFailed:
		if err := s.users.Demote(ctx, req.UserID); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile polls the gateway for every pending request and applies the
// reported status. Transient gateway failures skip the request; the next
// run retries it.
func (s *Billing) Reconcile(ctx context.Context) error {
	pending, err := s.payments.ListPending(ctx, 0)
	if err != nil {
		return err
	}
	for _, req := range pending {
		sub, err := s.gw.Status(ctx, gateway.ByOrder(req.OrderID))
		if err != nil {
			if fault.IsRetryable(err) {
				logger.Warn(ctx, billingComponent, "billing.reconcile.skip",
					slog.String("order_id", req.OrderID),
					slog.String("err", err.Error()),
				)
				continue
			}
			return err
		}
		if err := s.Apply(ctx, req.OrderID, sub.Status, sub.ID); err != nil {
			return err
		}
	}
	return nil
}

// Cancel unsubscribes the request's subscription and records the terminal
// state. Cancelling an already-cancelled subscription is a gateway no-op.
func (s *Billing) Cancel(ctx context.Context, userID int64, orderID string) error {
	req, err := s.payments.ByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if req.UserID != userID {
		return fault.New(fault.KindValidationError, "order does not belong to user")
	}

	ref := gateway.ByOrder(orderID)
	if req.SubscriptionID != "" {
		ref = gateway.BySubscription(req.SubscriptionID)
	}
	if err := s.gw.Unsubscribe(ctx, ref); err != nil {
		return err
	}
	return s.Apply(ctx, orderID, gateway.StatusCanceled, "")
}

// OffsetChargeDate shifts the next charge of the order's subscription.
func (s *Billing) OffsetChargeDate(ctx context.Context, orderID string, days int) error {
	req, err := s.payments.ByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	ref := gateway.ByOrder(orderID)
	if req.SubscriptionID != "" {
		ref = gateway.BySubscription(req.SubscriptionID)
	}
	return s.gw.OffsetChargeDate(ctx, ref, days)
}

// Latest returns the user's most recent payment request.
func (s *Billing) Latest(ctx context.Context, userID int64) (*store.PaymentRequest, error) {
	return s.payments.LatestByUser(ctx, userID)
}

// Balance returns the ledger read model for billing displays.
func (s *Billing) Balance(ctx context.Context, userID int64, lastEntries int) (ledger.ReadModel, error) {
	return s.ledger.Read(ctx, userID, lastEntries)
}

func mapGatewayStatus(status string) string {
	switch status {
	case gateway.StatusActive:
		return store.PaymentActive
	case gateway.StatusPastDue:
		return store.PaymentPastDue
	case gateway.StatusCanceled:
		return store.PaymentCanceled
	case gateway.StatusPending, "":
		return store.PaymentPending
	default:
		return store.PaymentFailed
	}
}
