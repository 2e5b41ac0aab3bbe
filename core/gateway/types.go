package gateway

import "aibot/core/fault"

// Product is one recurring plan offered by the provider.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	PeriodDays  int    `json:"periodDays"`
}

// Consumer is a registered payer identity.
type Consumer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Subscription statuses reported by the provider.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// Subscription is the provider's record of a recurring charge.
type Subscription struct {
	ID           string `json:"id"`
	OrderID      string `json:"orderId"`
	ProductID    string `json:"productId"`
	ConsumerID   string `json:"consumerId"`
	Status       string `json:"status"`
	PaymentURL   string `json:"paymentUrl,omitempty"`
	NextChargeAt string `json:"nextChargeAt,omitempty"`
}

// Ref addresses an existing subscription by exactly one of its
// identifiers. The provider rejects requests carrying both.
type Ref struct {
	SubscriptionID string
	OrderID        string
}

// BySubscription addresses a subscription by the provider-issued id.
func BySubscription(id string) Ref { return Ref{SubscriptionID: id} }

// ByOrder addresses a subscription by the caller-supplied order id.
func ByOrder(id string) Ref { return Ref{OrderID: id} }

func (r Ref) validate() error {
	if (r.SubscriptionID == "") == (r.OrderID == "") {
		return fault.New(fault.KindValidationError, "exactly one of subscriptionId or orderId is required")
	}
	return nil
}

func (r Ref) apply(p *payload) {
	if r.SubscriptionID != "" {
		p.Str("subscriptionId", r.SubscriptionID)
		return
	}
	p.Str("orderId", r.OrderID)
}

// String returns whichever identifier is set, for logging.
func (r Ref) String() string {
	if r.SubscriptionID != "" {
		return r.SubscriptionID
	}
	return r.OrderID
}
