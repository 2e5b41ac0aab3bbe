package store

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Subscription tiers tracked on the user record.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// User is one Telegram user known to the bot. ID is the Telegram user id.
// TokenBalance is written exclusively by the ledger.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	Role         string    `db:"role"`
	Tier         string    `db:"tier"`
	TokenBalance int64     `db:"token_balance"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Plan is a purchasable subscription plan mirroring a gateway product.
type Plan struct {
	ID            int64  `db:"id"`
	ProductID     string `db:"product_id"`
	Name          string `db:"name"`
	Description   string `db:"description"`
	PriceMinor    int64  `db:"price_minor"`
	Currency      string `db:"currency"`
	PeriodDays    int    `db:"period_days"`
	TokensGranted int64  `db:"tokens_granted"`
	Active        bool   `db:"active"`
}

// Payment request statuses. They mirror the gateway subscription statuses
// plus the local initial state.
const (
	PaymentPending  = "pending"
	PaymentActive   = "active"
	PaymentPastDue  = "past_due"
	PaymentCanceled = "canceled"
	PaymentFailed   = "failed"
)

// PaymentRequest tracks one subscription attempt. OrderID is the locally
// generated idempotency key; SubscriptionID arrives from the gateway.
type PaymentRequest struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	PlanID         int64     `db:"plan_id"`
	OrderID        string    `db:"order_id"`
	SubscriptionID string    `db:"subscription_id"`
	Status         string    `db:"status"`
	TokensGranted  bool      `db:"tokens_granted"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
