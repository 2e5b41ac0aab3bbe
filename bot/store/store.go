// Package store holds the persistence layer for users, plans, and payment
// requests. Postgres implementations back production; memory implementations
// back tests and development.
package store

import "context"

// Users persists Telegram user records.
type Users interface {
	// Upsert inserts the user on first contact or refreshes mutable fields.
	Upsert(ctx context.Context, u *User) error
	Get(ctx context.Context, id int64) (*User, error)
	SetTier(ctx context.Context, id int64, tier string) error
	SetRole(ctx context.Context, id int64, role string) error
}

// Plans reads the subscription plan catalog.
type Plans interface {
	Active(ctx context.Context) ([]Plan, error)
	ByID(ctx context.Context, id int64) (*Plan, error)
	ByProductID(ctx context.Context, productID string) (*Plan, error)
}

// Payments persists subscription payment requests.
type Payments interface {
	Create(ctx context.Context, p *PaymentRequest) error
	ByOrderID(ctx context.Context, orderID string) (*PaymentRequest, error)
	// LatestByUser returns the user's most recent request.
	LatestByUser(ctx context.Context, userID int64) (*PaymentRequest, error)
	ListPending(ctx context.Context, limit int) ([]PaymentRequest, error)
	// UpdateStatus sets status and, when non-empty, the subscription id.
	UpdateStatus(ctx context.Context, orderID, status, subscriptionID string) error
	// MarkGranted flips tokens_granted once. It reports true only for the
	// call that performed the flip, so token grants happen exactly once
	// even under duplicate callbacks.
	MarkGranted(ctx context.Context, orderID string) (bool, error)
}
