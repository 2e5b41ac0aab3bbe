package ledger

import "time"

// Kind labels the reason for a balance mutation.
type Kind string

const (
	KindPurchase          Kind = "purchase"
	KindSubscriptionGrant Kind = "subscription-grant"
	KindRefund            Kind = "refund"
)

// SpendKind builds the spend kind for a provider, e.g. "spend-image-gen".
func SpendKind(provider string) Kind {
	return Kind("spend-" + provider)
}

// Entry is one immutable balance mutation with before/after snapshots.
// BalanceAfter is always BalanceBefore + Delta and equals the user's
// balance at commit time.
type Entry struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Delta         int64     `db:"delta"`
	BalanceBefore int64     `db:"balance_before"`
	BalanceAfter  int64     `db:"balance_after"`
	Kind          Kind      `db:"kind"`
	CreatedAt     time.Time `db:"created_at"`
}

// ReadModel is the balance view exposed to billing handlers.
type ReadModel struct {
	TokenBalance int64
	LastEntries  []Entry
}
