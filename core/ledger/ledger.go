// Package ledger keeps per-user token balances with an append-only audit
// trail. The ledger is the sole writer of a user's balance; every mutation
// goes through Debit or Credit under a per-user mutual-exclusion scope.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"aibot/core/fault"
	"aibot/core/logger"
	"log/slog"
)

// Store persists balances and entries. Append must write the entry and the
// new balance in one atomic unit; a failure must leave neither behind.
type Store interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Append(ctx context.Context, entry Entry) (Entry, error)
	LastEntries(ctx context.Context, userID int64, limit int) ([]Entry, error)
}

// Ledger serializes balance mutations per user on top of a Store.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New constructs a Ledger over the given store.
func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) userLock(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

// Debit atomically subtracts amount from the user's balance and appends one
// entry. An underfunded debit fails with INSUFFICIENT_TOKENS and writes
// nothing.
func (l *Ledger) Debit(ctx context.Context, userID, amount int64, kind Kind) (Entry, error) {
	if amount <= 0 {
		return Entry{}, fault.New(fault.KindValidationError, fmt.Sprintf("debit amount must be positive, got %d", amount))
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.store.Balance(ctx, userID)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: read balance: %w", err)
	}
	if balance < amount {
		logger.Info(ctx, "ledger", "ledger.debit.rejected",
			slog.Int64("user_id", userID),
			slog.Int64("amount", amount),
			slog.Int64("balance", balance),
			slog.String("kind", string(kind)),
		)
		return Entry{}, fault.New(fault.KindInsufficientTokens, "insufficient token balance")
	}

	entry, err := l.append(ctx, Entry{
		UserID:        userID,
		Delta:         -amount,
		BalanceBefore: balance,
		BalanceAfter:  balance - amount,
		Kind:          kind,
	})
	if err != nil {
		return Entry{}, err
	}

	logger.Info(ctx, "ledger", "ledger.debit",
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount),
		slog.Int64("balance_before", entry.BalanceBefore),
		slog.Int64("balance_after", entry.BalanceAfter),
		slog.String("kind", string(kind)),
	)
	return entry, nil
}

// Credit atomically adds amount to the user's balance and appends one entry.
// It fails only on invalid amounts, storage faults, or numeric overflow.
func (l *Ledger) Credit(ctx context.Context, userID, amount int64, kind Kind) (Entry, error) {
	if amount <= 0 {
		return Entry{}, fault.New(fault.KindValidationError, fmt.Sprintf("credit amount must be positive, got %d", amount))
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.store.Balance(ctx, userID)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: read balance: %w", err)
	}
	if balance > math.MaxInt64-amount {
		return Entry{}, fmt.Errorf("ledger: balance overflow for user %d", userID)
	}

	entry, err := l.append(ctx, Entry{
		UserID:        userID,
		Delta:         amount,
		BalanceBefore: balance,
		BalanceAfter:  balance + amount,
		Kind:          kind,
	})
	if err != nil {
		return Entry{}, err
	}

	logger.Info(ctx, "ledger", "ledger.credit",
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount),
		slog.Int64("balance_before", entry.BalanceBefore),
		slog.Int64("balance_after", entry.BalanceAfter),
		slog.String("kind", string(kind)),
	)
	return entry, nil
}

func (l *Ledger) append(ctx context.Context, entry Entry) (Entry, error) {
	entry.CreatedAt = time.Now().UTC()
	written, err := l.store.Append(ctx, entry)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: append entry: %w", err)
	}
	return written, nil
}

// Read returns the balance together with the most recent entries.
func (l *Ledger) Read(ctx context.Context, userID int64, limit int) (ReadModel, error) {
	if limit <= 0 {
		limit = 10
	}
	balance, err := l.store.Balance(ctx, userID)
	if err != nil {
		return ReadModel{}, fmt.Errorf("ledger: read balance: %w", err)
	}
	entries, err := l.store.LastEntries(ctx, userID, limit)
	if err != nil {
		return ReadModel{}, fmt.Errorf("ledger: read entries: %w", err)
	}
	return ReadModel{TokenBalance: balance, LastEntries: entries}, nil
}
