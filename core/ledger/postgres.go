package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"aibot/core/fault"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a Store over the users and ledger_entries
// tables. The users row must already exist; creating users is the user
// service's job.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// Balance reads the committed balance for a user.
func (s *postgresStore) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.db.GetContext(ctx, &balance,
		`SELECT token_balance FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fault.New(fault.KindNotFound, fmt.Sprintf("user %d not found", userID))
	}
	if err != nil {
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return balance, nil
}

// Append writes the entry and the new balance in one transaction. The row
// lock on users keeps the snapshot consistent even if a second process
// bypasses the in-process per-user lock.
func (s *postgresStore) Append(ctx context.Context, entry Entry) (Entry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	if err := tx.GetContext(ctx, &current,
		`SELECT token_balance FROM users WHERE id = $1 FOR UPDATE`, entry.UserID); err != nil {
		return Entry{}, fmt.Errorf("lock balance: %w", err)
	}
	if current != entry.BalanceBefore {
		return Entry{}, fmt.Errorf("balance moved under entry: have %d, snapshot %d", current, entry.BalanceBefore)
	}

	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO ledger_entries (user_id, delta, balance_before, balance_after, kind, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		entry.UserID, entry.Delta, entry.BalanceBefore, entry.BalanceAfter, entry.Kind, entry.CreatedAt,
	).Scan(&entry.ID); err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET token_balance = $1 WHERE id = $2`,
		entry.BalanceAfter, entry.UserID); err != nil {
		return Entry{}, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

// LastEntries returns up to limit entries, newest first.
func (s *postgresStore) LastEntries(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT id, user_id, delta, balance_before, balance_after, kind, created_at
		 FROM ledger_entries
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}
