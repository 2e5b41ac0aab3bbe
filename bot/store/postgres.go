package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"aibot/core/fault"
)

type postgresUsers struct {
	db *sqlx.DB
}

// NewPostgresUsers builds the Postgres-backed user store.
func NewPostgresUsers(db *sqlx.DB) Users {
	return &postgresUsers{db: db}
}

func (s *postgresUsers) Upsert(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO users (id, username, first_name, role, tier, token_balance)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    updated_at = now()
		RETURNING role, tier, token_balance, created_at, updated_at`
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	tier := u.Tier
	if tier == "" {
		tier = TierFree
	}
	row := s.db.QueryRowxContext(ctx, query, u.ID, u.Username, u.FirstName, role, tier)
	if err := row.Scan(&u.Role, &u.Tier, &u.TokenBalance, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

func (s *postgresUsers) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("user %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return &u, nil
}

func (s *postgresUsers) SetTier(ctx context.Context, id int64, tier string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET tier = $1, updated_at = now() WHERE id = $2`, tier, id); err != nil {
		return fmt.Errorf("set tier for user %d: %w", id, err)
	}
	return nil
}

func (s *postgresUsers) SetRole(ctx context.Context, id int64, role string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, role, id); err != nil {
		return fmt.Errorf("set role for user %d: %w", id, err)
	}
	return nil
}

type postgresPlans struct {
	db *sqlx.DB
}

// NewPostgresPlans builds the Postgres-backed plan catalog.
func NewPostgresPlans(db *sqlx.DB) Plans {
	return &postgresPlans{db: db}
}

func (s *postgresPlans) Active(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.db.SelectContext(ctx, &plans, `SELECT * FROM plans WHERE active ORDER BY price_minor`); err != nil {
		return nil, fmt.Errorf("select active plans: %w", err)
	}
	return plans, nil
}

func (s *postgresPlans) ByID(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	err := s.db.GetContext(ctx, &p, `SELECT * FROM plans WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("plan %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("select plan %d: %w", id, err)
	}
	return &p, nil
}

func (s *postgresPlans) ByProductID(ctx context.Context, productID string) (*Plan, error) {
	var p Plan
	err := s.db.GetContext(ctx, &p, `SELECT * FROM plans WHERE product_id = $1`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("plan for product %s not found", productID))
	}
	if err != nil {
		return nil, fmt.Errorf("select plan by product %s: %w", productID, err)
	}
	return &p, nil
}

type postgresPayments struct {
	db *sqlx.DB
}

// NewPostgresPayments builds the Postgres-backed payment request store.
func NewPostgresPayments(db *sqlx.DB) Payments {
	return &postgresPayments{db: db}
}

func (s *postgresPayments) Create(ctx context.Context, p *PaymentRequest) error {
	const query = `
		INSERT INTO payment_requests (user_id, plan_id, order_id, subscription_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	row := s.db.QueryRowxContext(ctx, query, p.UserID, p.PlanID, p.OrderID, p.SubscriptionID, p.Status)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert payment request %s: %w", p.OrderID, err)
	}
	return nil
}

func (s *postgresPayments) ByOrderID(ctx context.Context, orderID string) (*PaymentRequest, error) {
	var p PaymentRequest
	err := s.db.GetContext(ctx, &p, `SELECT * FROM payment_requests WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("payment request %s not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("select payment request %s: %w", orderID, err)
	}
	return &p, nil
}

func (s *postgresPayments) LatestByUser(ctx context.Context, userID int64) (*PaymentRequest, error) {
	var p PaymentRequest
	const query = `SELECT * FROM payment_requests WHERE user_id = $1 ORDER BY id DESC LIMIT 1`
	err := s.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, fmt.Sprintf("no payment requests for user %d", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("select latest payment request for user %d: %w", userID, err)
	}
	return &p, nil
}

func (s *postgresPayments) ListPending(ctx context.Context, limit int) ([]PaymentRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []PaymentRequest
	const query = `SELECT * FROM payment_requests WHERE status = $1 ORDER BY id LIMIT $2`
	if err := s.db.SelectContext(ctx, &out, query, PaymentPending, limit); err != nil {
		return nil, fmt.Errorf("select pending payment requests: %w", err)
	}
	return out, nil
}

func (s *postgresPayments) UpdateStatus(ctx context.Context, orderID, status, subscriptionID string) error {
	const query = `
		UPDATE payment_requests
		SET status = $2,
		    subscription_id = CASE WHEN $3 <> '' THEN $3 ELSE subscription_id END,
		    updated_at = now()
		WHERE order_id = $1`
	res, err := s.db.ExecContext(ctx, query, orderID, status, subscriptionID)
	if err != nil {
		return fmt.Errorf("update payment request %s: %w", orderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.New(fault.KindNotFound, fmt.Sprintf("payment request %s not found", orderID))
	}
	return nil
}

func (s *postgresPayments) MarkGranted(ctx context.Context, orderID string) (bool, error) {
	const query = `
		UPDATE payment_requests
		SET tokens_granted = TRUE, updated_at = now()
		WHERE order_id = $1 AND NOT tokens_granted`
	res, err := s.db.ExecContext(ctx, query, orderID)
	if err != nil {
		return false, fmt.Errorf("mark granted %s: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark granted %s: %w", orderID, err)
	}
	return n == 1, nil
}
