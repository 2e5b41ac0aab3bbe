package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"aibot/core/logger"
	"log/slog"
)

// DefaultPlans is the catalog loaded on a fresh database. ProductID ties a
// plan to the gateway-side product; seeding never overwrites edits made in
// the database afterwards.
var DefaultPlans = []Plan{
	{
		ProductID:     "prod-basic",
		Name:          "Basic",
		Description:   "Entry plan for occasional generations.",
		PriceMinor:    49000,
		Currency:      "RUB",
		PeriodDays:    30,
		TokensGranted: 1000,
		Active:        true,
	},
	{
		ProductID:     "prod-pro",
		Name:          "Pro",
		Description:   "For daily use across every mode.",
		PriceMinor:    149000,
		Currency:      "RUB",
		PeriodDays:    30,
		TokensGranted: 5000,
		Active:        true,
	},
}

// SeedPlans inserts the default plan catalog, skipping products that
// already exist.
func SeedPlans(ctx context.Context, db *sqlx.DB) error {
	const q = `
		INSERT INTO plans (product_id, name, description, price_minor, currency, period_days, tokens_granted, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id) DO NOTHING`

	inserted := 0
	for _, p := range DefaultPlans {
		res, err := db.ExecContext(ctx, q,
			p.ProductID, p.Name, p.Description, p.PriceMinor,
			p.Currency, p.PeriodDays, p.TokensGranted, p.Active,
		)
		if err != nil {
			return fmt.Errorf("seed plan %s: %w", p.ProductID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	logger.Info(ctx, "store", "plans.seeded",
		slog.Int("inserted", inserted),
		slog.Int("catalog", len(DefaultPlans)),
	)
	return nil
}
