package bot

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"aibot/bot/ai"
	"aibot/bot/handlers"
	"aibot/bot/service"
	"aibot/bot/store"
	"aibot/bot/webhook"
	"aibot/core/bootstrap"
	"aibot/core/gateway"
	"aibot/core/ledger"
	"aibot/core/logger"
	"aibot/core/session"
	"aibot/core/telegram"
	"aibot/core/telegram/router"
)

const appComponent = "app"

// App holds the assembled application.
type App struct {
	cfg *Config
	db  *sqlx.DB

	sessions session.Manager
	billing  *service.Billing
	set      *handlers.Set
	callback *webhook.Server

	bgCancel context.CancelFunc
}

// Bootstrap initializes infrastructure and builds every service the bot
// needs. The plan catalog is seeded right after migrations.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Seeders: []bootstrap.Seeder{
			bootstrap.SeederFunc(store.SeedPlans),
		},
	})
	if err != nil {
		return nil, err
	}
	db := res.DB

	users := service.NewUsers(store.NewPostgresUsers(db))
	plans := store.NewPostgresPlans(db)
	payments := store.NewPostgresPayments(db)
	lg := ledger.New(ledger.NewPostgresStore(db))

	gw := gateway.New(cfg.Core.Gateway)
	billing := service.NewBilling(gw, lg, users, plans, payments)
	sessions := session.NewMemoryManager()

	deps := handlers.Deps{
		Sessions:    sessions,
		Ledger:      lg,
		Billing:     billing,
		Users:       users,
		Gen:         ai.New(cfg.Core.AI),
		Costs:       cfg.Core.Billing.Costs,
		LastEntries: cfg.Core.Billing.LastEntries,
	}

	app := &App{
		cfg:      cfg,
		db:       db,
		sessions: sessions,
		billing:  billing,
		set:      handlers.NewSet(deps),
	}
	if listen := cfg.Core.Callback.Listen; listen != "" {
		app.callback = webhook.New(listen, cfg.Core.Gateway.Secret, billing)
	}
	return app, nil
}

// TelegramRunOptions wires the registry, routes, and lifecycle hooks.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	cfg := a.cfg.CoreConfig()

	reg := telegram.NewRegistry()
	a.set.Register(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.sessions, reg, router.TextOptions{})...)

	return telegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ telegram.Runtime) error {
	bg, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel

	if a.callback != nil {
		go func() {
			if err := a.callback.Start(); err != nil {
				logger.Error(bg, appComponent, "callback.listener.failed",
					slog.String("err", err.Error()),
				)
			}
		}()
	}
	go a.reconcileLoop(bg)
	return nil
}

func (a *App) onStop(ctx context.Context, _ telegram.Runtime) error {
	if a.bgCancel != nil {
		a.bgCancel()
	}
	if a.callback != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.callback.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, appComponent, "callback.shutdown.failed",
				slog.String("err", err.Error()),
			)
		}
	}
	return a.db.Close()
}

// reconcileLoop periodically polls the gateway for pending payment
// requests that never delivered a callback.
func (a *App) reconcileLoop(ctx context.Context) {
	interval := a.cfg.Core.Billing.ReconcileInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.billing.Reconcile(ctx); err != nil {
				logger.Warn(ctx, appComponent, "billing.reconcile.failed",
					slog.String("err", err.Error()),
				)
			}
		}
	}
}
