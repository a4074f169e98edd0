// Package bootstrap is the composition root: construction and cross-service
// wiring live here so module code stays framework-agnostic.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	membershipservice "memberhub/contexts/billing-core/membership-service"
	membershipmemory "memberhub/contexts/billing-core/membership-service/adapters/memory"
	membershippostgres "memberhub/contexts/billing-core/membership-service/adapters/postgres"
	stripeadapter "memberhub/contexts/billing-core/membership-service/adapters/stripe"
	membershipworkers "memberhub/contexts/billing-core/membership-service/application/workers"
	orderservice "memberhub/contexts/billing-core/order-service"
	ordermemory "memberhub/contexts/billing-core/order-service/adapters/memory"
	orderpostgres "memberhub/contexts/billing-core/order-service/adapters/postgres"
	orderworkers "memberhub/contexts/billing-core/order-service/application/workers"
	"memberhub/contexts/billing-core/order-service/domain/entities"
	"memberhub/internal/platform/config"
	"memberhub/internal/platform/db"
	"memberhub/internal/platform/httpserver"
	"memberhub/internal/platform/messaging"
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres       *db.Postgres
	overdueSweeper orderworkers.OverdueSweeper
	outboxRelay    orderworkers.OutboxRelay
	expiryNotifier membershipworkers.ExpiryNotifier
	pollInterval   time.Duration
	logger         *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	orderModule, membershipModule := buildModules(pg, bus, cfg, logger)

	server := httpserver.New(orderModule, membershipModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	orderModule, membershipModule := buildModules(pg, bus, cfg, logger)

	return &WorkerApp{
		postgres:       pg,
		overdueSweeper: orderModule.OverdueSweeper,
		outboxRelay:    orderModule.OutboxRelay,
		expiryNotifier: membershipModule.ExpiryNotifier,
		pollInterval:   cfg.WorkerPollInterval,
		logger:         logger,
	}, nil
}

// buildModules wires both billing modules over one database connection and
// one bus. The membership module reaches the order ledger only through the
// reconciler seam.
func buildModules(
	pg *db.Postgres,
	bus *messaging.Bus,
	cfg config.Config,
	logger *slog.Logger,
) (orderservice.Module, membershipservice.Module) {
	orderRepo := orderpostgres.NewRepository(pg.DB, logger)
	orderModule := orderservice.NewModule(orderservice.Dependencies{
		Orders:         orderRepo,
		Invoices:       orderRepo,
		Outbox:         orderRepo,
		Locker:         ordermemory.NewLocker(2 * time.Second),
		Clock:          orderpostgres.SystemClock{},
		IDGenerator:    orderpostgres.UUIDGenerator{},
		Publisher:      bus,
		InvoiceDueDays: cfg.InvoiceDueDays,
		Company: entities.CompanyInfo{
			Name:    "MemberHub Inc.",
			Email:   "billing@memberhub.test",
			Address: "1 Clubhouse Way",
			Country: "US",
		},
		OutboxBatchSize: 100,
		Logger:          logger,
	})

	membershipRepo := membershippostgres.NewRepository(pg.DB, logger)
	gateway := stripeadapter.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.GatewayTimeout, logger)
	membershipModule := membershipservice.NewModule(membershipservice.Dependencies{
		Memberships:        membershipRepo,
		Dedup:              membershipRepo,
		Gateway:            gateway,
		Billing:            NewBillingReconciler(orderModule),
		Locker:             membershipmemory.NewLocker(2 * time.Second),
		Clock:              membershippostgres.SystemClock{},
		IDGenerator:        membershippostgres.UUIDGenerator{},
		Publisher:          bus,
		TeamTierPriceCents: cfg.TeamTierPriceCents,
		PeriodDays:         cfg.MembershipPeriodDays,
		Logger:             logger,
	})
	return orderModule, membershipModule
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.overdueSweeper.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.expiryNotifier.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
