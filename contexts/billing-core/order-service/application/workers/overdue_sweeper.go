package workers

import (
	"context"
	"log/slog"
	"time"

	application "memberhub/contexts/billing-core/order-service/application"
	"memberhub/contexts/billing-core/order-service/ports"
)

// OverdueSweeper flips sent invoices whose due date passed to overdue.
// The flip is monotonic; only payment reverses it.
type OverdueSweeper struct {
	Invoices ports.InvoiceRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (s OverdueSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	flipped, err := s.Invoices.MarkOverdueInvoices(ctx, now)
	if err != nil {
		logger.Error("overdue sweep failed",
			"event", "invoice_overdue_sweep_failed",
			"module", "billing-core/order-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if flipped > 0 {
		logger.Info("overdue sweep completed",
			"event", "invoice_overdue_sweep_completed",
			"module", "billing-core/order-service",
			"layer", "worker",
			"overdue_count", flipped,
		)
	}
	return nil
}
