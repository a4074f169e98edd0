package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "memberhub/contexts/billing-core/order-service/application"
	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"
)

type RefundOrderCommand struct {
	OrderID string
	Reason  string
}

// RefundOrderUseCase marks a completed order refunded and cascades to the
// linked invoice when one was issued. The money movement itself belongs to
// the membership orchestrator; this records the billing-side outcome.
type RefundOrderUseCase struct {
	Orders   ports.OrderRepository
	Invoices ports.InvoiceRepository
	Locker   ports.EntityLocker
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u RefundOrderUseCase) Execute(ctx context.Context, cmd RefundOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OrderID) == "" {
		return entities.Order{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "order:"+cmd.OrderID)
	if err != nil {
		return entities.Order{}, err
	}
	defer release()

	order, err := u.Orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return entities.Order{}, err
	}

	now := u.now()
	if err := order.MarkRefunded(cmd.Reason, now); err != nil {
		return entities.Order{}, err
	}
	if err := u.Orders.SaveOrder(ctx, order); err != nil {
		return entities.Order{}, err
	}

	invoice, found, err := u.Invoices.GetInvoiceByOrder(ctx, order.OrderID)
	if err != nil {
		return entities.Order{}, err
	}
	if found {
		if err := invoice.MarkRefunded(cmd.Reason, now); err == nil {
			if err := u.Invoices.SaveInvoice(ctx, invoice); err != nil {
				return entities.Order{}, err
			}
		} else {
			// Draft or cancelled linked invoices stay as they are; only a
			// paid invoice mirrors the refund.
			logger.Warn("linked invoice not refundable",
				"event", "order_refund_invoice_skipped",
				"module", "billing-core/order-service",
				"layer", "application",
				"order_id", order.OrderID,
				"invoice_id", invoice.InvoiceID,
				"invoice_status", string(invoice.Status),
			)
		}
	}

	logger.Info("order refunded",
		"event", "order_refunded",
		"module", "billing-core/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"reason", order.Notes,
	)
	return order, nil
}

func (u RefundOrderUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
