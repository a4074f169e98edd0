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

type MarkInvoicePaidCommand struct {
	InvoiceID  string
	PaidAt     time.Time
	PaymentRef string
}

type MarkInvoicePaidUseCase struct {
	Invoices ports.InvoiceRepository
	Locker   ports.EntityLocker
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Execute marks a sent or overdue invoice paid. Draft, cancelled and
// refunded invoices reject the transition.
func (u MarkInvoicePaidUseCase) Execute(ctx context.Context, cmd MarkInvoicePaidCommand) (entities.Invoice, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.InvoiceID) == "" {
		return entities.Invoice{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "invoice:"+cmd.InvoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}
	defer release()

	invoice, err := u.Invoices.GetInvoice(ctx, cmd.InvoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}

	now := u.now()
	paidAt := cmd.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	if err := invoice.MarkPaid(paidAt, cmd.PaymentRef, now); err != nil {
		return entities.Invoice{}, err
	}
	if err := u.Invoices.SaveInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}

	logger.Info("invoice paid",
		"event", "invoice_paid",
		"module", "billing-core/order-service",
		"layer", "application",
		"invoice_id", invoice.InvoiceID,
		"invoice_number", invoice.InvoiceNumber,
	)
	return invoice, nil
}

func (u MarkInvoicePaidUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

type CancelInvoiceCommand struct {
	InvoiceID string
	Reason    string
}

type CancelInvoiceUseCase struct {
	Invoices ports.InvoiceRepository
	Locker   ports.EntityLocker
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Execute cancels an unpaid invoice. Paid invoices must go through refund.
func (u CancelInvoiceUseCase) Execute(ctx context.Context, cmd CancelInvoiceCommand) (entities.Invoice, error) {
	if strings.TrimSpace(cmd.InvoiceID) == "" {
		return entities.Invoice{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "invoice:"+cmd.InvoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}
	defer release()

	invoice, err := u.Invoices.GetInvoice(ctx, cmd.InvoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}

	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}
	if err := invoice.Cancel(cmd.Reason, now); err != nil {
		return entities.Invoice{}, err
	}
	if err := u.Invoices.SaveInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}

	application.ResolveLogger(u.Logger).Info("invoice cancelled",
		"event", "invoice_cancelled",
		"module", "billing-core/order-service",
		"layer", "application",
		"invoice_id", invoice.InvoiceID,
		"reason", invoice.Notes,
	)
	return invoice, nil
}

type RefundInvoiceCommand struct {
	InvoiceID string
	Reason    string
}

type RefundInvoiceUseCase struct {
	Invoices ports.InvoiceRepository
	Locker   ports.EntityLocker
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u RefundInvoiceUseCase) Execute(ctx context.Context, cmd RefundInvoiceCommand) (entities.Invoice, error) {
	if strings.TrimSpace(cmd.InvoiceID) == "" {
		return entities.Invoice{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "invoice:"+cmd.InvoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}
	defer release()

	invoice, err := u.Invoices.GetInvoice(ctx, cmd.InvoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}

	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}
	if err := invoice.MarkRefunded(cmd.Reason, now); err != nil {
		return entities.Invoice{}, err
	}
	if err := u.Invoices.SaveInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}

	application.ResolveLogger(u.Logger).Info("invoice refunded",
		"event", "invoice_refunded",
		"module", "billing-core/order-service",
		"layer", "application",
		"invoice_id", invoice.InvoiceID,
		"reason", invoice.Notes,
	)
	return invoice, nil
}
