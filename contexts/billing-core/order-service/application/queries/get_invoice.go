package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"
)

type GetInvoiceUseCase struct {
	Invoices ports.InvoiceRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Execute returns the invoice with its overdue state derived lazily: a sent
// invoice past its due date reads as overdue even before the sweep ran.
func (u GetInvoiceUseCase) Execute(ctx context.Context, invoiceID string) (entities.Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return entities.Invoice{}, domainerrors.ErrValidation
	}
	invoice, err := u.Invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return entities.Invoice{}, err
	}
	invoice.Status = invoice.EffectiveStatus(u.now())
	return invoice, nil
}

func (u GetInvoiceUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

type ListInvoicesByUserUseCase struct {
	Invoices ports.InvoiceRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u ListInvoicesByUserUseCase) Execute(ctx context.Context, userID string) ([]entities.Invoice, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrValidation
	}
	items, err := u.Invoices.ListInvoicesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}
	for idx := range items {
		items[idx].Status = items[idx].EffectiveStatus(now)
	}
	return items, nil
}

type InvoiceStatusCountsUseCase struct {
	Invoices ports.InvoiceRepository
	Logger   *slog.Logger
}

func (u InvoiceStatusCountsUseCase) Execute(ctx context.Context) (map[entities.InvoiceStatus]int, error) {
	return u.Invoices.InvoiceStatusCounts(ctx)
}
