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

const invoiceSentEventType = "invoice.sent"

type SendInvoiceCommand struct {
	InvoiceID string
}

type SendInvoiceResult struct {
	Invoice entities.Invoice
	Sent    bool // false when the call was an idempotent no-op
}

type SendInvoiceUseCase struct {
	Invoices    ports.InvoiceRepository
	Locker      ports.EntityLocker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute sends a draft invoice. The outbound notification is an outbox row
// relayed by the worker, so it is written exactly once: re-sending an
// already-sent or paid invoice succeeds without a second notification.
func (u SendInvoiceUseCase) Execute(ctx context.Context, cmd SendInvoiceCommand) (SendInvoiceResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.InvoiceID) == "" {
		return SendInvoiceResult{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "invoice:"+cmd.InvoiceID)
	if err != nil {
		return SendInvoiceResult{}, err
	}
	defer release()

	invoice, err := u.Invoices.GetInvoice(ctx, cmd.InvoiceID)
	if err != nil {
		return SendInvoiceResult{}, err
	}

	now := u.now()
	changed, err := invoice.Send(now)
	if err != nil {
		return SendInvoiceResult{}, err
	}
	if !changed {
		return SendInvoiceResult{Invoice: invoice, Sent: false}, nil
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SendInvoiceResult{}, err
	}
	event := ports.OutboxEvent{
		EventID:    eventID,
		EventType:  invoiceSentEventType,
		EntityType: "invoice",
		EntityID:   invoice.InvoiceID,
		OccurredAt: now,
		Payload: map[string]string{
			"invoice_id":     invoice.InvoiceID,
			"invoice_number": invoice.InvoiceNumber,
			"recipient":      invoice.Billing.Email,
			"total":          invoice.Total.String(),
			"currency":       invoice.Currency,
			"due_date":       invoice.DueDate.Format(time.RFC3339),
		},
	}
	if err := u.Invoices.SaveInvoiceWithOutbox(ctx, invoice, event); err != nil {
		return SendInvoiceResult{}, err
	}

	logger.Info("invoice sent",
		"event", "invoice_sent",
		"module", "billing-core/order-service",
		"layer", "application",
		"invoice_id", invoice.InvoiceID,
		"invoice_number", invoice.InvoiceNumber,
	)
	return SendInvoiceResult{Invoice: invoice, Sent: true}, nil
}

func (u SendInvoiceUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
