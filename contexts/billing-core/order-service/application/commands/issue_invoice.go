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

type IssueInvoiceCommand struct {
	OrderID string
}

type IssueInvoiceResult struct {
	Invoice entities.Invoice
	Created bool
}

type IssueInvoiceUseCase struct {
	Orders      ports.OrderRepository
	Invoices    ports.InvoiceRepository
	Locker      ports.EntityLocker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	DueInDays   int
	Company     entities.CompanyInfo
	Logger      *slog.Logger
}

// Execute issues an invoice from an order, snapshotting line items and the
// billing address at call time. Idempotent per order: repeated calls return
// the existing invoice instead of duplicating it.
func (u IssueInvoiceUseCase) Execute(ctx context.Context, cmd IssueInvoiceCommand) (IssueInvoiceResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OrderID) == "" {
		return IssueInvoiceResult{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "order:"+cmd.OrderID)
	if err != nil {
		return IssueInvoiceResult{}, err
	}
	defer release()

	existing, found, err := u.Invoices.GetInvoiceByOrder(ctx, cmd.OrderID)
	if err != nil {
		return IssueInvoiceResult{}, err
	}
	if found {
		return IssueInvoiceResult{Invoice: existing, Created: false}, nil
	}

	order, err := u.Orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return IssueInvoiceResult{}, err
	}

	now := u.now()
	invoiceID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return IssueInvoiceResult{}, err
	}
	sequence, err := u.Invoices.NextInvoiceNumber(ctx, now.Year())
	if err != nil {
		return IssueInvoiceResult{}, err
	}

	dueInDays := u.DueInDays
	if dueInDays <= 0 {
		dueInDays = 30
	}
	invoice, err := entities.NewInvoiceFromOrder(
		invoiceID,
		entities.FormatInvoiceNumber(now.Year(), sequence),
		order,
		now.AddDate(0, 0, dueInDays),
		u.Company,
		now,
	)
	if err != nil {
		return IssueInvoiceResult{}, err
	}

	if err := u.Invoices.CreateInvoice(ctx, invoice); err != nil {
		// A concurrent issue may have won the unique order_id index; surface
		// the winner rather than an error.
		if winner, ok, lookupErr := u.Invoices.GetInvoiceByOrder(ctx, cmd.OrderID); lookupErr == nil && ok {
			return IssueInvoiceResult{Invoice: winner, Created: false}, nil
		}
		return IssueInvoiceResult{}, err
	}

	order.InvoiceID = invoice.InvoiceID
	if err := u.Orders.SaveOrder(ctx, order); err != nil {
		return IssueInvoiceResult{}, err
	}

	logger.Info("invoice issued",
		"event", "invoice_issued",
		"module", "billing-core/order-service",
		"layer", "application",
		"invoice_id", invoice.InvoiceID,
		"invoice_number", invoice.InvoiceNumber,
		"order_id", order.OrderID,
	)
	return IssueInvoiceResult{Invoice: invoice, Created: true}, nil
}

func (u IssueInvoiceUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

type CreateInvoiceCommand struct {
	Currency       string
	Items          []OrderItemInput
	Tax            string
	Discount       string
	UserID         string
	DueDate        time.Time
	BillingAddress entities.BillingAddress
	Notes          string
}

// CreateInvoiceUseCase issues an ad-hoc invoice with no backing order.
type CreateInvoiceUseCase struct {
	Invoices    ports.InvoiceRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	DueInDays   int
	Company     entities.CompanyInfo
	Logger      *slog.Logger
}

func (u CreateInvoiceUseCase) Execute(ctx context.Context, cmd CreateInvoiceCommand) (entities.Invoice, error) {
	if len(cmd.Items) == 0 {
		return entities.Invoice{}, domainerrors.ErrValidation
	}

	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}

	items := make([]entities.InvoiceItem, 0, len(cmd.Items))
	for _, input := range cmd.Items {
		price, err := entities.ParseMoney(input.UnitPrice, cmd.Currency)
		if err != nil {
			return entities.Invoice{}, domainerrors.ErrValidation
		}
		itemID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return entities.Invoice{}, err
		}
		items = append(items, entities.InvoiceItem{
			ItemID:      itemID,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   price,
			ReferenceID: input.ReferenceID,
		})
	}

	tax, err := parseOptionalAmount(cmd.Tax, cmd.Currency)
	if err != nil {
		return entities.Invoice{}, err
	}
	discount, err := parseOptionalAmount(cmd.Discount, cmd.Currency)
	if err != nil {
		return entities.Invoice{}, err
	}

	invoiceID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Invoice{}, err
	}
	sequence, err := u.Invoices.NextInvoiceNumber(ctx, now.Year())
	if err != nil {
		return entities.Invoice{}, err
	}

	dueDate := cmd.DueDate
	if dueDate.IsZero() {
		dueInDays := u.DueInDays
		if dueInDays <= 0 {
			dueInDays = 30
		}
		dueDate = now.AddDate(0, 0, dueInDays)
	}

	invoice, err := entities.NewInvoice(
		invoiceID,
		entities.FormatInvoiceNumber(now.Year(), sequence),
		cmd.Currency,
		items,
		tax,
		discount,
		cmd.UserID,
		dueDate,
		cmd.BillingAddress,
		u.Company,
		cmd.Notes,
		now,
	)
	if err != nil {
		return entities.Invoice{}, err
	}

	if err := u.Invoices.CreateInvoice(ctx, invoice); err != nil {
		return entities.Invoice{}, err
	}

	application.ResolveLogger(u.Logger).Info("invoice created",
		"event", "invoice_created",
		"module", "billing-core/order-service",
		"layer", "application",
		"invoice_id", invoice.InvoiceID,
		"invoice_number", invoice.InvoiceNumber,
	)
	return invoice, nil
}
