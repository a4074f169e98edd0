package entities

import (
	"fmt"
	"strings"
	"time"

	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusRefunded  InvoiceStatus = "refunded"
)

// CompanyInfo is the issuer block snapshotted onto every invoice.
type CompanyInfo struct {
	Name    string
	Email   string
	Address string
	Country string
}

type InvoiceItem struct {
	ItemID      string
	Description string
	Quantity    int
	UnitPrice   Money
	Total       Money
	ReferenceID string
}

type Invoice struct {
	InvoiceID     string
	InvoiceNumber string
	OrderID       string // empty for ad-hoc invoices
	UserID        string
	Items         []InvoiceItem
	Subtotal      Money
	Tax           Money
	Discount      Money
	Total         Money
	Currency      string
	Status        InvoiceStatus
	DueDate       time.Time
	SentAt        *time.Time
	PaidAt        *time.Time
	PaymentRef    string
	Notes         string
	Billing       BillingAddress
	Company       CompanyInfo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewInvoiceFromOrder snapshots an order's line items and billing address.
// An invoice cut from an already-completed order is born paid, mirroring how
// checkout-driven invoices work: the money moved before the document existed.
func NewInvoiceFromOrder(
	invoiceID string,
	invoiceNumber string,
	order Order,
	dueDate time.Time,
	company CompanyInfo,
	now time.Time,
) (Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" || strings.TrimSpace(invoiceNumber) == "" {
		return Invoice{}, domainerrors.ErrValidation
	}

	items := make([]InvoiceItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, InvoiceItem{
			ItemID:      item.ItemID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
			ReferenceID: item.ReferenceID,
		})
	}

	invoice := Invoice{
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		OrderID:       order.OrderID,
		UserID:        order.UserID,
		Items:         items,
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		Discount:      order.Discount,
		Total:         order.Total,
		Currency:      order.Currency,
		Status:        InvoiceStatusDraft,
		DueDate:       dueDate.UTC(),
		Notes:         order.Notes,
		Billing:       order.Billing,
		Company:       company,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}

	if order.Status == OrderStatusCompleted {
		paidAt := now.UTC()
		invoice.Status = InvoiceStatusPaid
		invoice.PaidAt = &paidAt
		invoice.PaymentRef = order.PaymentRef
	}
	return invoice, nil
}

// NewInvoice builds an ad-hoc invoice with no backing order.
func NewInvoice(
	invoiceID string,
	invoiceNumber string,
	currency string,
	items []InvoiceItem,
	tax Money,
	discount Money,
	userID string,
	dueDate time.Time,
	billing BillingAddress,
	company CompanyInfo,
	notes string,
	now time.Time,
) (Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" || strings.TrimSpace(invoiceNumber) == "" {
		return Invoice{}, domainerrors.ErrValidation
	}
	if len(items) == 0 {
		return Invoice{}, domainerrors.ErrValidation
	}

	currency = normalizeCurrency(currency)
	subtotal := Money{Currency: currency}
	normalized := make([]InvoiceItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity <= 0 {
			return Invoice{}, domainerrors.ErrValidation
		}
		if item.UnitPrice.IsNegative() {
			return Invoice{}, domainerrors.ErrValidation
		}
		if item.UnitPrice.Currency != currency {
			return Invoice{}, domainerrors.ErrMoneyMismatch
		}
		item.Total = item.UnitPrice.MulQuantity(item.Quantity)
		var err error
		subtotal, err = subtotal.Add(item.Total)
		if err != nil {
			return Invoice{}, err
		}
		normalized = append(normalized, item)
	}

	if tax.Currency == "" {
		tax = Money{Currency: currency}
	}
	if discount.Currency == "" {
		discount = Money{Currency: currency}
	}
	if tax.IsNegative() || discount.IsNegative() {
		return Invoice{}, domainerrors.ErrValidation
	}
	total, err := computeTotal(subtotal, tax, discount)
	if err != nil {
		return Invoice{}, err
	}

	return Invoice{
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		UserID:        strings.TrimSpace(userID),
		Items:         normalized,
		Subtotal:      subtotal,
		Tax:           tax,
		Discount:      discount,
		Total:         total,
		Currency:      currency,
		Status:        InvoiceStatusDraft,
		DueDate:       dueDate.UTC(),
		Billing:       billing,
		Company:       company,
		Notes:         strings.TrimSpace(notes),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

// Send moves draft to sent and stamps sentAt. Re-sending a sent or paid
// invoice is a no-op success so UI retries stay harmless.
func (i *Invoice) Send(now time.Time) (changed bool, err error) {
	switch i.Status {
	case InvoiceStatusDraft:
		sentAt := now.UTC()
		i.Status = InvoiceStatusSent
		i.SentAt = &sentAt
		i.UpdatedAt = sentAt
		return true, nil
	case InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return false, nil
	case InvoiceStatusCancelled, InvoiceStatusRefunded:
		return false, domainerrors.ErrInvalidTransition
	default:
		return false, domainerrors.ErrInvalidTransition
	}
}

// MarkPaid is legal from sent or overdue. Paying an already-paid invoice with
// the same payment reference is a no-op for webhook replay.
func (i *Invoice) MarkPaid(paidAt time.Time, paymentRef string, now time.Time) error {
	paymentRef = strings.TrimSpace(paymentRef)
	switch i.Status {
	case InvoiceStatusSent, InvoiceStatusOverdue:
		at := paidAt.UTC()
		i.Status = InvoiceStatusPaid
		i.PaidAt = &at
		i.PaymentRef = paymentRef
		i.UpdatedAt = now.UTC()
		return nil
	case InvoiceStatusPaid:
		if paymentRef != "" && paymentRef == i.PaymentRef {
			return nil
		}
		return domainerrors.ErrInvalidTransition
	case InvoiceStatusDraft, InvoiceStatusCancelled, InvoiceStatusRefunded:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// Cancel is legal from any state except paid, cancelled and refunded; a paid
// invoice must go through refund instead.
func (i *Invoice) Cancel(reason string, now time.Time) error {
	switch i.Status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOverdue:
		i.Status = InvoiceStatusCancelled
		i.Notes = strings.TrimSpace(reason)
		i.UpdatedAt = now.UTC()
		return nil
	case InvoiceStatusPaid:
		return fmt.Errorf("%w: paid invoices must be refunded", domainerrors.ErrInvalidTransition)
	case InvoiceStatusCancelled, InvoiceStatusRefunded:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// MarkRefunded is legal from paid only. Replay is a no-op.
func (i *Invoice) MarkRefunded(reason string, now time.Time) error {
	switch i.Status {
	case InvoiceStatusPaid:
		i.Status = InvoiceStatusRefunded
		i.Notes = strings.TrimSpace(reason)
		i.UpdatedAt = now.UTC()
		return nil
	case InvoiceStatusRefunded:
		return nil
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// MarkOverdue flips sent to overdue once the due date has passed. The flip is
// monotonic; only payment reverses it.
func (i *Invoice) MarkOverdue(now time.Time) bool {
	if i.Status == InvoiceStatusSent && !i.DueDate.IsZero() && now.UTC().After(i.DueDate) {
		i.Status = InvoiceStatusOverdue
		i.UpdatedAt = now.UTC()
		return true
	}
	return false
}

// EffectiveStatus is the lazily-derived read view: a sent invoice past its
// due date reads as overdue without requiring the sweep to have run.
func (i Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceStatusSent && !i.DueDate.IsZero() && now.UTC().After(i.DueDate) {
		return InvoiceStatusOverdue
	}
	return i.Status
}

// FormatInvoiceNumber renders the unique invoice number, e.g. INV-2026-00017.
func FormatInvoiceNumber(year int, sequence int) string {
	return fmt.Sprintf("INV-%d-%05d", year, sequence)
}
