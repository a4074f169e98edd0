package entities

import (
	"fmt"
	"strings"
	"time"

	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

type OrderType string

const (
	OrderTypeMembership        OrderType = "membership"
	OrderTypeEventRegistration OrderType = "event_registration"
	OrderTypeManual            OrderType = "manual"
	OrderTypeShop              OrderType = "shop"
	OrderTypeMerchandise       OrderType = "merchandise"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// BillingAddress is snapshotted onto invoices at issue time so historical
// documents keep rendering after a member edits their address.
type BillingAddress struct {
	Name       string
	Email      string
	Phone      string
	Address1   string
	Address2   string
	City       string
	State      string
	PostalCode string
	Country    string
}

type OrderItem struct {
	ItemID      string
	Description string
	Quantity    int
	UnitPrice   Money
	Total       Money
	ReferenceID string
}

type Order struct {
	OrderID     string
	OrderNumber string
	OrderType   OrderType
	UserID      string // empty for guest checkout
	Items       []OrderItem
	Subtotal    Money
	Tax         Money
	Discount    Money
	Total       Money
	Currency    string
	Status      OrderStatus
	PaymentRef  string
	InvoiceID   string
	Notes       string
	Billing     BillingAddress
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder builds a pending order and computes its totals from the items.
// Total = subtotal + tax - discount and must not be negative.
func NewOrder(
	orderID string,
	orderNumber string,
	orderType OrderType,
	currency string,
	items []OrderItem,
	tax Money,
	discount Money,
	userID string,
	billing BillingAddress,
	notes string,
	createdAt time.Time,
) (Order, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(orderNumber) == "" {
		return Order{}, domainerrors.ErrValidation
	}
	if !validOrderType(orderType) {
		return Order{}, domainerrors.ErrValidation
	}
	if len(items) == 0 {
		return Order{}, domainerrors.ErrValidation
	}

	currency = normalizeCurrency(currency)
	subtotal := Money{Currency: currency}
	normalized := make([]OrderItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity <= 0 {
			return Order{}, domainerrors.ErrValidation
		}
		if item.UnitPrice.IsNegative() {
			return Order{}, domainerrors.ErrValidation
		}
		if item.UnitPrice.Currency != currency {
			return Order{}, domainerrors.ErrMoneyMismatch
		}
		item.Total = item.UnitPrice.MulQuantity(item.Quantity)
		var err error
		subtotal, err = subtotal.Add(item.Total)
		if err != nil {
			return Order{}, err
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
		return Order{}, domainerrors.ErrValidation
	}

	total, err := computeTotal(subtotal, tax, discount)
	if err != nil {
		return Order{}, err
	}

	return Order{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		OrderType:   orderType,
		UserID:      strings.TrimSpace(userID),
		Items:       normalized,
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		Total:       total,
		Currency:    currency,
		Status:      OrderStatusPending,
		Billing:     billing,
		Notes:       strings.TrimSpace(notes),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}, nil
}

func computeTotal(subtotal, tax, discount Money) (Money, error) {
	withTax, err := subtotal.Add(tax)
	if err != nil {
		return Money{}, err
	}
	total, err := withTax.Sub(discount)
	if err != nil {
		return Money{}, err
	}
	if total.IsNegative() {
		return Money{}, domainerrors.ErrNegativeTotal
	}
	return total, nil
}

// StartProcessing moves a pending order into processing.
func (o *Order) StartProcessing(now time.Time) error {
	switch o.Status {
	case OrderStatusPending:
		o.Status = OrderStatusProcessing
		o.UpdatedAt = now.UTC()
		return nil
	case OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// Complete attaches the captured payment reference and freezes totals.
// Replaying completion with the same payment reference is a no-op so webhook
// redelivery stays safe.
func (o *Order) Complete(paymentRef string, now time.Time) error {
	paymentRef = strings.TrimSpace(paymentRef)
	switch o.Status {
	case OrderStatusPending, OrderStatusProcessing:
		o.Status = OrderStatusCompleted
		o.PaymentRef = paymentRef
		o.UpdatedAt = now.UTC()
		return nil
	case OrderStatusCompleted:
		if paymentRef != "" && paymentRef == o.PaymentRef {
			return nil
		}
		return domainerrors.ErrInvalidTransition
	case OrderStatusCancelled, OrderStatusRefunded:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// Cancel is legal before payment capture only; nothing was captured, so there
// is no monetary effect.
func (o *Order) Cancel(reason string, now time.Time) error {
	switch o.Status {
	case OrderStatusPending, OrderStatusProcessing:
		o.Status = OrderStatusCancelled
		o.Notes = strings.TrimSpace(reason)
		o.UpdatedAt = now.UTC()
		return nil
	case OrderStatusCompleted, OrderStatusRefunded:
		return fmt.Errorf("%w: use refund for captured orders", domainerrors.ErrInvalidTransition)
	case OrderStatusCancelled:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// MarkRefunded is legal from completed only. Replay is a no-op.
func (o *Order) MarkRefunded(reason string, now time.Time) error {
	switch o.Status {
	case OrderStatusCompleted:
		o.Status = OrderStatusRefunded
		o.Notes = strings.TrimSpace(reason)
		o.UpdatedAt = now.UTC()
		return nil
	case OrderStatusRefunded:
		return nil
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCancelled:
		return domainerrors.ErrInvalidTransition
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// CheckTotals re-validates the totals invariant against the stored items.
func (o Order) CheckTotals() error {
	subtotal := Money{Currency: o.Currency}
	for _, item := range o.Items {
		expected := item.UnitPrice.MulQuantity(item.Quantity)
		if expected.Cents != item.Total.Cents {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		var err error
		subtotal, err = subtotal.Add(item.Total)
		if err != nil {
			return err
		}
	}
	if subtotal.Cents != o.Subtotal.Cents {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	total, err := computeTotal(o.Subtotal, o.Tax, o.Discount)
	if err != nil {
		return err
	}
	if total.Cents != o.Total.Cents {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func validOrderType(t OrderType) bool {
	switch t {
	case OrderTypeMembership, OrderTypeEventRegistration, OrderTypeManual, OrderTypeShop, OrderTypeMerchandise:
		return true
	default:
		return false
	}
}

// FormatOrderNumber renders the human-legible order number, e.g. ORD-2026-00042.
func FormatOrderNumber(year int, sequence int) string {
	return fmt.Sprintf("ORD-%d-%05d", year, sequence)
}
