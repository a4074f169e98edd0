package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

var orderTestNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) Order {
	t.Helper()
	order, err := NewOrder(
		"ord-1",
		"ORD-2025-000001",
		OrderTypeMembership,
		"USD",
		[]OrderItem{{
			ItemID:      "item-1",
			Description: "Annual membership",
			Quantity:    1,
			UnitPrice:   NewMoney(5000, "USD"),
		}},
		NewMoney(0, "USD"),
		NewMoney(0, "USD"),
		"user-1",
		BillingAddress{Name: "Jo Member", Email: "jo@example.test", Address1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		"",
		orderTestNow,
	)
	if err != nil {
		t.Fatalf("new order failed: %v", err)
	}
	return order
}

func TestNewOrderComputesTotals(t *testing.T) {
	order, err := NewOrder(
		"ord-2",
		"ORD-2025-000002",
		OrderTypeShop,
		"USD",
		[]OrderItem{
			{ItemID: "item-1", Description: "Shirt", Quantity: 2, UnitPrice: NewMoney(1500, "USD")},
			{ItemID: "item-2", Description: "Mug", Quantity: 1, UnitPrice: NewMoney(800, "USD")},
		},
		NewMoney(380, "USD"),
		NewMoney(500, "USD"),
		"user-1",
		BillingAddress{Name: "Jo Member", Email: "jo@example.test"},
		"",
		orderTestNow,
	)
	if err != nil {
		t.Fatalf("new order failed: %v", err)
	}
	if order.Subtotal.Cents != 3800 {
		t.Fatalf("subtotal: got %d, want 3800", order.Subtotal.Cents)
	}
	if order.Total.Cents != 3680 {
		t.Fatalf("total: got %d, want 3680 (subtotal + tax - discount)", order.Total.Cents)
	}
	if order.Status != OrderStatusPending {
		t.Fatalf("new order must be pending, got %s", order.Status)
	}
}

func TestNewOrderRejectsNegativeTotal(t *testing.T) {
	_, err := NewOrder(
		"ord-3",
		"ORD-2025-000003",
		OrderTypeShop,
		"USD",
		[]OrderItem{{ItemID: "item-1", Description: "Sticker", Quantity: 1, UnitPrice: NewMoney(100, "USD")}},
		NewMoney(0, "USD"),
		NewMoney(500, "USD"),
		"user-1",
		BillingAddress{},
		"",
		orderTestNow,
	)
	if !errors.Is(err, domainerrors.ErrNegativeTotal) {
		t.Fatalf("expected negative total error, got %v", err)
	}
}

func TestOrderCompleteReplayIsNoOp(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Complete("pi_123", orderTestNow); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if order.Status != OrderStatusCompleted {
		t.Fatalf("got %s, want completed", order.Status)
	}

	if err := order.Complete("pi_123", orderTestNow.Add(time.Minute)); err != nil {
		t.Fatalf("replay with same payment ref must be a no-op, got %v", err)
	}
	if err := order.Complete("pi_456", orderTestNow.Add(time.Minute)); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("different payment ref must be rejected, got %v", err)
	}
}

func TestCompletedOrderCannotBeCancelled(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Complete("pi_123", orderTestNow); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := order.Cancel("changed my mind", orderTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("cancel after completion must fail, got %v", err)
	}
}

func TestOrderRefundLegalFromCompletedOnly(t *testing.T) {
	order := newTestOrder(t)
	if err := order.MarkRefunded("duplicate charge", orderTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("refund of a pending order must fail, got %v", err)
	}

	if err := order.Complete("pi_123", orderTestNow); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := order.MarkRefunded("duplicate charge", orderTestNow); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if order.Status != OrderStatusRefunded {
		t.Fatalf("got %s, want refunded", order.Status)
	}
	if err := order.MarkRefunded("duplicate charge", orderTestNow); err != nil {
		t.Fatalf("refund replay must be a no-op, got %v", err)
	}
}

func TestOrderTotalsFrozenAfterCompletion(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Complete("pi_123", orderTestNow); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	total := order.Total.Cents
	subtotal := order.Subtotal.Cents

	// State transitions after completion must leave monetary fields alone.
	_ = order.MarkRefunded("refund requested", orderTestNow.Add(time.Hour))
	if order.Total.Cents != total || order.Subtotal.Cents != subtotal {
		t.Fatalf("totals changed after completion: total %d -> %d, subtotal %d -> %d",
			total, order.Total.Cents, subtotal, order.Subtotal.Cents)
	}
}
