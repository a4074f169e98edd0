package orderservice

import (
	"context"
	"testing"
	"time"

	"memberhub/contexts/billing-core/order-service/adapters/memory"
	"memberhub/contexts/billing-core/order-service/domain/entities"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// The wired list query must derive overdue from the module clock, not wall
// time, so a sent invoice past its due date reads as overdue deterministically.
func TestListInvoicesDerivesOverdueFromModuleClock(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Orders:         store,
		Invoices:       store,
		Outbox:         store,
		Locker:         memory.NewLocker(time.Second),
		Clock:          fixedClock{at: now},
		IDGenerator:    store,
		InvoiceDueDays: 30,
	})

	if err := store.CreateInvoice(context.Background(), entities.Invoice{
		InvoiceID: "inv-1",
		UserID:    "user-1",
		Status:    entities.InvoiceStatusSent,
		DueDate:   now.AddDate(0, 0, -1),
		CreatedAt: now.AddDate(0, 0, -31),
	}); err != nil {
		t.Fatalf("seed invoice failed: %v", err)
	}

	items, err := module.Handler.ListInvoicesByUser.Execute(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list invoices failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d invoices, want 1", len(items))
	}
	if items[0].Status != entities.InvoiceStatusOverdue {
		t.Fatalf("got status %s, want overdue", items[0].Status)
	}
}
