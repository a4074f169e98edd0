package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

var invoiceTestNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestInvoice(t *testing.T) Invoice {
	t.Helper()
	order := newTestOrder(t)
	invoice, err := NewInvoiceFromOrder(
		"inv-1",
		"INV-2025-000001",
		order,
		invoiceTestNow.AddDate(0, 0, 30),
		CompanyInfo{Name: "MemberHub Inc.", Email: "billing@memberhub.test", Address: "1 Clubhouse Way", Country: "US"},
		invoiceTestNow,
	)
	if err != nil {
		t.Fatalf("new invoice failed: %v", err)
	}
	return invoice
}

func TestInvoiceMarkPaidLegality(t *testing.T) {
	invoice := newTestInvoice(t)

	// Draft invoices cannot be paid.
	if err := invoice.MarkPaid(invoiceTestNow, "pi_123", invoiceTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("paying a draft must fail, got %v", err)
	}

	changed, err := invoice.Send(invoiceTestNow)
	if err != nil || !changed {
		t.Fatalf("send failed: changed=%v err=%v", changed, err)
	}
	if err := invoice.MarkPaid(invoiceTestNow, "pi_123", invoiceTestNow); err != nil {
		t.Fatalf("paying a sent invoice failed: %v", err)
	}
	if invoice.Status != InvoiceStatusPaid {
		t.Fatalf("got %s, want paid", invoice.Status)
	}

	// Replay with the same payment ref is a no-op; a different ref is not.
	if err := invoice.MarkPaid(invoiceTestNow, "pi_123", invoiceTestNow); err != nil {
		t.Fatalf("paid replay must be a no-op, got %v", err)
	}
	if err := invoice.MarkPaid(invoiceTestNow, "pi_456", invoiceTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("paid with a different ref must fail, got %v", err)
	}
}

func TestInvoiceOverduePayableAndMonotonic(t *testing.T) {
	invoice := newTestInvoice(t)
	if _, err := invoice.Send(invoiceTestNow); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	afterDue := invoice.DueDate.Add(24 * time.Hour)
	if !invoice.MarkOverdue(afterDue) {
		t.Fatalf("expected sent invoice past due date to flip overdue")
	}
	if invoice.MarkOverdue(afterDue.Add(time.Hour)) {
		t.Fatalf("overdue flip must not repeat")
	}
	if err := invoice.MarkPaid(afterDue, "pi_late", afterDue); err != nil {
		t.Fatalf("overdue invoice must remain payable: %v", err)
	}
}

func TestInvoiceCancelRules(t *testing.T) {
	invoice := newTestInvoice(t)
	if _, err := invoice.Send(invoiceTestNow); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := invoice.MarkPaid(invoiceTestNow, "pi_123", invoiceTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := invoice.Cancel("not needed", invoiceTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("cancelling a paid invoice must fail, got %v", err)
	}
	if err := invoice.MarkRefunded("refund requested", invoiceTestNow); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if invoice.Status != InvoiceStatusRefunded {
		t.Fatalf("got %s, want refunded", invoice.Status)
	}
}

func TestInvoiceEffectiveStatusReadsOverdue(t *testing.T) {
	invoice := newTestInvoice(t)
	if _, err := invoice.Send(invoiceTestNow); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	afterDue := invoice.DueDate.Add(time.Hour)
	if invoice.EffectiveStatus(afterDue) != InvoiceStatusOverdue {
		t.Fatalf("sent invoice past due must read overdue")
	}
	if invoice.Status != InvoiceStatusSent {
		t.Fatalf("read view must not mutate stored status")
	}
}
