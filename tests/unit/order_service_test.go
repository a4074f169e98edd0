package unit

import (
	"context"
	"testing"

	orderservice "memberhub/contexts/billing-core/order-service"
	httptransport "memberhub/contexts/billing-core/order-service/transport/http"
)

func createAnnualMembershipOrder(t *testing.T, module orderservice.Module) httptransport.OrderDTO {
	t.Helper()
	resp, err := module.Handler.CreateOrderHandler(context.Background(), httptransport.CreateOrderRequest{
		OrderType: "membership",
		Currency:  "USD",
		Items: []httptransport.OrderItemInputDTO{{
			Description: "Annual membership",
			Quantity:    1,
			UnitPrice:   "50.00",
		}},
		UserID: "user-ord-1",
		Billing: httptransport.BillingAddressDTO{
			Name:       "Max Power",
			Email:      "max@example.test",
			Address1:   "1 Clubhouse Way",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return resp.Order
}

func TestOrderLifecycleThroughRefund(t *testing.T) {
	module := orderservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	order := createAnnualMembershipOrder(t, module)
	if order.Status != "pending" {
		t.Fatalf("new order status: got %s, want pending", order.Status)
	}
	if order.Total != "50.00" || order.Subtotal != "50.00" {
		t.Fatalf("order totals wrong: subtotal=%s total=%s", order.Subtotal, order.Total)
	}

	issued, err := module.Handler.IssueInvoiceHandler(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("issue invoice failed: %v", err)
	}
	if !issued.Created || issued.Invoice.Status != "draft" {
		t.Fatalf("issue invoice: created=%v status=%s", issued.Created, issued.Invoice.Status)
	}
	reissued, err := module.Handler.IssueInvoiceHandler(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("re-issue invoice failed: %v", err)
	}
	if reissued.Created || reissued.Invoice.InvoiceID != issued.Invoice.InvoiceID {
		t.Fatalf("re-issue must return the existing invoice: created=%v", reissued.Created)
	}

	sent, err := module.Handler.SendInvoiceHandler(ctx, issued.Invoice.InvoiceID)
	if err != nil {
		t.Fatalf("send invoice failed: %v", err)
	}
	if !sent.Sent || sent.Invoice.Status != "sent" {
		t.Fatalf("send invoice: sent=%v status=%s", sent.Sent, sent.Invoice.Status)
	}

	completed, err := module.Handler.CompleteOrderHandler(ctx, order.OrderID, httptransport.CompleteOrderRequest{
		PaymentRef: "pi_ord_1",
	})
	if err != nil {
		t.Fatalf("complete order failed: %v", err)
	}
	if completed.Replayed || completed.Order.Status != "completed" {
		t.Fatalf("complete order: replayed=%v status=%s", completed.Replayed, completed.Order.Status)
	}

	replayed, err := module.Handler.CompleteOrderHandler(ctx, order.OrderID, httptransport.CompleteOrderRequest{
		PaymentRef: "pi_ord_1",
	})
	if err != nil {
		t.Fatalf("complete order replay failed: %v", err)
	}
	if !replayed.Replayed {
		t.Fatalf("redelivered completion must report a replay")
	}

	paid, err := module.Handler.MarkInvoicePaidHandler(ctx, issued.Invoice.InvoiceID, httptransport.MarkInvoicePaidRequest{
		PaymentRef: "pi_ord_1",
	})
	if err != nil {
		t.Fatalf("mark invoice paid failed: %v", err)
	}
	if paid.Invoice.Status != "paid" {
		t.Fatalf("invoice status: got %s, want paid", paid.Invoice.Status)
	}

	refunded, err := module.Handler.RefundOrderHandler(ctx, order.OrderID, httptransport.RefundOrderRequest{
		Reason: "membership refunded",
	})
	if err != nil {
		t.Fatalf("refund order failed: %v", err)
	}
	if refunded.Order.Status != "refunded" {
		t.Fatalf("order status: got %s, want refunded", refunded.Order.Status)
	}

	invoice, err := module.Handler.GetInvoiceHandler(ctx, issued.Invoice.InvoiceID)
	if err != nil {
		t.Fatalf("get invoice failed: %v", err)
	}
	if invoice.Invoice.Status != "refunded" {
		t.Fatalf("refund must cascade to the paid invoice, got %s", invoice.Invoice.Status)
	}
}

func TestCompletedOrderRejectsCancellation(t *testing.T) {
	module := orderservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	order := createAnnualMembershipOrder(t, module)
	if _, err := module.Handler.CompleteOrderHandler(ctx, order.OrderID, httptransport.CompleteOrderRequest{
		PaymentRef: "pi_ord_2",
	}); err != nil {
		t.Fatalf("complete order failed: %v", err)
	}

	if _, err := module.Handler.CancelOrderHandler(ctx, order.OrderID, httptransport.CancelOrderRequest{
		Reason: "changed my mind",
	}); err == nil {
		t.Fatalf("completed order must not be cancellable")
	}
}

func TestOrderStatsCountByStatus(t *testing.T) {
	module := orderservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	first := createAnnualMembershipOrder(t, module)
	createAnnualMembershipOrder(t, module)
	if _, err := module.Handler.CompleteOrderHandler(ctx, first.OrderID, httptransport.CompleteOrderRequest{
		PaymentRef: "pi_ord_3",
	}); err != nil {
		t.Fatalf("complete order failed: %v", err)
	}

	stats, err := module.Handler.OrderStatsHandler(ctx)
	if err != nil {
		t.Fatalf("order stats failed: %v", err)
	}
	if stats.Counts["pending"] != 1 || stats.Counts["completed"] != 1 {
		t.Fatalf("unexpected counts: %v", stats.Counts)
	}
}
