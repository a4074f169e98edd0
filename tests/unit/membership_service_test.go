package unit

import (
	"context"
	"encoding/json"
	"testing"

	membershipservice "memberhub/contexts/billing-core/membership-service"
	membershipmemory "memberhub/contexts/billing-core/membership-service/adapters/memory"
	membershipports "memberhub/contexts/billing-core/membership-service/ports"
	membershiptransport "memberhub/contexts/billing-core/membership-service/transport/http"
	orderservice "memberhub/contexts/billing-core/order-service"
	"memberhub/internal/app/bootstrap"
)

// billingModules wires the two services the way the composition root does:
// the membership module talks to the order ledger through the reconciler.
func billingModules(t *testing.T) (orderservice.Module, membershipservice.Module, *membershipmemory.Gateway) {
	t.Helper()
	orders := orderservice.NewInMemoryModule(nil, nil)
	memberships := membershipservice.NewInMemoryModule(bootstrap.NewBillingReconciler(orders), nil, nil)
	gateway, ok := memberships.Gateway.(*membershipmemory.Gateway)
	if !ok {
		t.Fatalf("in-memory module must expose the fake gateway")
	}
	return orders, memberships, gateway
}

func gatewayEventPayload(t *testing.T, event membershipports.GatewayEvent) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal gateway event failed: %v", err)
	}
	return payload
}

func TestCheckoutWebhookCreatesMembershipAndCompletesOrder(t *testing.T) {
	orders, memberships, _ := billingModules(t)
	ctx := context.Background()

	order := createAnnualMembershipOrder(t, orders)
	payload := gatewayEventPayload(t, membershipports.GatewayEvent{
		ID:              "evt_checkout_1",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_checkout_1",
		AmountCents:     5000,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":      "membership",
			"membershipTypeId": "type-standard",
			"typeName":         "Standard",
			"tier":             "standard",
			"userId":           "user-ord-1",
			"orderId":          order.OrderID,
		},
	})

	if _, err := memberships.Handler.GatewayWebhookHandler(ctx, payload, "test-signature"); err != nil {
		t.Fatalf("checkout webhook failed: %v", err)
	}
	// Redelivery is acknowledged without touching state again.
	if _, err := memberships.Handler.GatewayWebhookHandler(ctx, payload, "test-signature"); err != nil {
		t.Fatalf("webhook redelivery failed: %v", err)
	}

	completed, err := orders.Handler.GetOrderHandler(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if completed.Order.Status != "completed" || completed.Order.PaymentRef != "pi_checkout_1" {
		t.Fatalf("order not completed by webhook: status=%s ref=%s", completed.Order.Status, completed.Order.PaymentRef)
	}

	membership, found, err := memberships.Store.GetMembershipByPaymentRef(ctx, "pi_checkout_1")
	if err != nil || !found {
		t.Fatalf("membership not created: found=%v err=%v", found, err)
	}
	if string(membership.PaymentStatus) != "paid" || membership.OrderID != order.OrderID {
		t.Fatalf("membership wrong: payment_status=%s order_id=%s", membership.PaymentStatus, membership.OrderID)
	}
}

func TestMembershipRefundCascadesToOrderLedger(t *testing.T) {
	orders, memberships, gateway := billingModules(t)
	ctx := context.Background()

	order := createAnnualMembershipOrder(t, orders)
	payload := gatewayEventPayload(t, membershipports.GatewayEvent{
		ID:              "evt_checkout_2",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_checkout_2",
		AmountCents:     5000,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":      "membership",
			"membershipTypeId": "type-standard",
			"typeName":         "Standard",
			"tier":             "standard",
			"userId":           "user-ord-1",
			"orderId":          order.OrderID,
		},
	})
	if _, err := memberships.Handler.GatewayWebhookHandler(ctx, payload, "test-signature"); err != nil {
		t.Fatalf("checkout webhook failed: %v", err)
	}

	membership, found, err := memberships.Store.GetMembershipByPaymentRef(ctx, "pi_checkout_2")
	if err != nil || !found {
		t.Fatalf("membership not created: found=%v err=%v", found, err)
	}

	refund, err := memberships.Handler.RefundMembershipHandler(ctx, membership.MembershipID, "user-ord-1", membershiptransport.RefundMembershipRequest{
		Reason: "not what I expected",
	})
	if err != nil {
		t.Fatalf("refund membership failed: %v", err)
	}
	if !refund.Refunded || refund.Membership.PaymentStatus != "refunded" {
		t.Fatalf("refund response wrong: refunded=%v payment_status=%s", refund.Refunded, refund.Membership.PaymentStatus)
	}
	if gateway.RefundCalls != 1 {
		t.Fatalf("gateway refund calls: got %d, want 1", gateway.RefundCalls)
	}

	refundedOrder, err := orders.Handler.GetOrderHandler(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if refundedOrder.Order.Status != "refunded" {
		t.Fatalf("order status: got %s, want refunded", refundedOrder.Order.Status)
	}

	// Refunding again must not reach the gateway a second time.
	replay, err := memberships.Handler.RefundMembershipHandler(ctx, membership.MembershipID, "user-ord-1", membershiptransport.RefundMembershipRequest{
		Reason: "not what I expected",
	})
	if err != nil {
		t.Fatalf("refund replay failed: %v", err)
	}
	if !replay.Refunded || gateway.RefundCalls != 1 {
		t.Fatalf("refund replay: refunded=%v calls=%d", replay.Refunded, gateway.RefundCalls)
	}
}

func TestTeamUpgradeWebhookRecordsOrder(t *testing.T) {
	orders, memberships, _ := billingModules(t)
	ctx := context.Background()

	order := createAnnualMembershipOrder(t, orders)
	checkout := gatewayEventPayload(t, membershipports.GatewayEvent{
		ID:              "evt_checkout_3",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_checkout_3",
		AmountCents:     5000,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":      "membership",
			"membershipTypeId": "type-standard",
			"typeName":         "Standard",
			"tier":             "standard",
			"userId":           "user-ord-1",
			"orderId":          order.OrderID,
		},
	})
	if _, err := memberships.Handler.GatewayWebhookHandler(ctx, checkout, "test-signature"); err != nil {
		t.Fatalf("checkout webhook failed: %v", err)
	}
	membership, found, err := memberships.Store.GetMembershipByPaymentRef(ctx, "pi_checkout_3")
	if err != nil || !found {
		t.Fatalf("membership not created: found=%v err=%v", found, err)
	}

	upgrade := gatewayEventPayload(t, membershipports.GatewayEvent{
		ID:              "evt_upgrade_3",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_upgrade_3",
		AmountCents:     1370,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":  "team_upgrade",
			"membershipId": membership.MembershipID,
			"teamName":     "Springfield Rockets",
		},
	})
	if _, err := memberships.Handler.GatewayWebhookHandler(ctx, upgrade, "test-signature"); err != nil {
		t.Fatalf("team upgrade webhook failed: %v", err)
	}

	upgraded, err := memberships.Handler.GetMembershipHandler(ctx, membership.MembershipID)
	if err != nil {
		t.Fatalf("get membership failed: %v", err)
	}
	if !upgraded.Membership.TeamAddon || upgraded.Membership.TeamName != "Springfield Rockets" {
		t.Fatalf("team addon not applied: %+v", upgraded.Membership)
	}

	ledger, err := orders.Handler.ListOrdersHandler(ctx, "user-ord-1")
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	var upgradeOrders int
	for _, item := range ledger.Items {
		if item.Status == "completed" && item.PaymentRef == "pi_upgrade_3" {
			upgradeOrders++
			if item.Total != "13.70" {
				t.Fatalf("upgrade order total: got %s, want 13.70", item.Total)
			}
		}
	}
	if upgradeOrders != 1 {
		t.Fatalf("upgrade orders in ledger: got %d, want 1", upgradeOrders)
	}
}

func TestAdminCreateMembershipRequiresAdminRole(t *testing.T) {
	_, memberships, _ := billingModules(t)
	ctx := context.Background()

	req := membershiptransport.AdminCreateMembershipRequest{
		UserID:       "user-grant-1",
		TypeConfigID: "type-standard",
		TypeName:     "Standard",
		Tier:         "standard",
		Price:        "50.00",
		Currency:     "USD",
	}
	if _, err := memberships.Handler.AdminCreateMembershipHandler(ctx, "user-grant-1", "member", req); err == nil {
		t.Fatalf("non-admin must not create memberships")
	}

	created, err := memberships.Handler.AdminCreateMembershipHandler(ctx, "admin-1", "admin", req)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if !created.Membership.AdminGrant || created.Membership.PaymentStatus != "paid" {
		t.Fatalf("admin grant wrong: %+v", created.Membership)
	}
	if created.Membership.Price != "50.00" {
		t.Fatalf("price: got %s, want 50.00", created.Membership.Price)
	}
}
