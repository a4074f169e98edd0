package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"memberhub/contexts/billing-core/membership-service/adapters/memory"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

func newWebhookUseCase(store *memory.Store, gateway *memory.Gateway, billing *stubBilling) ProcessGatewayWebhookUseCase {
	locker := memory.NewLocker(time.Second)
	clock := fixedClock{at: commandTestNow}
	return ProcessGatewayWebhookUseCase{
		Gateway: gateway,
		Dedup:   store,
		PaymentSucceeded: HandlePaymentSucceededUseCase{
			Memberships: store,
			Billing:     billing,
			Locker:      locker,
			Clock:       clock,
			IDGenerator: store,
			PeriodDays:  365,
		},
		ChargeRefunded: HandleChargeRefundedUseCase{
			Memberships: store,
			Billing:     billing,
			Locker:      locker,
			Clock:       clock,
		},
		Clock: clock,
	}
}

func webhookPayload(t *testing.T, event ports.GatewayEvent) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event failed: %v", err)
	}
	return payload
}

func TestWebhookCheckoutCreatesMembershipOnce(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	billing := &stubBilling{}
	useCase := newWebhookUseCase(store, gateway, billing)

	payload := webhookPayload(t, ports.GatewayEvent{
		ID:              "evt_1",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_123",
		AmountCents:     5000,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":      "membership",
			"membershipTypeId": "type-standard",
			"typeName":         "Standard",
			"tier":             "standard",
			"userId":           "user-1",
			"orderId":          "ord-1",
		},
	})

	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	membership, found, err := store.GetMembershipByPaymentRef(context.Background(), "pi_123")
	if err != nil || !found {
		t.Fatalf("membership not created: found=%v err=%v", found, err)
	}
	if membership.PaymentStatus != entities.PaymentStatusPaid {
		t.Fatalf("got payment status %s, want paid", membership.PaymentStatus)
	}
	if len(billing.completedOrders) != 1 || billing.completedOrders[0] != "ord-1" {
		t.Fatalf("order completion applied %d times: %v", len(billing.completedOrders), billing.completedOrders)
	}
}

func TestWebhookRedeliveryCompletesOrderAfterTransientFailure(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	billing := &stubBilling{completeErr: domainerrors.ErrConflict}
	useCase := newWebhookUseCase(store, gateway, billing)

	payload := webhookPayload(t, ports.GatewayEvent{
		ID:              "evt_1",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_123",
		AmountCents:     5000,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":      "membership",
			"membershipTypeId": "type-standard",
			"typeName":         "Standard",
			"tier":             "standard",
			"userId":           "user-1",
			"orderId":          "ord-1",
		},
	})

	if err := useCase.Execute(context.Background(), payload, "test-signature"); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("got %v, want the order completion failure surfaced", err)
	}

	// The provider retries the exact same event once the outage clears.
	billing.completeErr = nil
	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	if len(billing.completedOrders) != 2 || billing.completedOrders[1] != "ord-1" {
		t.Fatalf("order completion not retried on redelivery: %v", billing.completedOrders)
	}
	membership, found, err := store.GetMembershipByPaymentRef(context.Background(), "pi_123")
	if err != nil || !found {
		t.Fatalf("membership not created: found=%v err=%v", found, err)
	}
	if membership.PaymentStatus != entities.PaymentStatusPaid {
		t.Fatalf("got payment status %s, want paid", membership.PaymentStatus)
	}

	// A third delivery is a true replay now: acknowledged without another
	// completion call.
	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("settled replay failed: %v", err)
	}
	if len(billing.completedOrders) != 2 {
		t.Fatalf("settled replay reached the order ledger: %v", billing.completedOrders)
	}
}

func TestWebhookReplayWithDifferentPayloadConflicts(t *testing.T) {
	store := memory.NewStore()
	useCase := newWebhookUseCase(store, memory.NewGateway(), &stubBilling{})

	first := webhookPayload(t, ports.GatewayEvent{ID: "evt_1", Type: "payment_intent.succeeded", PaymentIntentID: "pi_123"})
	if err := useCase.Execute(context.Background(), first, "test-signature"); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	second := webhookPayload(t, ports.GatewayEvent{ID: "evt_1", Type: "payment_intent.succeeded", PaymentIntentID: "pi_456"})
	if err := useCase.Execute(context.Background(), second, "test-signature"); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	useCase := newWebhookUseCase(memory.NewStore(), memory.NewGateway(), &stubBilling{})
	payload := webhookPayload(t, ports.GatewayEvent{ID: "evt_1", Type: "payment_intent.succeeded"})
	if err := useCase.Execute(context.Background(), payload, "forged"); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	useCase := newWebhookUseCase(memory.NewStore(), memory.NewGateway(), &stubBilling{})
	payload := webhookPayload(t, ports.GatewayEvent{ID: "evt_1", Type: "customer.updated"})
	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("unknown event type must be acknowledged, got %v", err)
	}
}

func TestWebhookChargeRefundedSettlesMembership(t *testing.T) {
	store := memory.NewStore()
	billing := &stubBilling{}
	useCase := newWebhookUseCase(store, memory.NewGateway(), billing)
	seedPaidMembership(t, store, "pi_123", "ord-1")

	payload := webhookPayload(t, ports.GatewayEvent{
		ID:              "evt_refund_1",
		Type:            "charge.refunded",
		PaymentIntentID: "pi_123",
		AmountCents:     5000,
	})
	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("refund webhook failed: %v", err)
	}

	membership, err := store.GetMembership(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("get membership failed: %v", err)
	}
	if membership.PaymentStatus != entities.PaymentStatusRefunded {
		t.Fatalf("got payment status %s, want refunded", membership.PaymentStatus)
	}
	if membership.Status != entities.MembershipStatusCancelled {
		t.Fatalf("got status %s, want cancelled", membership.Status)
	}
	if len(billing.refundedOrders) != 1 || billing.refundedOrders[0] != "ord-1" {
		t.Fatalf("order refund not reconciled: %v", billing.refundedOrders)
	}
}

func TestWebhookTeamUpgradeRecordsOrder(t *testing.T) {
	store := memory.NewStore()
	billing := &stubBilling{}
	useCase := newWebhookUseCase(store, memory.NewGateway(), billing)
	seedPaidMembership(t, store, "pi_123", "ord-1")

	payload := webhookPayload(t, ports.GatewayEvent{
		ID:              "evt_upgrade_1",
		Type:            "payment_intent.succeeded",
		PaymentIntentID: "pi_upgrade_1",
		AmountCents:     1370,
		Currency:        "USD",
		Metadata: map[string]string{
			"paymentType":  PaymentTypeTeamUpgrade,
			"membershipId": "mem-1",
			"teamName":     "Springfield Rockets",
		},
	})
	if err := useCase.Execute(context.Background(), payload, "test-signature"); err != nil {
		t.Fatalf("team upgrade webhook failed: %v", err)
	}

	membership, err := store.GetMembership(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("get membership failed: %v", err)
	}
	if !membership.TeamAddon || membership.TeamName != "Springfield Rockets" {
		t.Fatalf("team addon not applied: addon=%v name=%q", membership.TeamAddon, membership.TeamName)
	}
	if len(billing.upgradeOrders) != 1 {
		t.Fatalf("upgrade order calls: got %d, want 1", len(billing.upgradeOrders))
	}
	if billing.upgradeOrders[0].AmountCents != 1370 || billing.upgradeOrders[0].PaymentRef != "pi_upgrade_1" {
		t.Fatalf("upgrade order input wrong: %+v", billing.upgradeOrders[0])
	}
}
