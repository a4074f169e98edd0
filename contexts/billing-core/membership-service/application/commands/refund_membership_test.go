package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"memberhub/contexts/billing-core/membership-service/adapters/memory"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

var commandTestNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// stubBilling records reconciliation calls without an order service behind it.
type stubBilling struct {
	completedOrders []string
	refundedOrders  []string
	upgradeOrders   []ports.TeamUpgradeOrderInput
	completeErr     error
	refundErr       error
}

func (b *stubBilling) CompleteOrder(_ context.Context, orderID string, _ string) error {
	b.completedOrders = append(b.completedOrders, orderID)
	return b.completeErr
}

func (b *stubBilling) RefundOrder(_ context.Context, orderID string, _ string) error {
	b.refundedOrders = append(b.refundedOrders, orderID)
	return b.refundErr
}

func (b *stubBilling) RecordTeamUpgradeOrder(_ context.Context, input ports.TeamUpgradeOrderInput) (string, error) {
	b.upgradeOrders = append(b.upgradeOrders, input)
	return "ord-upgrade-1", nil
}

func seedPaidMembership(t *testing.T, store *memory.Store, paymentRef string, orderID string) entities.Membership {
	t.Helper()
	endDate := commandTestNow.AddDate(1, 0, 0)
	membership, err := entities.NewMembership(
		"mem-1", "user-1", "type-standard", "Standard", "standard",
		5000, "USD", commandTestNow, &endDate, commandTestNow,
	)
	if err != nil {
		t.Fatalf("new membership failed: %v", err)
	}
	membership.OrderID = orderID
	if paymentRef != "" {
		if err := membership.MarkPaid(paymentRef, commandTestNow); err != nil {
			t.Fatalf("mark paid failed: %v", err)
		}
	}
	if err := store.CreateMembership(context.Background(), membership); err != nil {
		t.Fatalf("seed membership failed: %v", err)
	}
	return membership
}

func newRefundUseCase(store *memory.Store, gateway *memory.Gateway, billing *stubBilling) RefundMembershipUseCase {
	return RefundMembershipUseCase{
		Memberships: store,
		Gateway:     gateway,
		Billing:     billing,
		Locker:      memory.NewLocker(time.Second),
		Clock:       fixedClock{at: commandTestNow},
	}
}

func TestRefundMembershipRefundsAndReconciles(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	billing := &stubBilling{}
	seedPaidMembership(t, store, "pi_123", "ord-1")

	result, err := newRefundUseCase(store, gateway, billing).Execute(context.Background(), RefundMembershipCommand{
		MembershipID: "mem-1",
		Reason:       "not what I expected",
		ActorID:      "user-1",
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !result.Refunded {
		t.Fatalf("result must report refunded")
	}
	if gateway.RefundCalls != 1 {
		t.Fatalf("gateway refund calls: got %d, want 1", gateway.RefundCalls)
	}
	if !gateway.Refunded("pi_123") {
		t.Fatalf("payment intent was not refunded at the gateway")
	}
	if len(billing.refundedOrders) != 1 || billing.refundedOrders[0] != "ord-1" {
		t.Fatalf("order refund not reconciled: %v", billing.refundedOrders)
	}

	stored, err := store.GetMembership(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("get membership failed: %v", err)
	}
	if stored.Status != entities.MembershipStatusCancelled {
		t.Fatalf("got status %s, want cancelled", stored.Status)
	}
	if stored.PaymentStatus != entities.PaymentStatusRefunded {
		t.Fatalf("got payment status %s, want refunded", stored.PaymentStatus)
	}
}

func TestRefundMembershipGatewayFailureLeavesRefundPending(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	gateway.FailRefund = true
	billing := &stubBilling{}
	seedPaidMembership(t, store, "pi_123", "ord-1")

	result, err := newRefundUseCase(store, gateway, billing).Execute(context.Background(), RefundMembershipCommand{
		MembershipID: "mem-1",
		Reason:       "not what I expected",
		ActorID:      "user-1",
	})
	if !errors.Is(err, domainerrors.ErrRefundPending) {
		t.Fatalf("got %v, want ErrRefundPending", err)
	}
	if result.Refunded {
		t.Fatalf("result must not report refunded")
	}

	stored, getErr := store.GetMembership(context.Background(), "mem-1")
	if getErr != nil {
		t.Fatalf("get membership failed: %v", getErr)
	}
	if stored.Status != entities.MembershipStatusCancelled {
		t.Fatalf("cancellation must stand even when the refund fails, got %s", stored.Status)
	}
	if !stored.RefundPending {
		t.Fatalf("refund pending flag must be set")
	}
	if len(billing.refundedOrders) != 0 {
		t.Fatalf("order must not be reconciled before the money moved")
	}
}

func TestRefundMembershipReplayDoesNotRefundTwice(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	billing := &stubBilling{}
	seedPaidMembership(t, store, "pi_123", "ord-1")

	useCase := newRefundUseCase(store, gateway, billing)
	cmd := RefundMembershipCommand{MembershipID: "mem-1", Reason: "not what I expected", ActorID: "user-1"}
	if _, err := useCase.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("first refund failed: %v", err)
	}

	result, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("refund replay failed: %v", err)
	}
	if !result.Refunded {
		t.Fatalf("replay must still report the refunded outcome")
	}
	if gateway.RefundCalls != 1 {
		t.Fatalf("gateway refund calls: got %d, want 1", gateway.RefundCalls)
	}
}

func TestRefundMembershipWithoutPaymentOnlyCancels(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	billing := &stubBilling{}
	seedPaidMembership(t, store, "", "")

	result, err := newRefundUseCase(store, gateway, billing).Execute(context.Background(), RefundMembershipCommand{
		MembershipID: "mem-1",
		Reason:       "never used it",
		ActorID:      "user-1",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.Refunded {
		t.Fatalf("nothing was captured, nothing to refund")
	}
	if gateway.RefundCalls != 0 {
		t.Fatalf("gateway must not be called, got %d calls", gateway.RefundCalls)
	}
	if result.Membership.Status != entities.MembershipStatusCancelled {
		t.Fatalf("got status %s, want cancelled", result.Membership.Status)
	}
}

func TestRefundMembershipUnknownMembership(t *testing.T) {
	store := memory.NewStore()
	_, err := newRefundUseCase(store, memory.NewGateway(), &stubBilling{}).Execute(context.Background(), RefundMembershipCommand{
		MembershipID: "mem-missing",
		Reason:       "whatever it was",
	})
	if !errors.Is(err, domainerrors.ErrMembershipNotFound) {
		t.Fatalf("got %v, want ErrMembershipNotFound", err)
	}
}
