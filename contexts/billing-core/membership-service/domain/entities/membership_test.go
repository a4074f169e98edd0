package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
)

var membershipTestNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestMembership(t *testing.T) Membership {
	t.Helper()
	endDate := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	membership, err := NewMembership(
		"mem-1",
		"user-1",
		"type-standard",
		"Standard",
		"standard",
		5000,
		"usd",
		membershipTestNow.AddDate(0, -3, 0),
		&endDate,
		membershipTestNow,
	)
	if err != nil {
		t.Fatalf("new membership failed: %v", err)
	}
	return membership
}

func TestNewMembershipDefaults(t *testing.T) {
	membership := newTestMembership(t)
	if membership.Status != MembershipStatusActive {
		t.Fatalf("got %s, want active", membership.Status)
	}
	if membership.PaymentStatus != PaymentStatusPending {
		t.Fatalf("got %s, want pending", membership.PaymentStatus)
	}
	if !membership.AutoRenew {
		t.Fatalf("new membership must auto-renew")
	}
	if membership.Currency != "USD" {
		t.Fatalf("currency not normalized: %s", membership.Currency)
	}
}

func TestMarkPaidReplay(t *testing.T) {
	membership := newTestMembership(t)
	if err := membership.MarkPaid("pi_123", membershipTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if membership.PaymentStatus != PaymentStatusPaid {
		t.Fatalf("got %s, want paid", membership.PaymentStatus)
	}

	if err := membership.MarkPaid("pi_123", membershipTestNow.Add(time.Minute)); err != nil {
		t.Fatalf("replay with same ref must be a no-op, got %v", err)
	}
	if err := membership.MarkPaid("pi_456", membershipTestNow.Add(time.Minute)); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("different ref must be rejected, got %v", err)
	}
}

func TestCancelImmediateIdempotent(t *testing.T) {
	membership := newTestMembership(t)
	if err := membership.MarkPaid("pi_123", membershipTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	first, changed, err := membership.CancelImmediate("moving away", "user-1", membershipTestNow)
	if err != nil || !changed {
		t.Fatalf("cancel failed: changed=%v err=%v", changed, err)
	}
	if membership.Status != MembershipStatusCancelled {
		t.Fatalf("got %s, want cancelled", membership.Status)
	}
	if !membership.EndDate.Equal(membershipTestNow) {
		t.Fatalf("immediate cancel must pull end date to now")
	}

	// Cancelling again replays the same effective end date without mutation.
	updatedAt := membership.UpdatedAt
	second, changed, err := membership.CancelImmediate("moving away", "user-1", membershipTestNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("cancel replay failed: %v", err)
	}
	if changed {
		t.Fatalf("cancel replay must not report a change")
	}
	if !first.Equal(second) {
		t.Fatalf("effective end date drifted: %s vs %s", first, second)
	}
	if !membership.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("cancel replay must not touch the record")
	}
}

func TestCancelAtRenewalKeepsPaidStatusAndEndDate(t *testing.T) {
	membership := newTestMembership(t)
	if err := membership.MarkPaid("pi_123", membershipTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	wantEnd := *membership.EndDate

	effectiveEnd, changed, err := membership.CancelAtRenewal("done after this year", "user-1", membershipTestNow)
	if err != nil || !changed {
		t.Fatalf("cancel at renewal failed: changed=%v err=%v", changed, err)
	}
	if membership.PaymentStatus != PaymentStatusPaid {
		t.Fatalf("payment status must stay paid, got %s", membership.PaymentStatus)
	}
	if !effectiveEnd.Equal(wantEnd) || !membership.EndDate.Equal(wantEnd) {
		t.Fatalf("end date must be untouched: got %s, want %s", membership.EndDate, wantEnd)
	}
	if membership.AutoRenew {
		t.Fatalf("auto-renew must be disabled")
	}
}

func TestMarkRefundedTransitions(t *testing.T) {
	membership := newTestMembership(t)
	if err := membership.MarkRefunded(membershipTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("refund of an unpaid membership must fail, got %v", err)
	}

	if err := membership.MarkPaid("pi_123", membershipTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	membership.FlagRefundPending(membershipTestNow)
	if err := membership.MarkRefunded(membershipTestNow); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if membership.PaymentStatus != PaymentStatusRefunded {
		t.Fatalf("got %s, want refunded", membership.PaymentStatus)
	}
	if membership.RefundPending {
		t.Fatalf("refund must clear the pending flag")
	}
	if err := membership.MarkRefunded(membershipTestNow); err != nil {
		t.Fatalf("refund replay must be a no-op, got %v", err)
	}
}

func TestEnableTeamAddon(t *testing.T) {
	membership := newTestMembership(t)
	if err := membership.MarkPaid("pi_123", membershipTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	changed, err := membership.EnableTeamAddon("Springfield Rockets", membershipTestNow)
	if err != nil || !changed {
		t.Fatalf("enable team addon failed: changed=%v err=%v", changed, err)
	}
	changed, err = membership.EnableTeamAddon("Springfield Rockets", membershipTestNow)
	if err != nil || changed {
		t.Fatalf("same team replay must be a silent no-op: changed=%v err=%v", changed, err)
	}
	if _, err := membership.EnableTeamAddon("Shelbyville Sharks", membershipTestNow); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("switching teams must be rejected, got %v", err)
	}
}

func TestExtendPeriod(t *testing.T) {
	membership := newTestMembership(t)
	wantEnd := membership.EndDate.AddDate(0, 0, 365)
	if err := membership.ExtendPeriod(365, membershipTestNow); err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	if !membership.EndDate.Equal(wantEnd) {
		t.Fatalf("got %s, want %s", membership.EndDate, wantEnd)
	}

	if _, _, err := membership.CancelImmediate("done", "user-1", membershipTestNow); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := membership.ExtendPeriod(365, membershipTestNow); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("extending a cancelled membership must conflict, got %v", err)
	}
}
