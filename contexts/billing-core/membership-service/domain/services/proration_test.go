package services

import (
	"testing"
	"time"

	"memberhub/contexts/billing-core/membership-service/domain/entities"
)

var prorationTestNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func paidMembershipEnding(t *testing.T, endDate time.Time) entities.Membership {
	t.Helper()
	membership, err := entities.NewMembership(
		"mem-1",
		"user-1",
		"type-standard",
		"Standard",
		"standard",
		5000,
		"USD",
		prorationTestNow.AddDate(-1, 0, 0),
		&endDate,
		prorationTestNow,
	)
	if err != nil {
		t.Fatalf("new membership failed: %v", err)
	}
	if err := membership.MarkPaid("pi_123", prorationTestNow); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	return membership
}

func TestComputeUpgradeProration(t *testing.T) {
	cases := []struct {
		name              string
		daysRemaining     int
		newTierPriceCents int64
		wantCents         int64
	}{
		{name: "full period charges full price", daysRemaining: 365, newTierPriceCents: 10000, wantCents: 10000},
		{name: "100 of 365 days", daysRemaining: 100, newTierPriceCents: 10000, wantCents: 2740},
		{name: "one day", daysRemaining: 1, newTierPriceCents: 10000, wantCents: 27},
		{name: "half-up rounding", daysRemaining: 37, newTierPriceCents: 10000, wantCents: 1014},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			endDate := prorationTestNow.AddDate(0, 0, tc.daysRemaining)
			membership := paidMembershipEnding(t, endDate)

			quote := ComputeUpgrade(membership, tc.newTierPriceCents, prorationTestNow, 365)
			if !quote.Eligible {
				t.Fatalf("membership should be eligible, got reason %q", quote.Reason)
			}
			if quote.DaysRemaining != tc.daysRemaining {
				t.Fatalf("days remaining: got %d, want %d", quote.DaysRemaining, tc.daysRemaining)
			}
			if quote.ProRatedPriceCents != tc.wantCents {
				t.Fatalf("pro-rated price: got %d, want %d", quote.ProRatedPriceCents, tc.wantCents)
			}
		})
	}
}

func TestComputeUpgradePartialDayCountsAsFull(t *testing.T) {
	endDate := prorationTestNow.Add(36 * time.Hour)
	membership := paidMembershipEnding(t, endDate)

	quote := ComputeUpgrade(membership, 10000, prorationTestNow, 365)
	if quote.DaysRemaining != 2 {
		t.Fatalf("days remaining: got %d, want 2", quote.DaysRemaining)
	}
}

func TestComputeUpgradeExpiredChargesNothing(t *testing.T) {
	endDate := prorationTestNow.AddDate(0, 0, 30)
	membership := paidMembershipEnding(t, endDate)

	quote := ComputeUpgrade(membership, 10000, endDate.AddDate(0, 0, 1), 365)
	if quote.Eligible {
		t.Fatalf("expired membership must not be eligible")
	}
	if quote.Reason != "membership is not active" {
		t.Fatalf("got reason %q", quote.Reason)
	}
	if quote.ProRatedPriceCents != 0 {
		t.Fatalf("expired membership must price at zero, got %d", quote.ProRatedPriceCents)
	}
}

func TestComputeUpgradeIneligibilityReasons(t *testing.T) {
	endDate := prorationTestNow.AddDate(0, 0, 100)

	t.Run("unpaid", func(t *testing.T) {
		membership := paidMembershipEnding(t, endDate)
		membership.PaymentStatus = entities.PaymentStatusPending
		quote := ComputeUpgrade(membership, 10000, prorationTestNow, 365)
		if quote.Eligible || quote.Reason != "membership is not paid" {
			t.Fatalf("got eligible=%v reason=%q", quote.Eligible, quote.Reason)
		}
	})

	t.Run("already upgraded", func(t *testing.T) {
		membership := paidMembershipEnding(t, endDate)
		if _, err := membership.EnableTeamAddon("Springfield Rockets", prorationTestNow); err != nil {
			t.Fatalf("enable team addon failed: %v", err)
		}
		quote := ComputeUpgrade(membership, 10000, prorationTestNow, 365)
		if quote.Eligible || quote.Reason != "membership already has the team upgrade" {
			t.Fatalf("got eligible=%v reason=%q", quote.Eligible, quote.Reason)
		}
	})

	t.Run("no end date", func(t *testing.T) {
		membership := paidMembershipEnding(t, endDate)
		membership.EndDate = nil
		quote := ComputeUpgrade(membership, 10000, prorationTestNow, 365)
		if quote.Eligible || quote.Reason != "membership has no end date" {
			t.Fatalf("got eligible=%v reason=%q", quote.Eligible, quote.Reason)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		membership := paidMembershipEnding(t, endDate)
		if _, _, err := membership.CancelImmediate("done", "user-1", prorationTestNow); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		quote := ComputeUpgrade(membership, 10000, prorationTestNow, 365)
		if quote.Eligible || quote.Reason != "membership is not active" {
			t.Fatalf("got eligible=%v reason=%q", quote.Eligible, quote.Reason)
		}
	})
}
