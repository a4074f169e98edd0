package services

import (
	"time"

	"memberhub/contexts/billing-core/membership-service/domain/entities"
)

const DefaultPeriodDays = 365

// UpgradeQuote is the advisory result of a proration check. Ineligibility is
// data, not an error: the caller renders the reason to the member.
type UpgradeQuote struct {
	Eligible           bool
	Reason             string
	OriginalPriceCents int64
	DaysRemaining      int
	ProRatedPriceCents int64
	MembershipEndDate  *time.Time
}

// ComputeUpgrade prices a mid-period upgrade against the remaining paid
// time. The charge is the new tier price scaled by days remaining over the
// nominal period, rounded half-up on cents.
func ComputeUpgrade(
	m entities.Membership,
	newTierPriceCents int64,
	now time.Time,
	totalPeriodDays int,
) UpgradeQuote {
	if totalPeriodDays <= 0 {
		totalPeriodDays = DefaultPeriodDays
	}
	quote := UpgradeQuote{
		OriginalPriceCents: newTierPriceCents,
		MembershipEndDate:  m.EndDate,
	}

	if !m.IsActive(now) {
		quote.Reason = "membership is not active"
		return quote
	}
	if m.PaymentStatus != entities.PaymentStatusPaid {
		quote.Reason = "membership is not paid"
		return quote
	}
	if m.TeamAddon {
		quote.Reason = "membership already has the team upgrade"
		return quote
	}
	if m.EndDate == nil {
		quote.Reason = "membership has no end date"
		return quote
	}

	quote.Eligible = true
	quote.DaysRemaining = daysRemaining(*m.EndDate, now)
	quote.ProRatedPriceCents = prorate(newTierPriceCents, quote.DaysRemaining, totalPeriodDays)
	return quote
}

// daysRemaining is ceil(endDate - now) in whole days, floored at zero. A
// partial day still counts as a full remaining day.
func daysRemaining(endDate time.Time, now time.Time) int {
	remaining := endDate.UTC().Sub(now.UTC())
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// prorate scales price by daysRemaining/totalPeriodDays with half-up
// rounding in integer cents.
func prorate(priceCents int64, daysRemaining int, totalPeriodDays int) int64 {
	if daysRemaining <= 0 || priceCents <= 0 {
		return 0
	}
	numerator := priceCents * int64(daysRemaining)
	denominator := int64(totalPeriodDays)
	return (numerator + denominator/2) / denominator
}
