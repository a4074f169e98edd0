package entities

import (
	"strings"
	"time"

	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
)

type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusCancelled MembershipStatus = "cancelled"
	MembershipStatusExpired   MembershipStatus = "expired"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// CancelModeImmediate ends the membership now; CancelModeAtRenewal lets the
// paid period run out and only disables auto-renewal.
type CancelMode string

const (
	CancelModeImmediate CancelMode = "immediate"
	CancelModeAtRenewal CancelMode = "at_renewal"
)

// Membership is a member's paid (or granted) access record. It is never
// deleted once money moved; every later change is a status transition.
type Membership struct {
	MembershipID  string
	UserID        string // empty for guest memberships not yet linked
	TypeConfigID  string
	TypeName      string
	Tier          string
	PriceCents    int64
	Currency      string
	Status        MembershipStatus
	PaymentStatus PaymentStatus
	StartDate     time.Time
	EndDate       *time.Time
	PaymentRef    string // gateway payment intent id once captured
	OrderID       string
	AutoRenew     bool
	CancelledAt   *time.Time
	CancelReason  string
	CancelledBy   string
	TeamAddon     bool
	TeamName      string
	RefundPending bool
	AdminGrant    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewMembership(
	membershipID string,
	userID string,
	typeConfigID string,
	typeName string,
	tier string,
	priceCents int64,
	currency string,
	startDate time.Time,
	endDate *time.Time,
	now time.Time,
) (Membership, error) {
	if strings.TrimSpace(membershipID) == "" || strings.TrimSpace(typeConfigID) == "" {
		return Membership{}, domainerrors.ErrValidation
	}
	if priceCents < 0 {
		return Membership{}, domainerrors.ErrValidation
	}
	if endDate != nil && !startDate.IsZero() && !endDate.After(startDate) {
		return Membership{}, domainerrors.ErrValidation
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}

	return Membership{
		MembershipID:  strings.TrimSpace(membershipID),
		UserID:        strings.TrimSpace(userID),
		TypeConfigID:  strings.TrimSpace(typeConfigID),
		TypeName:      strings.TrimSpace(typeName),
		Tier:          strings.TrimSpace(tier),
		PriceCents:    priceCents,
		Currency:      currency,
		Status:        MembershipStatusActive,
		PaymentStatus: PaymentStatusPending,
		StartDate:     startDate.UTC(),
		EndDate:       normalizeOptionalTime(endDate),
		AutoRenew:     true,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

// MarkPaid records payment capture. A paid membership must carry either the
// gateway reference or the admin-grant flag.
func (m *Membership) MarkPaid(paymentRef string, now time.Time) error {
	paymentRef = strings.TrimSpace(paymentRef)
	switch m.PaymentStatus {
	case PaymentStatusPaid:
		// webhook redelivery
		if paymentRef == "" || m.PaymentRef == paymentRef {
			return nil
		}
		return domainerrors.ErrInvalidTransition
	case PaymentStatusRefunded:
		return domainerrors.ErrInvalidTransition
	}
	if paymentRef == "" && !m.AdminGrant {
		return domainerrors.ErrValidation
	}
	m.PaymentStatus = PaymentStatusPaid
	m.PaymentRef = paymentRef
	m.UpdatedAt = now.UTC()
	return nil
}

// CancelImmediate ends the membership now. Repeated cancellation is a no-op
// reporting the prior effective end date.
func (m *Membership) CancelImmediate(reason string, actorID string, now time.Time) (time.Time, bool, error) {
	if m.Status == MembershipStatusCancelled {
		return m.effectiveEnd(now), false, nil
	}
	endDate := now.UTC()
	cancelledAt := now.UTC()
	m.Status = MembershipStatusCancelled
	m.EndDate = &endDate
	m.AutoRenew = false
	m.CancelledAt = &cancelledAt
	m.CancelReason = strings.TrimSpace(reason)
	m.CancelledBy = strings.TrimSpace(actorID)
	m.UpdatedAt = now.UTC()
	return endDate, true, nil
}

// CancelAtRenewal keeps the paid period intact and disables auto-renewal.
// The membership reads active until its end date passes.
func (m *Membership) CancelAtRenewal(reason string, actorID string, now time.Time) (time.Time, bool, error) {
	if m.Status == MembershipStatusCancelled {
		return m.effectiveEnd(now), false, nil
	}
	if m.EndDate == nil {
		return time.Time{}, false, domainerrors.ErrValidation
	}
	cancelledAt := now.UTC()
	m.Status = MembershipStatusCancelled
	m.AutoRenew = false
	m.CancelledAt = &cancelledAt
	m.CancelReason = strings.TrimSpace(reason)
	m.CancelledBy = strings.TrimSpace(actorID)
	m.UpdatedAt = now.UTC()
	return m.EndDate.UTC(), true, nil
}

// MarkRefunded settles the refund outcome. Only a paid membership can move
// here; replay is a no-op.
func (m *Membership) MarkRefunded(now time.Time) error {
	switch m.PaymentStatus {
	case PaymentStatusRefunded:
		return nil
	case PaymentStatusPaid:
		m.PaymentStatus = PaymentStatusRefunded
		m.RefundPending = false
		m.UpdatedAt = now.UTC()
		return nil
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// FlagRefundPending records that cancellation stuck while the gateway
// refund did not go through.
func (m *Membership) FlagRefundPending(now time.Time) {
	m.RefundPending = true
	m.UpdatedAt = now.UTC()
}

// EnableTeamAddon upgrades the membership to a team plan. Replay with the
// same team name is a no-op.
func (m *Membership) EnableTeamAddon(teamName string, now time.Time) (bool, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return false, domainerrors.ErrValidation
	}
	if m.TeamAddon {
		if m.TeamName == teamName {
			return false, nil
		}
		return false, domainerrors.ErrInvalidTransition
	}
	m.TeamAddon = true
	m.TeamName = teamName
	m.UpdatedAt = now.UTC()
	return true, nil
}

// ExtendPeriod pushes the end date out by the nominal period. Renewing a
// cancelled membership is a conflict, not a transition.
func (m *Membership) ExtendPeriod(days int, now time.Time) error {
	if days <= 0 {
		return domainerrors.ErrValidation
	}
	if m.Status == MembershipStatusCancelled {
		return domainerrors.ErrConflict
	}
	base := now.UTC()
	if m.EndDate != nil && m.EndDate.After(base) {
		base = m.EndDate.UTC()
	}
	extended := base.AddDate(0, 0, days)
	m.EndDate = &extended
	m.Status = MembershipStatusActive
	m.UpdatedAt = now.UTC()
	return nil
}

// IsActive reports whether the membership grants access at the given time.
func (m Membership) IsActive(now time.Time) bool {
	if m.Status != MembershipStatusActive {
		return false
	}
	if m.EndDate != nil && !m.EndDate.After(now.UTC()) {
		return false
	}
	return true
}

func (m Membership) effectiveEnd(now time.Time) time.Time {
	if m.EndDate != nil {
		return m.EndDate.UTC()
	}
	return now.UTC()
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
