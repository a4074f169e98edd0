package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/domain/services"
	"memberhub/contexts/billing-core/membership-service/ports"
)

type GetMembershipUseCase struct {
	Memberships ports.MembershipRepository
	Logger      *slog.Logger
}

func (u GetMembershipUseCase) Execute(ctx context.Context, membershipID string) (entities.Membership, error) {
	if strings.TrimSpace(membershipID) == "" {
		return entities.Membership{}, domainerrors.ErrValidation
	}
	return u.Memberships.GetMembership(ctx, membershipID)
}

// GetTeamUpgradeDetailsUseCase prices the team upgrade without taking any
// lock. The quote is advisory; the payment-intent command re-validates.
type GetTeamUpgradeDetailsUseCase struct {
	Memberships        ports.MembershipRepository
	Clock              ports.Clock
	TeamTierPriceCents int64
	PeriodDays         int
	Logger             *slog.Logger
}

func (u GetTeamUpgradeDetailsUseCase) Execute(ctx context.Context, membershipID string) (services.UpgradeQuote, error) {
	if strings.TrimSpace(membershipID) == "" {
		return services.UpgradeQuote{}, domainerrors.ErrValidation
	}
	membership, err := u.Memberships.GetMembership(ctx, membershipID)
	if err != nil {
		return services.UpgradeQuote{}, err
	}
	return services.ComputeUpgrade(membership, u.TeamTierPriceCents, u.now(), u.PeriodDays), nil
}

func (u GetTeamUpgradeDetailsUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
