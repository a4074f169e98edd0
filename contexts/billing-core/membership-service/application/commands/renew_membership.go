package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "memberhub/contexts/billing-core/membership-service/application"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

type RenewMembershipCommand struct {
	MembershipID string
	ActorID      string
}

type RenewMembershipUseCase struct {
	Memberships ports.MembershipRepository
	Locker      ports.EntityLocker
	Clock       ports.Clock
	PeriodDays  int
	Logger      *slog.Logger
}

// Execute extends the membership by the nominal period. Renewal and
// cancellation contend on the same lock; a cancelled membership renews as a
// conflict, never silently.
func (u RenewMembershipUseCase) Execute(ctx context.Context, cmd RenewMembershipCommand) (entities.Membership, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.MembershipID) == "" {
		return entities.Membership{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "membership:"+cmd.MembershipID)
	if err != nil {
		return entities.Membership{}, err
	}
	defer release()

	membership, err := u.Memberships.GetMembership(ctx, cmd.MembershipID)
	if err != nil {
		return entities.Membership{}, err
	}

	now := u.now()
	if err := membership.ExtendPeriod(u.periodDays(), now); err != nil {
		return entities.Membership{}, err
	}
	if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
		return entities.Membership{}, err
	}

	logger.Info("membership renewed",
		"event", "membership_renewed",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"end_date", membership.EndDate,
		"actor_id", cmd.ActorID,
	)
	return membership, nil
}

func (u RenewMembershipUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func (u RenewMembershipUseCase) periodDays() int {
	if u.PeriodDays <= 0 {
		return 365
	}
	return u.PeriodDays
}
