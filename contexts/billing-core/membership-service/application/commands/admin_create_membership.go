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

const roleAdmin = "admin"

type AdminCreateMembershipCommand struct {
	UserID       string
	TypeConfigID string
	TypeName     string
	Tier         string
	PriceCents   int64
	Currency     string
	StartDate    time.Time
	PeriodDays   int
	ActorID      string
	ActorRole    string
}

type AdminCreateMembershipUseCase struct {
	Memberships ports.MembershipRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	PeriodDays  int
	Logger      *slog.Logger
}

// Execute grants a membership without a payment. The record is born paid
// and flagged as an admin grant so the refund path knows no money moved.
func (u AdminCreateMembershipUseCase) Execute(
	ctx context.Context,
	cmd AdminCreateMembershipCommand,
) (entities.Membership, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.ActorRole) != roleAdmin {
		return entities.Membership{}, domainerrors.ErrForbidden
	}
	if strings.TrimSpace(cmd.TypeConfigID) == "" {
		return entities.Membership{}, domainerrors.ErrValidation
	}

	now := u.now()
	startDate := cmd.StartDate.UTC()
	if startDate.IsZero() {
		startDate = now
	}
	periodDays := cmd.PeriodDays
	if periodDays <= 0 {
		periodDays = u.periodDays()
	}
	endDate := startDate.AddDate(0, 0, periodDays)

	membershipID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Membership{}, err
	}

	membership, err := entities.NewMembership(
		membershipID,
		cmd.UserID,
		cmd.TypeConfigID,
		cmd.TypeName,
		cmd.Tier,
		cmd.PriceCents,
		cmd.Currency,
		startDate,
		&endDate,
		now,
	)
	if err != nil {
		return entities.Membership{}, err
	}
	membership.AdminGrant = true
	if err := membership.MarkPaid("", now); err != nil {
		return entities.Membership{}, err
	}

	if err := u.Memberships.CreateMembership(ctx, membership); err != nil {
		return entities.Membership{}, err
	}

	logger.Info("membership granted by admin",
		"event", "membership_admin_granted",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"user_id", membership.UserID,
		"actor_id", cmd.ActorID,
	)
	return membership, nil
}

func (u AdminCreateMembershipUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func (u AdminCreateMembershipUseCase) periodDays() int {
	if u.PeriodDays <= 0 {
		return 365
	}
	return u.PeriodDays
}
