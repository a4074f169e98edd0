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

// DefaultCancelReason is filled in when a member cancels without giving one.
const DefaultCancelReason = "Member requested cancellation"

type CancelMembershipCommand struct {
	MembershipID string
	Mode         entities.CancelMode
	Reason       string
	ActorID      string
}

type CancelMembershipResult struct {
	Membership       entities.Membership
	Message          string
	EffectiveEndDate time.Time
	Changed          bool
}

type CancelMembershipUseCase struct {
	Memberships ports.MembershipRepository
	Locker      ports.EntityLocker
	Clock       ports.Clock
	Logger      *slog.Logger
}

// Execute cancels a membership in one of two modes. Immediate ends access
// now; at_renewal lets the paid period run out. Cancelling an already
// cancelled membership replays the prior effective end date.
func (u CancelMembershipUseCase) Execute(ctx context.Context, cmd CancelMembershipCommand) (CancelMembershipResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.MembershipID) == "" {
		return CancelMembershipResult{}, domainerrors.ErrValidation
	}
	reason, err := normalizeCancelReason(cmd.Reason)
	if err != nil {
		return CancelMembershipResult{}, err
	}

	release, err := u.Locker.Acquire(ctx, "membership:"+cmd.MembershipID)
	if err != nil {
		return CancelMembershipResult{}, err
	}
	defer release()

	membership, err := u.Memberships.GetMembership(ctx, cmd.MembershipID)
	if err != nil {
		return CancelMembershipResult{}, err
	}

	now := u.now()
	var effectiveEnd time.Time
	var changed bool
	switch cmd.Mode {
	case entities.CancelModeImmediate:
		effectiveEnd, changed, err = membership.CancelImmediate(reason, cmd.ActorID, now)
	case entities.CancelModeAtRenewal:
		effectiveEnd, changed, err = membership.CancelAtRenewal(reason, cmd.ActorID, now)
	default:
		return CancelMembershipResult{}, domainerrors.ErrValidation
	}
	if err != nil {
		return CancelMembershipResult{}, err
	}

	if !changed {
		return CancelMembershipResult{
			Membership:       membership,
			Message:          "membership already cancelled",
			EffectiveEndDate: effectiveEnd,
			Changed:          false,
		}, nil
	}

	if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
		return CancelMembershipResult{}, err
	}

	logger.Info("membership cancelled",
		"event", "membership_cancelled",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"mode", string(cmd.Mode),
		"actor_id", cmd.ActorID,
		"effective_end_date", effectiveEnd,
	)

	message := "membership cancelled"
	if cmd.Mode == entities.CancelModeAtRenewal {
		message = "membership will not renew"
	}
	return CancelMembershipResult{
		Membership:       membership,
		Message:          message,
		EffectiveEndDate: effectiveEnd,
		Changed:          true,
	}, nil
}

func (u CancelMembershipUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

// normalizeCancelReason trims the reason, enforces a minimal length when one
// was supplied and defaults to the member-request wording otherwise.
func normalizeCancelReason(raw string) (string, error) {
	reason := strings.TrimSpace(raw)
	if reason == "" {
		return DefaultCancelReason, nil
	}
	if len(reason) < 3 {
		return "", domainerrors.ErrValidation
	}
	return reason, nil
}
