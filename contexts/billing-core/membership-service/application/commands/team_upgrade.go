package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "memberhub/contexts/billing-core/membership-service/application"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/domain/services"
	"memberhub/contexts/billing-core/membership-service/ports"
)

// PaymentTypeTeamUpgrade tags gateway intents so the webhook handler can
// route them without inspecting the membership state.
const PaymentTypeTeamUpgrade = "team_upgrade"

type CreateTeamUpgradeIntentCommand struct {
	MembershipID    string
	TeamName        string
	TeamDescription string
	ActorID         string
}

type CreateTeamUpgradeIntentResult struct {
	ClientSecret       string
	PaymentIntentID    string
	ProRatedPriceCents int64
	DaysRemaining      int
}

type CreateTeamUpgradeIntentUseCase struct {
	Memberships        ports.MembershipRepository
	Gateway            ports.PaymentGateway
	Clock              ports.Clock
	TeamTierPriceCents int64
	PeriodDays         int
	Logger             *slog.Logger
}

// Execute prices the upgrade against the remaining paid period and opens a
// gateway payment intent for the pro-rated amount. The membership itself is
// untouched until the gateway confirms capture via webhook.
func (u CreateTeamUpgradeIntentUseCase) Execute(
	ctx context.Context,
	cmd CreateTeamUpgradeIntentCommand,
) (CreateTeamUpgradeIntentResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.MembershipID) == "" || strings.TrimSpace(cmd.TeamName) == "" {
		return CreateTeamUpgradeIntentResult{}, domainerrors.ErrValidation
	}

	membership, err := u.Memberships.GetMembership(ctx, cmd.MembershipID)
	if err != nil {
		return CreateTeamUpgradeIntentResult{}, err
	}

	now := u.now()
	quote := services.ComputeUpgrade(membership, u.TeamTierPriceCents, now, u.PeriodDays)
	if !quote.Eligible {
		return CreateTeamUpgradeIntentResult{}, fmt.Errorf("%w: %s", domainerrors.ErrValidation, quote.Reason)
	}
	if quote.ProRatedPriceCents <= 0 {
		return CreateTeamUpgradeIntentResult{}, fmt.Errorf("%w: nothing to charge for the remaining period", domainerrors.ErrValidation)
	}

	intent, err := u.Gateway.CreatePaymentIntent(ctx, ports.CreateIntentInput{
		AmountCents:    quote.ProRatedPriceCents,
		Currency:       membership.Currency,
		Description:    "Team upgrade: " + strings.TrimSpace(cmd.TeamName),
		IdempotencyKey: teamUpgradeIdempotencyKey(membership.MembershipID, cmd.TeamName),
		Metadata: map[string]string{
			"paymentType":        PaymentTypeTeamUpgrade,
			"membershipId":       membership.MembershipID,
			"teamName":           strings.TrimSpace(cmd.TeamName),
			"teamDescription":    strings.TrimSpace(cmd.TeamDescription),
			"originalPriceCents": strconv.FormatInt(quote.OriginalPriceCents, 10),
			"proRatedPriceCents": strconv.FormatInt(quote.ProRatedPriceCents, 10),
			"daysRemaining":      strconv.Itoa(quote.DaysRemaining),
		},
	})
	if err != nil {
		return CreateTeamUpgradeIntentResult{}, fmt.Errorf("%w: %v", domainerrors.ErrGateway, err)
	}

	logger.Info("team upgrade intent created",
		"event", "team_upgrade_intent_created",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"payment_intent_id", intent.ID,
		"amount_cents", quote.ProRatedPriceCents,
		"actor_id", cmd.ActorID,
	)
	return CreateTeamUpgradeIntentResult{
		ClientSecret:       intent.ClientSecret,
		PaymentIntentID:    intent.ID,
		ProRatedPriceCents: quote.ProRatedPriceCents,
		DaysRemaining:      quote.DaysRemaining,
	}, nil
}

func (u CreateTeamUpgradeIntentUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func teamUpgradeIdempotencyKey(membershipID string, teamName string) string {
	sum := sha256.Sum256([]byte("team_upgrade:" + membershipID + ":" + strings.TrimSpace(teamName)))
	return hex.EncodeToString(sum[:])
}
