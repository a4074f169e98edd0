package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"memberhub/contexts/billing-core/membership-service/application/commands"
	"memberhub/contexts/billing-core/membership-service/application/queries"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	httptransport "memberhub/contexts/billing-core/membership-service/transport/http"
)

type Handler struct {
	CancelMembership        commands.CancelMembershipUseCase
	RefundMembership        commands.RefundMembershipUseCase
	RenewMembership         commands.RenewMembershipUseCase
	AdminCreateMembership   commands.AdminCreateMembershipUseCase
	CreateTeamUpgradeIntent commands.CreateTeamUpgradeIntentUseCase
	ProcessGatewayWebhook   commands.ProcessGatewayWebhookUseCase
	GetMembership           queries.GetMembershipUseCase
	GetTeamUpgradeDetails   queries.GetTeamUpgradeDetailsUseCase
	Logger                  *slog.Logger
}

func (h Handler) GetMembershipHandler(ctx context.Context, membershipID string) (httptransport.GetMembershipResponse, error) {
	membership, err := h.GetMembership.Execute(ctx, membershipID)
	if err != nil {
		return httptransport.GetMembershipResponse{}, err
	}
	return httptransport.GetMembershipResponse{Membership: mapMembership(membership)}, nil
}

func (h Handler) CancelMembershipHandler(
	ctx context.Context,
	membershipID string,
	actorID string,
	req httptransport.CancelMembershipRequest,
) (httptransport.CancelMembershipResponse, error) {
	mode := entities.CancelMode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = entities.CancelModeImmediate
	}
	result, err := h.CancelMembership.Execute(ctx, commands.CancelMembershipCommand{
		MembershipID: membershipID,
		Mode:         mode,
		Reason:       req.Reason,
		ActorID:      actorID,
	})
	if err != nil {
		return httptransport.CancelMembershipResponse{}, err
	}
	return httptransport.CancelMembershipResponse{
		Message:          result.Message,
		EffectiveEndDate: result.EffectiveEndDate.UTC().Format(time.RFC3339),
		Membership:       mapMembership(result.Membership),
	}, nil
}

func (h Handler) RefundMembershipHandler(
	ctx context.Context,
	membershipID string,
	actorID string,
	req httptransport.RefundMembershipRequest,
) (httptransport.RefundMembershipResponse, error) {
	result, err := h.RefundMembership.Execute(ctx, commands.RefundMembershipCommand{
		MembershipID: membershipID,
		Reason:       req.Reason,
		ActorID:      actorID,
	})
	if err != nil {
		return httptransport.RefundMembershipResponse{}, err
	}
	return httptransport.RefundMembershipResponse{
		Message:    result.Message,
		Refunded:   result.Refunded,
		Membership: mapMembership(result.Membership),
	}, nil
}

func (h Handler) RenewMembershipHandler(
	ctx context.Context,
	membershipID string,
	actorID string,
) (httptransport.RenewMembershipResponse, error) {
	membership, err := h.RenewMembership.Execute(ctx, commands.RenewMembershipCommand{
		MembershipID: membershipID,
		ActorID:      actorID,
	})
	if err != nil {
		return httptransport.RenewMembershipResponse{}, err
	}
	return httptransport.RenewMembershipResponse{Membership: mapMembership(membership)}, nil
}

func (h Handler) AdminCreateMembershipHandler(
	ctx context.Context,
	actorID string,
	actorRole string,
	req httptransport.AdminCreateMembershipRequest,
) (httptransport.AdminCreateMembershipResponse, error) {
	var startDate time.Time
	if strings.TrimSpace(req.StartDate) != "" {
		parsed, err := parseTimestamp(req.StartDate)
		if err != nil {
			return httptransport.AdminCreateMembershipResponse{}, fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
		}
		startDate = parsed
	}
	priceCents, err := parsePriceCents(req.Price)
	if err != nil {
		return httptransport.AdminCreateMembershipResponse{}, fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
	}
	membership, err := h.AdminCreateMembership.Execute(ctx, commands.AdminCreateMembershipCommand{
		UserID:       req.UserID,
		TypeConfigID: req.TypeConfigID,
		TypeName:     req.TypeName,
		Tier:         req.Tier,
		PriceCents:   priceCents,
		Currency:     req.Currency,
		StartDate:    startDate,
		PeriodDays:   req.PeriodDays,
		ActorID:      actorID,
		ActorRole:    actorRole,
	})
	if err != nil {
		return httptransport.AdminCreateMembershipResponse{}, err
	}
	return httptransport.AdminCreateMembershipResponse{Membership: mapMembership(membership)}, nil
}

func (h Handler) TeamUpgradeDetailsHandler(
	ctx context.Context,
	membershipID string,
) (httptransport.TeamUpgradeDetailsResponse, error) {
	quote, err := h.GetTeamUpgradeDetails.Execute(ctx, membershipID)
	if err != nil {
		return httptransport.TeamUpgradeDetailsResponse{}, err
	}
	resp := httptransport.TeamUpgradeDetailsResponse{
		Eligible:      quote.Eligible,
		Reason:        quote.Reason,
		OriginalPrice: formatCents(quote.OriginalPriceCents),
		DaysRemaining: quote.DaysRemaining,
		ProRatedPrice: formatCents(quote.ProRatedPriceCents),
	}
	if quote.MembershipEndDate != nil {
		resp.MembershipEndDate = quote.MembershipEndDate.UTC().Format(time.RFC3339)
	}
	return resp, nil
}

func (h Handler) CreateTeamUpgradeIntentHandler(
	ctx context.Context,
	membershipID string,
	actorID string,
	req httptransport.CreateTeamUpgradeIntentRequest,
) (httptransport.CreateTeamUpgradeIntentResponse, error) {
	result, err := h.CreateTeamUpgradeIntent.Execute(ctx, commands.CreateTeamUpgradeIntentCommand{
		MembershipID:    membershipID,
		TeamName:        req.TeamName,
		TeamDescription: req.TeamDescription,
		ActorID:         actorID,
	})
	if err != nil {
		return httptransport.CreateTeamUpgradeIntentResponse{}, err
	}
	return httptransport.CreateTeamUpgradeIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.PaymentIntentID,
		ProRatedPrice:   formatCents(result.ProRatedPriceCents),
		DaysRemaining:   result.DaysRemaining,
	}, nil
}

// GatewayWebhookHandler takes the raw body and signature header untouched so
// the gateway adapter can verify it.
func (h Handler) GatewayWebhookHandler(
	ctx context.Context,
	payload []byte,
	signature string,
) (httptransport.WebhookResponse, error) {
	if err := h.ProcessGatewayWebhook.Execute(ctx, payload, signature); err != nil {
		return httptransport.WebhookResponse{}, err
	}
	return httptransport.WebhookResponse{Received: true}, nil
}

func mapMembership(membership entities.Membership) httptransport.MembershipDTO {
	dto := httptransport.MembershipDTO{
		MembershipID:  membership.MembershipID,
		UserID:        membership.UserID,
		TypeConfigID:  membership.TypeConfigID,
		TypeName:      membership.TypeName,
		Tier:          membership.Tier,
		Price:         formatCents(membership.PriceCents),
		Currency:      membership.Currency,
		Status:        string(membership.Status),
		PaymentStatus: string(membership.PaymentStatus),
		StartDate:     membership.StartDate.UTC().Format(time.RFC3339),
		PaymentRef:    membership.PaymentRef,
		OrderID:       membership.OrderID,
		AutoRenew:     membership.AutoRenew,
		CancelReason:  membership.CancelReason,
		CancelledBy:   membership.CancelledBy,
		TeamAddon:     membership.TeamAddon,
		TeamName:      membership.TeamName,
		RefundPending: membership.RefundPending,
		AdminGrant:    membership.AdminGrant,
		CreatedAt:     membership.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     membership.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if membership.EndDate != nil {
		dto.EndDate = membership.EndDate.UTC().Format(time.RFC3339)
	}
	if membership.CancelledAt != nil {
		dto.CancelledAt = membership.CancelledAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return parsed.UTC(), nil
}

// formatCents renders minor units as a decimal with two fraction digits.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// parsePriceCents parses a decimal string such as "50.00" into minor units.
// At most two fraction digits are accepted.
func parsePriceCents(value string) (int64, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 0, fmt.Errorf("price is required")
	}
	wholePart, fracPart, hasFrac := strings.Cut(raw, ".")
	if wholePart == "" {
		wholePart = "0"
	}
	if hasFrac && len(fracPart) > 2 {
		return 0, fmt.Errorf("price has more than two fraction digits")
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	return whole*100 + frac, nil
}
