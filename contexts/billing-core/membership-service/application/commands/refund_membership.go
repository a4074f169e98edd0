package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "memberhub/contexts/billing-core/membership-service/application"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

type RefundMembershipCommand struct {
	MembershipID string
	Reason       string
	ActorID      string
}

type RefundMembershipResult struct {
	Membership entities.Membership
	Message    string
	Refunded   bool
}

// RefundMembershipUseCase is the cancellation/refund orchestrator: the only
// code path that touches the membership, the payment gateway and the order
// ledger in one flow.
type RefundMembershipUseCase struct {
	Memberships ports.MembershipRepository
	Gateway     ports.PaymentGateway
	Billing     ports.BillingReconciler
	Locker      ports.EntityLocker
	Clock       ports.Clock
	Logger      *slog.Logger
}

// Execute cancels immediately and refunds the captured payment. The gateway
// call carries a deterministic idempotency key so a crash-and-retry can
// never move money twice. On gateway failure the membership stays cancelled
// with the refund flagged pending; that partial outcome is surfaced, never
// swallowed.
func (u RefundMembershipUseCase) Execute(ctx context.Context, cmd RefundMembershipCommand) (RefundMembershipResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.MembershipID) == "" {
		return RefundMembershipResult{}, domainerrors.ErrValidation
	}
	reason, err := normalizeCancelReason(cmd.Reason)
	if err != nil {
		return RefundMembershipResult{}, err
	}

	release, err := u.Locker.Acquire(ctx, "membership:"+cmd.MembershipID)
	if err != nil {
		return RefundMembershipResult{}, err
	}
	defer release()

	membership, err := u.Memberships.GetMembership(ctx, cmd.MembershipID)
	if err != nil {
		return RefundMembershipResult{}, err
	}

	if membership.PaymentStatus == entities.PaymentStatusRefunded {
		return RefundMembershipResult{
			Membership: membership,
			Message:    "membership already refunded",
			Refunded:   true,
		}, nil
	}

	now := u.now()
	if _, _, err := membership.CancelImmediate(reason, cmd.ActorID, now); err != nil {
		return RefundMembershipResult{}, err
	}

	// Admin grants and unpaid memberships have no captured payment. The
	// cancellation stands; no money moves.
	if membership.PaymentRef == "" || membership.PaymentStatus != entities.PaymentStatusPaid {
		if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
			return RefundMembershipResult{}, err
		}
		return RefundMembershipResult{
			Membership: membership,
			Message:    "membership cancelled, no payment to refund",
			Refunded:   false,
		}, nil
	}

	refund, gatewayErr := u.Gateway.Refund(ctx, ports.RefundInput{
		PaymentIntentID: membership.PaymentRef,
		IdempotencyKey:  refundIdempotencyKey(membership.MembershipID, reason),
		Reason:          reason,
	})
	if gatewayErr != nil {
		membership.FlagRefundPending(now)
		if saveErr := u.Memberships.SaveMembership(ctx, membership); saveErr != nil {
			return RefundMembershipResult{}, saveErr
		}
		logger.Error("membership refund failed at gateway",
			"event", "membership_refund_gateway_failed",
			"module", "billing-core/membership-service",
			"layer", "application",
			"membership_id", membership.MembershipID,
			"error", gatewayErr.Error(),
		)
		return RefundMembershipResult{
			Membership: membership,
			Message:    "membership cancelled, refund pending",
			Refunded:   false,
		}, fmt.Errorf("%w: %v", domainerrors.ErrRefundPending, gatewayErr)
	}

	if err := membership.MarkRefunded(now); err != nil {
		return RefundMembershipResult{}, err
	}
	if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
		return RefundMembershipResult{}, err
	}

	if membership.OrderID != "" {
		if err := u.Billing.RefundOrder(ctx, membership.OrderID, reason); err != nil {
			// The money already moved back; the ledger catches up on the
			// webhook redelivery path. Log, do not fail the refund.
			if !errors.Is(err, domainerrors.ErrNotFound) {
				logger.Error("order refund reconciliation failed",
					"event", "membership_refund_reconcile_failed",
					"module", "billing-core/membership-service",
					"layer", "application",
					"membership_id", membership.MembershipID,
					"order_id", membership.OrderID,
					"error", err.Error(),
				)
			}
		}
	}

	logger.Info("membership refunded",
		"event", "membership_refunded",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"refund_id", refund.ID,
		"actor_id", cmd.ActorID,
	)
	return RefundMembershipResult{
		Membership: membership,
		Message:    "membership cancelled and refunded",
		Refunded:   true,
	}, nil
}

func (u RefundMembershipUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

// refundIdempotencyKey derives a stable key from the membership and reason,
// so retries of the same refund collapse at the gateway.
func refundIdempotencyKey(membershipID string, reason string) string {
	sum := sha256.Sum256([]byte(membershipID + reason))
	return hex.EncodeToString(sum[:])
}
