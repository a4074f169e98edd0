package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	application "memberhub/contexts/billing-core/membership-service/application"
	"memberhub/contexts/billing-core/membership-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

const (
	eventTypePaymentSucceeded = "payment_intent.succeeded"
	eventTypeChargeRefunded   = "charge.refunded"

	webhookDedupTTL = 30 * 24 * time.Hour
)

// ProcessGatewayWebhookUseCase is the ingress for payment provider events:
// verify the signature, reserve the event id, then dispatch. Redelivered
// events short-circuit at the reservation; a failed dispatch releases it so
// the retry goes through. Handlers stay no-op safe anyway because the
// provider's at-least-once contract can outlive the dedup TTL.
type ProcessGatewayWebhookUseCase struct {
	Gateway          ports.PaymentGateway
	Dedup            ports.EventDedup
	PaymentSucceeded HandlePaymentSucceededUseCase
	ChargeRefunded   HandleChargeRefundedUseCase
	Clock            ports.Clock
	Logger           *slog.Logger
}

func (u ProcessGatewayWebhookUseCase) Execute(ctx context.Context, payload []byte, signature string) error {
	logger := application.ResolveLogger(u.Logger)

	event, err := u.Gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
	}

	payloadHash := sha256.Sum256(payload)
	seen, err := u.Dedup.ReserveEvent(ctx, event.ID, hex.EncodeToString(payloadHash[:]), u.now().Add(webhookDedupTTL))
	if err != nil {
		return err
	}
	if seen {
		logger.Info("gateway event replayed",
			"event", "gateway_webhook_replayed",
			"module", "billing-core/membership-service",
			"layer", "application",
			"gateway_event_id", event.ID,
			"gateway_event_type", event.Type,
		)
		return nil
	}

	var dispatchErr error
	switch event.Type {
	case eventTypePaymentSucceeded:
		dispatchErr = u.PaymentSucceeded.Execute(ctx, event)
	case eventTypeChargeRefunded:
		dispatchErr = u.ChargeRefunded.Execute(ctx, event)
	default:
		logger.Info("gateway event ignored",
			"event", "gateway_webhook_ignored",
			"module", "billing-core/membership-service",
			"layer", "application",
			"gateway_event_type", event.Type,
		)
		return nil
	}
	if dispatchErr != nil {
		// A reservation held across a failed dispatch would make the
		// provider's retry read as a replay and never be applied.
		if releaseErr := u.Dedup.ReleaseEvent(ctx, event.ID); releaseErr != nil {
			logger.Error("gateway event release failed",
				"event", "gateway_webhook_release_failed",
				"module", "billing-core/membership-service",
				"layer", "application",
				"gateway_event_id", event.ID,
				"error", releaseErr.Error(),
			)
		}
		return dispatchErr
	}
	return nil
}

func (u ProcessGatewayWebhookUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

// HandlePaymentSucceededUseCase applies a captured payment. Metadata routes
// team upgrades; everything else is a membership checkout matched by payment
// reference, creating the membership record on first delivery.
type HandlePaymentSucceededUseCase struct {
	Memberships ports.MembershipRepository
	Billing     ports.BillingReconciler
	Locker      ports.EntityLocker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	PeriodDays  int
	Logger      *slog.Logger
}

func (u HandlePaymentSucceededUseCase) Execute(ctx context.Context, event ports.GatewayEvent) error {
	if event.Metadata["paymentType"] == PaymentTypeTeamUpgrade {
		return u.applyTeamUpgrade(ctx, event)
	}
	return u.applyMembershipPayment(ctx, event)
}

func (u HandlePaymentSucceededUseCase) applyMembershipPayment(ctx context.Context, event ports.GatewayEvent) error {
	logger := application.ResolveLogger(u.Logger)

	// Serialize per payment intent so a redelivery racing the first
	// delivery cannot create the membership twice.
	release, err := u.Locker.Acquire(ctx, "payment:"+event.PaymentIntentID)
	if err != nil {
		return err
	}
	defer release()

	membership, found, err := u.Memberships.GetMembershipByPaymentRef(ctx, event.PaymentIntentID)
	if err != nil {
		return err
	}
	now := u.now()

	if !found {
		created, createErr := u.createFromCheckout(ctx, event, now)
		if createErr != nil {
			return createErr
		}
		if !created {
			logger.Warn("payment succeeded for unknown membership",
				"event", "membership_payment_unmatched",
				"module", "billing-core/membership-service",
				"layer", "application",
				"payment_intent_id", event.PaymentIntentID,
			)
		}
		return nil
	}

	releaseMembership, err := u.Locker.Acquire(ctx, "membership:"+membership.MembershipID)
	if err != nil {
		return err
	}
	defer releaseMembership()

	// Re-read under the membership lock: the lookup above ran lock-free.
	membership, err = u.Memberships.GetMembership(ctx, membership.MembershipID)
	if err != nil {
		return err
	}

	wasPaid := membership.PaymentStatus == entities.PaymentStatusPaid
	if err := membership.MarkPaid(event.PaymentIntentID, now); err != nil {
		return err
	}
	if !wasPaid {
		if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
			return err
		}
	}

	// Reconcile the order even on a replayed payment: the first delivery
	// may have settled the membership and then failed before the order
	// ledger caught up. CompleteOrder replays are idempotent.
	if membership.OrderID != "" {
		if err := u.Billing.CompleteOrder(ctx, membership.OrderID, event.PaymentIntentID); err != nil {
			return err
		}
	}
	if wasPaid {
		return nil
	}

	logger.Info("membership payment applied",
		"event", "membership_payment_applied",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"payment_intent_id", event.PaymentIntentID,
	)
	return nil
}

// createFromCheckout materializes the membership record on checkout
// completion. The checkout front stamps the intent metadata with everything
// needed; an intent without membership metadata is not ours to create.
func (u HandlePaymentSucceededUseCase) createFromCheckout(
	ctx context.Context,
	event ports.GatewayEvent,
	now time.Time,
) (bool, error) {
	logger := application.ResolveLogger(u.Logger)

	typeConfigID := event.Metadata["membershipTypeId"]
	if event.Metadata["paymentType"] != "membership" || typeConfigID == "" {
		return false, nil
	}

	membershipID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return false, err
	}
	endDate := now.AddDate(0, 0, u.periodDays())
	membership, err := entities.NewMembership(
		membershipID,
		event.Metadata["userId"],
		typeConfigID,
		event.Metadata["typeName"],
		event.Metadata["tier"],
		event.AmountCents,
		event.Currency,
		now,
		&endDate,
		now,
	)
	if err != nil {
		return false, err
	}
	membership.OrderID = event.Metadata["orderId"]
	if err := membership.MarkPaid(event.PaymentIntentID, now); err != nil {
		return false, err
	}
	if err := u.Memberships.CreateMembership(ctx, membership); err != nil {
		return false, err
	}

	if membership.OrderID != "" {
		if err := u.Billing.CompleteOrder(ctx, membership.OrderID, event.PaymentIntentID); err != nil {
			return false, err
		}
	}

	logger.Info("membership created from checkout",
		"event", "membership_checkout_created",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"payment_intent_id", event.PaymentIntentID,
	)
	return true, nil
}

func (u HandlePaymentSucceededUseCase) periodDays() int {
	if u.PeriodDays <= 0 {
		return 365
	}
	return u.PeriodDays
}

func (u HandlePaymentSucceededUseCase) applyTeamUpgrade(ctx context.Context, event ports.GatewayEvent) error {
	logger := application.ResolveLogger(u.Logger)

	membershipID := event.Metadata["membershipId"]
	teamName := event.Metadata["teamName"]
	if membershipID == "" || teamName == "" {
		return domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "membership:"+membershipID)
	if err != nil {
		return err
	}
	defer release()

	membership, err := u.Memberships.GetMembership(ctx, membershipID)
	if err != nil {
		return err
	}

	now := u.now()
	changed, err := membership.EnableTeamAddon(teamName, now)
	if err != nil {
		return err
	}
	if !changed {
		// team addon already applied by an earlier delivery
		return nil
	}
	if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
		return err
	}

	orderID, err := u.Billing.RecordTeamUpgradeOrder(ctx, ports.TeamUpgradeOrderInput{
		UserID:      membership.UserID,
		Description: "Team upgrade: " + teamName,
		AmountCents: event.AmountCents,
		Currency:    event.Currency,
		PaymentRef:  event.PaymentIntentID,
		ReferenceID: membership.MembershipID,
	})
	if err != nil {
		return err
	}

	logger.Info("team upgrade applied",
		"event", "membership_team_upgrade_applied",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"team_name", teamName,
		"order_id", orderID,
	)
	return nil
}

func (u HandlePaymentSucceededUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

// HandleChargeRefundedUseCase settles an out-of-band refund (issued from the
// provider dashboard or a delayed refund confirmation).
type HandleChargeRefundedUseCase struct {
	Memberships ports.MembershipRepository
	Billing     ports.BillingReconciler
	Locker      ports.EntityLocker
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (u HandleChargeRefundedUseCase) Execute(ctx context.Context, event ports.GatewayEvent) error {
	logger := application.ResolveLogger(u.Logger)

	membership, found, err := u.Memberships.GetMembershipByPaymentRef(ctx, event.PaymentIntentID)
	if err != nil {
		return err
	}
	if !found {
		logger.Warn("charge refunded for unknown membership",
			"event", "membership_refund_unmatched",
			"module", "billing-core/membership-service",
			"layer", "application",
			"payment_intent_id", event.PaymentIntentID,
		)
		return nil
	}

	release, err := u.Locker.Acquire(ctx, "membership:"+membership.MembershipID)
	if err != nil {
		return err
	}
	defer release()

	membership, err = u.Memberships.GetMembership(ctx, membership.MembershipID)
	if err != nil {
		return err
	}

	if membership.PaymentStatus == entities.PaymentStatusRefunded {
		return nil
	}

	now := u.now()
	if _, _, err := membership.CancelImmediate("Refund confirmed by payment provider", "system", now); err != nil {
		return err
	}
	if err := membership.MarkRefunded(now); err != nil {
		return err
	}
	if err := u.Memberships.SaveMembership(ctx, membership); err != nil {
		return err
	}

	if membership.OrderID != "" {
		if err := u.Billing.RefundOrder(ctx, membership.OrderID, "Charge refunded at gateway"); err != nil {
			if !errors.Is(err, domainerrors.ErrNotFound) {
				return err
			}
		}
	}

	logger.Info("membership refund settled from webhook",
		"event", "membership_refund_settled",
		"module", "billing-core/membership-service",
		"layer", "application",
		"membership_id", membership.MembershipID,
		"payment_intent_id", event.PaymentIntentID,
	)
	return nil
}

func (u HandleChargeRefundedUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
