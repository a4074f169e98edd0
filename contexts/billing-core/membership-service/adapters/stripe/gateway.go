package stripeadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

// Gateway adapts the Stripe API to the payment gateway port. Stripe types do
// not leak past this package.
type Gateway struct {
	client        *client.API
	webhookSecret string
	timeout       time.Duration
	logger        *slog.Logger
}

func NewGateway(apiKey string, webhookSecret string, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &Gateway{
		client:        sc,
		webhookSecret: webhookSecret,
		timeout:       timeout,
		logger:        logger,
	}
}

// Outbound calls are bounded so a stalled provider cannot pin a request
// handler for longer than the configured timeout.
func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, input ports.CreateIntentInput) (ports.PaymentIntent, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(input.AmountCents),
		Currency:    stripe.String(input.Currency),
		Description: stripe.String(input.Description),
	}
	params.Context = ctx
	if input.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(input.IdempotencyKey)
	}
	if len(input.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(input.Metadata))
		for key, value := range input.Metadata {
			params.Metadata[key] = value
		}
	}

	intent, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return ports.PaymentIntent{}, g.mapError("create payment intent", err)
	}
	return ports.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (g *Gateway) Refund(ctx context.Context, input ports.RefundInput) (ports.RefundResult, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(input.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if input.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(input.IdempotencyKey)
	}
	if input.Reason != "" {
		params.Metadata = map[string]string{"reason": input.Reason}
	}

	refund, err := g.client.Refunds.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			// The money is already back with the member. Treat as settled.
			g.logger.Info("stripe refund already settled",
				"event", "gateway_refund_already_settled",
				"module", "billing-core/membership-service",
				"layer", "adapter",
				"payment_intent_id", input.PaymentIntentID,
			)
			return ports.RefundResult{Status: "succeeded"}, nil
		}
		return ports.RefundResult{}, g.mapError("refund", err)
	}
	return ports.RefundResult{
		ID:     refund.ID,
		Status: string(refund.Status),
	}, nil
}

func (g *Gateway) VerifyWebhook(payload []byte, signature string) (ports.GatewayEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return ports.GatewayEvent{}, fmt.Errorf("verify webhook signature: %w", err)
	}

	mapped := ports.GatewayEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}
	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return ports.GatewayEvent{}, fmt.Errorf("decode payment intent event: %w", err)
		}
		mapped.PaymentIntentID = intent.ID
		mapped.AmountCents = intent.Amount
		mapped.Currency = string(intent.Currency)
		mapped.Metadata = intent.Metadata
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return ports.GatewayEvent{}, fmt.Errorf("decode charge event: %w", err)
		}
		if charge.PaymentIntent != nil {
			mapped.PaymentIntentID = charge.PaymentIntent.ID
		}
		mapped.AmountCents = charge.AmountRefunded
		mapped.Currency = string(charge.Currency)
		mapped.Metadata = charge.Metadata
	}
	return mapped, nil
}

func (g *Gateway) mapError(operation string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %s: %s (%s)", domainerrors.ErrGateway, operation, stripeErr.Msg, stripeErr.Code)
	}
	return fmt.Errorf("%w: %s: %v", domainerrors.ErrGateway, operation, err)
}
