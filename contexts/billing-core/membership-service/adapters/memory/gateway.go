package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	"memberhub/contexts/billing-core/membership-service/ports"
)

// Gateway is a fake payment gateway for tests and the in-memory bootstrap. It
// records calls, honors idempotency keys, and can be scripted to fail.
type Gateway struct {
	mu sync.Mutex

	intentsByKey map[string]ports.PaymentIntent
	refundsByKey map[string]ports.RefundResult
	refunded     map[string]bool

	FailCreateIntent bool
	FailRefund       bool

	RefundCalls int

	sequence uint64
}

func NewGateway() *Gateway {
	return &Gateway{
		intentsByKey: make(map[string]ports.PaymentIntent),
		refundsByKey: make(map[string]ports.RefundResult),
		refunded:     make(map[string]bool),
	}
}

func (g *Gateway) CreatePaymentIntent(_ context.Context, input ports.CreateIntentInput) (ports.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailCreateIntent {
		return ports.PaymentIntent{}, fmt.Errorf("%w: create intent unavailable", domainerrors.ErrGateway)
	}
	if input.IdempotencyKey != "" {
		if intent, ok := g.intentsByKey[input.IdempotencyKey]; ok {
			return intent, nil
		}
	}
	next := atomic.AddUint64(&g.sequence, 1)
	intent := ports.PaymentIntent{
		ID:           fmt.Sprintf("pi_mem_%06d", next),
		ClientSecret: fmt.Sprintf("pi_mem_%06d_secret", next),
	}
	if input.IdempotencyKey != "" {
		g.intentsByKey[input.IdempotencyKey] = intent
	}
	return intent, nil
}

func (g *Gateway) Refund(_ context.Context, input ports.RefundInput) (ports.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.RefundCalls++
	if g.FailRefund {
		return ports.RefundResult{}, fmt.Errorf("%w: refund unavailable", domainerrors.ErrGateway)
	}
	if input.IdempotencyKey != "" {
		if result, ok := g.refundsByKey[input.IdempotencyKey]; ok {
			return result, nil
		}
	}
	// Refunding an already-refunded charge is reported as success, matching
	// the provider-facing adapter.
	next := atomic.AddUint64(&g.sequence, 1)
	result := ports.RefundResult{
		ID:     fmt.Sprintf("re_mem_%06d", next),
		Status: "succeeded",
	}
	g.refunded[input.PaymentIntentID] = true
	if input.IdempotencyKey != "" {
		g.refundsByKey[input.IdempotencyKey] = result
	}
	return result, nil
}

// VerifyWebhook accepts a JSON-encoded GatewayEvent and requires the literal
// signature "test-signature". It stands in for provider signature checks in
// tests.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (ports.GatewayEvent, error) {
	if signature != "test-signature" {
		return ports.GatewayEvent{}, fmt.Errorf("invalid signature")
	}
	var event ports.GatewayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return ports.GatewayEvent{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	return event, nil
}

// Refunded reports whether a refund was recorded for the payment intent.
func (g *Gateway) Refunded(paymentIntentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunded[paymentIntentID]
}
