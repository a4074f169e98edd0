package ports

import (
	"context"
	"time"

	"memberhub/contexts/billing-core/membership-service/domain/entities"
	"memberhub/internal/shared/events"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EntityLocker serializes mutating operations per membership identity.
// Cancellation, refund, renewal and webhook application for one membership
// never interleave; reads stay lock-free.
type EntityLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type MembershipRepository interface {
	CreateMembership(ctx context.Context, membership entities.Membership) error
	GetMembership(ctx context.Context, membershipID string) (entities.Membership, error)
	// GetMembershipByPaymentRef resolves webhook events carrying only the
	// gateway payment intent id.
	GetMembershipByPaymentRef(ctx context.Context, paymentRef string) (entities.Membership, bool, error)
	SaveMembership(ctx context.Context, membership entities.Membership) error
	// ListExpiringBetween returns active memberships whose end date falls in
	// [from, to), for expiry notifications.
	ListExpiringBetween(ctx context.Context, from time.Time, to time.Time) ([]entities.Membership, error)
}

// EventDedup reserves processed gateway event ids so webhook redelivery is
// detected before any state is touched.
type EventDedup interface {
	// ReserveEvent returns true when the event id was already processed.
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	// ReleaseEvent frees a reservation after a failed dispatch so the
	// provider's redelivery is processed instead of short-circuiting.
	ReleaseEvent(ctx context.Context, eventID string) error
}

type CreateIntentInput struct {
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type RefundInput struct {
	PaymentIntentID string
	IdempotencyKey  string
	Reason          string
}

type RefundResult struct {
	ID     string
	Status string
}

// GatewayEvent is a verified webhook event from the payment provider.
type GatewayEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	AmountCents     int64
	Currency        string
	Metadata        map[string]string
}

// PaymentGateway is the single boundary to the payment provider. Refund of
// an already-refunded charge reports success, not an error.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, input CreateIntentInput) (PaymentIntent, error)
	Refund(ctx context.Context, input RefundInput) (RefundResult, error)
	VerifyWebhook(payload []byte, signature string) (GatewayEvent, error)
}

// TeamUpgradeOrderInput records the billing side of a captured team upgrade.
type TeamUpgradeOrderInput struct {
	UserID      string
	Description string
	AmountCents int64
	Currency    string
	PaymentRef  string
	ReferenceID string
}

// BillingReconciler bridges membership outcomes into the order ledger. The
// composition root implements it on top of the order service; the membership
// module never imports order internals.
type BillingReconciler interface {
	CompleteOrder(ctx context.Context, orderID string, paymentRef string) error
	RefundOrder(ctx context.Context, orderID string, reason string) error
	RecordTeamUpgradeOrder(ctx context.Context, input TeamUpgradeOrderInput) (string, error)
}

// EventEnvelope reuses the canonical cross-module envelope contract.
type EventEnvelope = events.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
