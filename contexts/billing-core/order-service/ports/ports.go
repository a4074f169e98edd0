package ports

import (
	"context"
	"time"

	"memberhub/contexts/billing-core/order-service/domain/entities"
	"memberhub/internal/shared/events"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EntityLocker serializes mutating operations per entity identity. Every
// state-changing command acquires the lock before read-decide-write; reads
// stay lock-free and tolerate a stale-by-one-transition view.
type EntityLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// OutboxEvent describes a side effect recorded atomically with a state
// change, relayed to the message bus by the worker.
type OutboxEvent struct {
	EventID    string
	EventType  string
	EntityType string
	EntityID   string
	OccurredAt time.Time
	Payload    any
}

// OutboxMessage is a row ready to relay from the billing outbox.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	Status    string
	CreatedAt time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order entities.Order) error
	GetOrder(ctx context.Context, orderID string) (entities.Order, error)
	SaveOrder(ctx context.Context, order entities.Order) error
	// SaveOrderWithOutbox persists the order mutation and the outbox row in
	// one transaction.
	SaveOrderWithOutbox(ctx context.Context, order entities.Order, event OutboxEvent) error
	ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error)
	OrderStatusCounts(ctx context.Context) (map[entities.OrderStatus]int, error)
	// NextOrderNumber reserves the next per-year sequence value.
	NextOrderNumber(ctx context.Context, year int) (int, error)
}

type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, invoice entities.Invoice) error
	GetInvoice(ctx context.Context, invoiceID string) (entities.Invoice, error)
	// GetInvoiceByOrder backs issueInvoiceFromOrder idempotency.
	GetInvoiceByOrder(ctx context.Context, orderID string) (entities.Invoice, bool, error)
	SaveInvoice(ctx context.Context, invoice entities.Invoice) error
	SaveInvoiceWithOutbox(ctx context.Context, invoice entities.Invoice, event OutboxEvent) error
	ListInvoicesByUser(ctx context.Context, userID string) ([]entities.Invoice, error)
	InvoiceStatusCounts(ctx context.Context) (map[entities.InvoiceStatus]int, error)
	// MarkOverdueInvoices is the batch sweep: sent AND due date passed.
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int, error)
	NextInvoiceNumber(ctx context.Context, year int) (int, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
	// MarkOutboxFailed parks an undeliverable row so the relay does not
	// pick it up again. Failed rows are left for operator inspection.
	MarkOutboxFailed(ctx context.Context, outboxID string, failedAt time.Time) error
}

// EventEnvelope reuses the canonical cross-module envelope contract.
type EventEnvelope = events.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
