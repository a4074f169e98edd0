package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "memberhub/contexts/billing-core/order-service/application"
	"memberhub/contexts/billing-core/order-service/ports"
)

// OutboxRelay publishes pending billing outbox rows (order.completed,
// invoice.sent) to the message bus and marks them sent. Rows are written in
// the same transaction as the state change, so the notification side effect
// happens exactly once per transition.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "billing_outbox_list_failed",
			"module", "billing-core/order-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload decode failed",
				"event", "billing_outbox_decode_failed",
				"module", "billing-core/order-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			// An undecodable row will never deliver; park it so it
			// cannot wedge every subsequent cycle.
			if markErr := r.Outbox.MarkOutboxFailed(ctx, message.OutboxID, now); markErr != nil {
				return markErr
			}
			continue
		}

		if err := r.Publisher.Publish(ctx, message.EventType, envelope); err != nil {
			logger.Error("outbox publish failed",
				"event", "billing_outbox_publish_failed",
				"module", "billing-core/order-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_id", envelope.EventID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, now); err != nil {
			logger.Error("outbox mark sent failed",
				"event", "billing_outbox_mark_sent_failed",
				"module", "billing-core/order-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		published++
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "billing_outbox_relay_completed",
			"module", "billing-core/order-service",
			"layer", "worker",
			"published_count", published,
		)
	}
	return nil
}
