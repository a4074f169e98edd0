package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "memberhub/contexts/billing-core/order-service/application"
	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"
)

const orderCompletedEventType = "order.completed"

type CompleteOrderCommand struct {
	OrderID    string
	PaymentRef string
}

type CompleteOrderResult struct {
	Order   entities.Order
	Changed bool
}

type CompleteOrderUseCase struct {
	Orders      ports.OrderRepository
	Locker      ports.EntityLocker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute confirms payment capture on an order. Webhook redelivery replays
// are detected inside the entity and reported as unchanged success.
func (u CompleteOrderUseCase) Execute(ctx context.Context, cmd CompleteOrderCommand) (CompleteOrderResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OrderID) == "" || strings.TrimSpace(cmd.PaymentRef) == "" {
		return CompleteOrderResult{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "order:"+cmd.OrderID)
	if err != nil {
		return CompleteOrderResult{}, err
	}
	defer release()

	order, err := u.Orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return CompleteOrderResult{}, err
	}

	wasCompleted := order.Status == entities.OrderStatusCompleted
	now := u.now()
	if err := order.Complete(cmd.PaymentRef, now); err != nil {
		logger.Warn("order completion rejected",
			"event", "order_complete_rejected",
			"module", "billing-core/order-service",
			"layer", "application",
			"order_id", order.OrderID,
			"status", string(order.Status),
		)
		return CompleteOrderResult{}, err
	}
	if wasCompleted {
		// Replay: state already final, no outbox row, no second notification.
		return CompleteOrderResult{Order: order, Changed: false}, nil
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CompleteOrderResult{}, err
	}
	event := ports.OutboxEvent{
		EventID:    eventID,
		EventType:  orderCompletedEventType,
		EntityType: "order",
		EntityID:   order.OrderID,
		OccurredAt: now,
		Payload: map[string]string{
			"order_id":     order.OrderID,
			"order_number": order.OrderNumber,
			"payment_ref":  order.PaymentRef,
			"total":        order.Total.String(),
			"currency":     order.Currency,
		},
	}
	if err := u.Orders.SaveOrderWithOutbox(ctx, order, event); err != nil {
		return CompleteOrderResult{}, err
	}

	logger.Info("order completed",
		"event", "order_completed",
		"module", "billing-core/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"payment_ref", order.PaymentRef,
	)
	return CompleteOrderResult{Order: order, Changed: true}, nil
}

func (u CompleteOrderUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
