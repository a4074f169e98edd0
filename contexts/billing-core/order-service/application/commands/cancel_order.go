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

type CancelOrderCommand struct {
	OrderID string
	Reason  string
}

type CancelOrderUseCase struct {
	Orders ports.OrderRepository
	Locker ports.EntityLocker
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute cancels an order before payment capture. Nothing was captured, so
// cancellation has no monetary effect.
func (u CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OrderID) == "" {
		return entities.Order{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "order:"+cmd.OrderID)
	if err != nil {
		return entities.Order{}, err
	}
	defer release()

	order, err := u.Orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return entities.Order{}, err
	}

	now := u.now()
	if err := order.Cancel(cmd.Reason, now); err != nil {
		return entities.Order{}, err
	}
	if err := u.Orders.SaveOrder(ctx, order); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order cancelled",
		"event", "order_cancelled",
		"module", "billing-core/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"reason", order.Notes,
	)
	return order, nil
}

func (u CancelOrderUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

type MarkOrderProcessingUseCase struct {
	Orders ports.OrderRepository
	Locker ports.EntityLocker
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u MarkOrderProcessingUseCase) Execute(ctx context.Context, orderID string) (entities.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return entities.Order{}, domainerrors.ErrValidation
	}

	release, err := u.Locker.Acquire(ctx, "order:"+orderID)
	if err != nil {
		return entities.Order{}, err
	}
	defer release()

	order, err := u.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}
	if err := order.StartProcessing(now); err != nil {
		return entities.Order{}, err
	}
	if err := u.Orders.SaveOrder(ctx, order); err != nil {
		return entities.Order{}, err
	}

	application.ResolveLogger(u.Logger).Info("order processing",
		"event", "order_processing",
		"module", "billing-core/order-service",
		"layer", "application",
		"order_id", order.OrderID,
	)
	return order, nil
}
