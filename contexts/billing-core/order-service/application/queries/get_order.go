package queries

import (
	"context"
	"log/slog"
	"strings"

	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"
)

// Queries are advisory reads: they take no entity lock and tolerate a view
// that is stale by one transition.

type GetOrderUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u GetOrderUseCase) Execute(ctx context.Context, orderID string) (entities.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return entities.Order{}, domainerrors.ErrValidation
	}
	return u.Orders.GetOrder(ctx, orderID)
}

type ListOrdersByUserUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u ListOrdersByUserUseCase) Execute(ctx context.Context, userID string) ([]entities.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrValidation
	}
	return u.Orders.ListOrdersByUser(ctx, userID)
}

type OrderStatusCountsUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u OrderStatusCountsUseCase) Execute(ctx context.Context) (map[entities.OrderStatus]int, error) {
	return u.Orders.OrderStatusCounts(ctx)
}
