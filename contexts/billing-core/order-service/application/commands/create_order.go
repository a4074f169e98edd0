package commands

import (
	"context"
	"log/slog"
	"time"

	application "memberhub/contexts/billing-core/order-service/application"
	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	"memberhub/contexts/billing-core/order-service/ports"
)

type OrderItemInput struct {
	Description string
	Quantity    int
	UnitPrice   string // decimal string, e.g. "50.00"
	ReferenceID string
}

type CreateOrderCommand struct {
	OrderType      entities.OrderType
	Currency       string
	Items          []OrderItemInput
	Tax            string
	Discount       string
	UserID         string
	BillingAddress entities.BillingAddress
	Notes          string
}

type CreateOrderUseCase struct {
	Orders      ports.OrderRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute creates a pending order. Empty item lists, non-positive quantities
// and negative amounts are rejected before anything is persisted.
func (u CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(u.Logger)
	if len(cmd.Items) == 0 {
		return entities.Order{}, domainerrors.ErrValidation
	}

	now := u.now()
	items := make([]entities.OrderItem, 0, len(cmd.Items))
	for _, input := range cmd.Items {
		price, err := entities.ParseMoney(input.UnitPrice, cmd.Currency)
		if err != nil {
			return entities.Order{}, domainerrors.ErrValidation
		}
		itemID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return entities.Order{}, err
		}
		items = append(items, entities.OrderItem{
			ItemID:      itemID,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   price,
			ReferenceID: input.ReferenceID,
		})
	}

	tax, err := parseOptionalAmount(cmd.Tax, cmd.Currency)
	if err != nil {
		return entities.Order{}, err
	}
	discount, err := parseOptionalAmount(cmd.Discount, cmd.Currency)
	if err != nil {
		return entities.Order{}, err
	}

	orderID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	sequence, err := u.Orders.NextOrderNumber(ctx, now.Year())
	if err != nil {
		return entities.Order{}, err
	}

	order, err := entities.NewOrder(
		orderID,
		entities.FormatOrderNumber(now.Year(), sequence),
		cmd.OrderType,
		cmd.Currency,
		items,
		tax,
		discount,
		cmd.UserID,
		cmd.BillingAddress,
		cmd.Notes,
		now,
	)
	if err != nil {
		return entities.Order{}, err
	}

	if err := u.Orders.CreateOrder(ctx, order); err != nil {
		logger.Error("order create failed",
			"event", "order_create_failed",
			"module", "billing-core/order-service",
			"layer", "application",
			"order_id", order.OrderID,
			"error", err.Error(),
		)
		return entities.Order{}, err
	}

	logger.Info("order created",
		"event", "order_created",
		"module", "billing-core/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"order_number", order.OrderNumber,
		"order_type", string(order.OrderType),
		"total", order.Total.String(),
	)
	return order, nil
}

func (u CreateOrderUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func parseOptionalAmount(value string, currency string) (entities.Money, error) {
	if value == "" {
		return entities.NewMoney(0, currency), nil
	}
	amount, err := entities.ParseMoney(value, currency)
	if err != nil {
		return entities.Money{}, domainerrors.ErrValidation
	}
	return amount, nil
}
