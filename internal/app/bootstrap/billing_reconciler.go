package bootstrap

import (
	"context"
	"errors"
	"fmt"

	membershiperrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	membershipports "memberhub/contexts/billing-core/membership-service/ports"
	orderservice "memberhub/contexts/billing-core/order-service"
	ordercommands "memberhub/contexts/billing-core/order-service/application/commands"
	orderentities "memberhub/contexts/billing-core/order-service/domain/entities"
	ordererrors "memberhub/contexts/billing-core/order-service/domain/errors"
)

// billingReconciler bridges the membership service to the order ledger. It is
// the only place the two services meet; each keeps its own error vocabulary,
// so order sentinels are translated at this seam.
type billingReconciler struct {
	createOrder   ordercommands.CreateOrderUseCase
	completeOrder ordercommands.CompleteOrderUseCase
	refundOrder   ordercommands.RefundOrderUseCase
}

// NewBillingReconciler adapts the order module's use cases to the membership
// service's reconciler port.
func NewBillingReconciler(orders orderservice.Module) membershipports.BillingReconciler {
	return billingReconciler{
		createOrder:   orders.Handler.CreateOrder,
		completeOrder: orders.CompleteOrder,
		refundOrder:   orders.RefundOrder,
	}
}

func (b billingReconciler) CompleteOrder(ctx context.Context, orderID string, paymentRef string) error {
	_, err := b.completeOrder.Execute(ctx, ordercommands.CompleteOrderCommand{
		OrderID:    orderID,
		PaymentRef: paymentRef,
	})
	return translateOrderError(err)
}

func (b billingReconciler) RefundOrder(ctx context.Context, orderID string, reason string) error {
	_, err := b.refundOrder.Execute(ctx, ordercommands.RefundOrderCommand{
		OrderID: orderID,
		Reason:  reason,
	})
	return translateOrderError(err)
}

func (b billingReconciler) RecordTeamUpgradeOrder(
	ctx context.Context,
	input membershipports.TeamUpgradeOrderInput,
) (string, error) {
	order, err := b.createOrder.Execute(ctx, ordercommands.CreateOrderCommand{
		OrderType: orderentities.OrderTypeMembership,
		Currency:  input.Currency,
		Items: []ordercommands.OrderItemInput{{
			Description: input.Description,
			Quantity:    1,
			UnitPrice:   centsToDecimal(input.AmountCents),
			ReferenceID: input.ReferenceID,
		}},
		UserID: input.UserID,
		Notes:  "team upgrade captured by payment gateway",
	})
	if err != nil {
		return "", translateOrderError(err)
	}
	if _, err := b.completeOrder.Execute(ctx, ordercommands.CompleteOrderCommand{
		OrderID:    order.OrderID,
		PaymentRef: input.PaymentRef,
	}); err != nil {
		return order.OrderID, translateOrderError(err)
	}
	return order.OrderID, nil
}

func translateOrderError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ordererrors.ErrOrderNotFound), errors.Is(err, ordererrors.ErrNotFound):
		return fmt.Errorf("%w: %v", membershiperrors.ErrNotFound, err)
	case errors.Is(err, ordererrors.ErrInvalidTransition), errors.Is(err, ordererrors.ErrOrderImmutable):
		return fmt.Errorf("%w: %v", membershiperrors.ErrInvalidTransition, err)
	case errors.Is(err, ordererrors.ErrConflict):
		return fmt.Errorf("%w: %v", membershiperrors.ErrConflict, err)
	case errors.Is(err, ordererrors.ErrValidation):
		return fmt.Errorf("%w: %v", membershiperrors.ErrValidation, err)
	default:
		return err
	}
}

func centsToDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
