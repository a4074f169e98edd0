package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"memberhub/contexts/billing-core/order-service/application/commands"
	"memberhub/contexts/billing-core/order-service/application/queries"
	"memberhub/contexts/billing-core/order-service/domain/entities"
	domainerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	httptransport "memberhub/contexts/billing-core/order-service/transport/http"
)

type Handler struct {
	CreateOrder         commands.CreateOrderUseCase
	MarkOrderProcessing commands.MarkOrderProcessingUseCase
	CompleteOrder       commands.CompleteOrderUseCase
	CancelOrder         commands.CancelOrderUseCase
	RefundOrder         commands.RefundOrderUseCase
	IssueInvoice        commands.IssueInvoiceUseCase
	CreateInvoice       commands.CreateInvoiceUseCase
	SendInvoice         commands.SendInvoiceUseCase
	MarkInvoicePaid     commands.MarkInvoicePaidUseCase
	CancelInvoice       commands.CancelInvoiceUseCase
	RefundInvoice       commands.RefundInvoiceUseCase
	GetOrder            queries.GetOrderUseCase
	ListOrdersByUser    queries.ListOrdersByUserUseCase
	OrderStatusCounts   queries.OrderStatusCountsUseCase
	GetInvoice          queries.GetInvoiceUseCase
	ListInvoicesByUser  queries.ListInvoicesByUserUseCase
	InvoiceStatusCounts queries.InvoiceStatusCountsUseCase
	Logger              *slog.Logger
}

func (h Handler) CreateOrderHandler(
	ctx context.Context,
	req httptransport.CreateOrderRequest,
) (httptransport.CreateOrderResponse, error) {
	order, err := h.CreateOrder.Execute(ctx, commands.CreateOrderCommand{
		OrderType:      entities.OrderType(strings.TrimSpace(req.OrderType)),
		Currency:       req.Currency,
		Items:          mapItemInputs(req.Items),
		Tax:            req.Tax,
		Discount:       req.Discount,
		UserID:         req.UserID,
		BillingAddress: mapBillingAddressInput(req.Billing),
		Notes:          req.Notes,
	})
	if err != nil {
		return httptransport.CreateOrderResponse{}, err
	}
	return httptransport.CreateOrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) GetOrderHandler(ctx context.Context, orderID string) (httptransport.GetOrderResponse, error) {
	order, err := h.GetOrder.Execute(ctx, orderID)
	if err != nil {
		return httptransport.GetOrderResponse{}, err
	}
	return httptransport.GetOrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) ListOrdersHandler(ctx context.Context, userID string) (httptransport.ListOrdersResponse, error) {
	items, err := h.ListOrdersByUser.Execute(ctx, userID)
	if err != nil {
		return httptransport.ListOrdersResponse{}, err
	}
	result := make([]httptransport.OrderDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapOrder(item))
	}
	return httptransport.ListOrdersResponse{Items: result}, nil
}

func (h Handler) OrderStatsHandler(ctx context.Context) (httptransport.OrderStatsResponse, error) {
	counts, err := h.OrderStatusCounts.Execute(ctx)
	if err != nil {
		return httptransport.OrderStatsResponse{}, err
	}
	result := make(map[string]int, len(counts))
	for status, total := range counts {
		result[string(status)] = total
	}
	return httptransport.OrderStatsResponse{Counts: result}, nil
}

func (h Handler) MarkOrderProcessingHandler(ctx context.Context, orderID string) (httptransport.GetOrderResponse, error) {
	order, err := h.MarkOrderProcessing.Execute(ctx, orderID)
	if err != nil {
		return httptransport.GetOrderResponse{}, err
	}
	return httptransport.GetOrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) CompleteOrderHandler(
	ctx context.Context,
	orderID string,
	req httptransport.CompleteOrderRequest,
) (httptransport.CompleteOrderResponse, error) {
	result, err := h.CompleteOrder.Execute(ctx, commands.CompleteOrderCommand{
		OrderID:    orderID,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		return httptransport.CompleteOrderResponse{}, err
	}
	return httptransport.CompleteOrderResponse{
		Order:    mapOrder(result.Order),
		Replayed: !result.Changed,
	}, nil
}

func (h Handler) CancelOrderHandler(
	ctx context.Context,
	orderID string,
	req httptransport.CancelOrderRequest,
) (httptransport.GetOrderResponse, error) {
	order, err := h.CancelOrder.Execute(ctx, commands.CancelOrderCommand{
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.GetOrderResponse{}, err
	}
	return httptransport.GetOrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) RefundOrderHandler(
	ctx context.Context,
	orderID string,
	req httptransport.RefundOrderRequest,
) (httptransport.GetOrderResponse, error) {
	order, err := h.RefundOrder.Execute(ctx, commands.RefundOrderCommand{
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.GetOrderResponse{}, err
	}
	return httptransport.GetOrderResponse{Order: mapOrder(order)}, nil
}

func (h Handler) IssueInvoiceHandler(ctx context.Context, orderID string) (httptransport.IssueInvoiceResponse, error) {
	result, err := h.IssueInvoice.Execute(ctx, commands.IssueInvoiceCommand{OrderID: orderID})
	if err != nil {
		return httptransport.IssueInvoiceResponse{}, err
	}
	return httptransport.IssueInvoiceResponse{
		Invoice: mapInvoice(result.Invoice),
		Created: result.Created,
	}, nil
}

func (h Handler) CreateInvoiceHandler(
	ctx context.Context,
	req httptransport.CreateInvoiceRequest,
) (httptransport.CreateInvoiceResponse, error) {
	dueDate, err := parseTimestamp(req.DueDate)
	if err != nil {
		return httptransport.CreateInvoiceResponse{}, domainerrors.ErrValidation
	}
	invoice, err := h.CreateInvoice.Execute(ctx, commands.CreateInvoiceCommand{
		Currency:       req.Currency,
		Items:          mapItemInputs(req.Items),
		Tax:            req.Tax,
		Discount:       req.Discount,
		UserID:         req.UserID,
		DueDate:        dueDate,
		BillingAddress: mapBillingAddressInput(req.Billing),
		Notes:          req.Notes,
	})
	if err != nil {
		return httptransport.CreateInvoiceResponse{}, err
	}
	return httptransport.CreateInvoiceResponse{Invoice: mapInvoice(invoice)}, nil
}

func (h Handler) GetInvoiceHandler(ctx context.Context, invoiceID string) (httptransport.GetInvoiceResponse, error) {
	invoice, err := h.GetInvoice.Execute(ctx, invoiceID)
	if err != nil {
		return httptransport.GetInvoiceResponse{}, err
	}
	return httptransport.GetInvoiceResponse{Invoice: mapInvoice(invoice)}, nil
}

func (h Handler) ListInvoicesHandler(ctx context.Context, userID string) (httptransport.ListInvoicesResponse, error) {
	items, err := h.ListInvoicesByUser.Execute(ctx, userID)
	if err != nil {
		return httptransport.ListInvoicesResponse{}, err
	}
	result := make([]httptransport.InvoiceDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapInvoice(item))
	}
	return httptransport.ListInvoicesResponse{Items: result}, nil
}

func (h Handler) InvoiceStatsHandler(ctx context.Context) (httptransport.InvoiceStatsResponse, error) {
	counts, err := h.InvoiceStatusCounts.Execute(ctx)
	if err != nil {
		return httptransport.InvoiceStatsResponse{}, err
	}
	result := make(map[string]int, len(counts))
	for status, total := range counts {
		result[string(status)] = total
	}
	return httptransport.InvoiceStatsResponse{Counts: result}, nil
}

func (h Handler) SendInvoiceHandler(ctx context.Context, invoiceID string) (httptransport.SendInvoiceResponse, error) {
	result, err := h.SendInvoice.Execute(ctx, commands.SendInvoiceCommand{InvoiceID: invoiceID})
	if err != nil {
		return httptransport.SendInvoiceResponse{}, err
	}
	return httptransport.SendInvoiceResponse{
		Invoice: mapInvoice(result.Invoice),
		Sent:    result.Sent,
	}, nil
}

func (h Handler) MarkInvoicePaidHandler(
	ctx context.Context,
	invoiceID string,
	req httptransport.MarkInvoicePaidRequest,
) (httptransport.GetInvoiceResponse, error) {
	var paidAt time.Time
	if strings.TrimSpace(req.PaidAt) != "" {
		parsed, err := parseTimestamp(req.PaidAt)
		if err != nil {
			return httptransport.GetInvoiceResponse{}, domainerrors.ErrValidation
		}
		paidAt = parsed
	}
	invoice, err := h.MarkInvoicePaid.Execute(ctx, commands.MarkInvoicePaidCommand{
		InvoiceID:  invoiceID,
		PaidAt:     paidAt,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		return httptransport.GetInvoiceResponse{}, err
	}
	return httptransport.GetInvoiceResponse{Invoice: mapInvoice(invoice)}, nil
}

func (h Handler) CancelInvoiceHandler(
	ctx context.Context,
	invoiceID string,
	req httptransport.CancelInvoiceRequest,
) (httptransport.GetInvoiceResponse, error) {
	invoice, err := h.CancelInvoice.Execute(ctx, commands.CancelInvoiceCommand{
		InvoiceID: invoiceID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.GetInvoiceResponse{}, err
	}
	return httptransport.GetInvoiceResponse{Invoice: mapInvoice(invoice)}, nil
}

func (h Handler) RefundInvoiceHandler(
	ctx context.Context,
	invoiceID string,
	req httptransport.RefundInvoiceRequest,
) (httptransport.GetInvoiceResponse, error) {
	invoice, err := h.RefundInvoice.Execute(ctx, commands.RefundInvoiceCommand{
		InvoiceID: invoiceID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.GetInvoiceResponse{}, err
	}
	return httptransport.GetInvoiceResponse{Invoice: mapInvoice(invoice)}, nil
}

func mapItemInputs(items []httptransport.OrderItemInputDTO) []commands.OrderItemInput {
	result := make([]commands.OrderItemInput, 0, len(items))
	for _, item := range items {
		result = append(result, commands.OrderItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ReferenceID: item.ReferenceID,
		})
	}
	return result
}

func mapBillingAddressInput(dto httptransport.BillingAddressDTO) entities.BillingAddress {
	return entities.BillingAddress{
		Name:       dto.Name,
		Email:      dto.Email,
		Phone:      dto.Phone,
		Address1:   dto.Address1,
		Address2:   dto.Address2,
		City:       dto.City,
		State:      dto.State,
		PostalCode: dto.PostalCode,
		Country:    dto.Country,
	}
}

func mapBillingAddress(addr entities.BillingAddress) httptransport.BillingAddressDTO {
	return httptransport.BillingAddressDTO{
		Name:       addr.Name,
		Email:      addr.Email,
		Phone:      addr.Phone,
		Address1:   addr.Address1,
		Address2:   addr.Address2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}

func mapOrderItems(items []entities.OrderItem) []httptransport.OrderItemDTO {
	result := make([]httptransport.OrderItemDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.OrderItemDTO{
			ItemID:      item.ItemID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			Total:       item.Total.String(),
			ReferenceID: item.ReferenceID,
		})
	}
	return result
}

func mapInvoiceItems(items []entities.InvoiceItem) []httptransport.OrderItemDTO {
	result := make([]httptransport.OrderItemDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.OrderItemDTO{
			ItemID:      item.ItemID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			Total:       item.Total.String(),
			ReferenceID: item.ReferenceID,
		})
	}
	return result
}

func mapOrder(item entities.Order) httptransport.OrderDTO {
	return httptransport.OrderDTO{
		OrderID:     item.OrderID,
		OrderNumber: item.OrderNumber,
		OrderType:   string(item.OrderType),
		UserID:      item.UserID,
		Items:       mapOrderItems(item.Items),
		Subtotal:    item.Subtotal.String(),
		Tax:         item.Tax.String(),
		Discount:    item.Discount.String(),
		Total:       item.Total.String(),
		Currency:    item.Currency,
		Status:      string(item.Status),
		PaymentRef:  item.PaymentRef,
		InvoiceID:   item.InvoiceID,
		Notes:       item.Notes,
		Billing:     mapBillingAddress(item.Billing),
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
	}
}

func mapInvoice(item entities.Invoice) httptransport.InvoiceDTO {
	result := httptransport.InvoiceDTO{
		InvoiceID:     item.InvoiceID,
		InvoiceNumber: item.InvoiceNumber,
		OrderID:       item.OrderID,
		UserID:        item.UserID,
		Items:         mapInvoiceItems(item.Items),
		Subtotal:      item.Subtotal.String(),
		Tax:           item.Tax.String(),
		Discount:      item.Discount.String(),
		Total:         item.Total.String(),
		Currency:      item.Currency,
		Status:        string(item.Status),
		DueDate:       item.DueDate.Format(time.RFC3339),
		PaymentRef:    item.PaymentRef,
		Notes:         item.Notes,
		Billing:       mapBillingAddress(item.Billing),
		CreatedAt:     item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.Format(time.RFC3339),
	}
	if item.SentAt != nil {
		result.SentAt = item.SentAt.UTC().Format(time.RFC3339)
	}
	if item.PaidAt != nil {
		result.PaidAt = item.PaidAt.UTC().Format(time.RFC3339)
	}
	return result
}

func parseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return parsed.UTC(), nil
}
