package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	billingerrors "memberhub/contexts/billing-core/order-service/domain/errors"
	billinghttp "memberhub/contexts/billing-core/order-service/transport/http"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.CreateOrderHandler(r.Context(), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.GetOrderHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeBillingError(w, http.StatusBadRequest, "missing_user", "user_id query parameter is required")
		return
	}
	resp, err := s.orders.Handler.ListOrdersHandler(r.Context(), userID)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.OrderStatsHandler(r.Context())
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkOrderProcessing(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.MarkOrderProcessingHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.CompleteOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.CompleteOrderHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.CancelOrderHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefundOrder(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.RefundOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.RefundOrderHandler(r.Context(), r.PathValue("order_id"), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIssueInvoice(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.IssueInvoiceHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.CreateInvoiceHandler(r.Context(), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.GetInvoiceHandler(r.Context(), r.PathValue("invoice_id"))
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeBillingError(w, http.StatusBadRequest, "missing_user", "user_id query parameter is required")
		return
	}
	resp, err := s.orders.Handler.ListInvoicesHandler(r.Context(), userID)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInvoiceStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.InvoiceStatsHandler(r.Context())
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendInvoice(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.SendInvoiceHandler(r.Context(), r.PathValue("invoice_id"))
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.MarkInvoicePaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.MarkInvoicePaidHandler(r.Context(), r.PathValue("invoice_id"), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelInvoice(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.CancelInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.CancelInvoiceHandler(r.Context(), r.PathValue("invoice_id"), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefundInvoice(w http.ResponseWriter, r *http.Request) {
	var req billinghttp.RefundInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.RefundInvoiceHandler(r.Context(), r.PathValue("invoice_id"), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBillingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billingerrors.ErrOrderNotFound):
		writeBillingError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, billingerrors.ErrInvoiceNotFound):
		writeBillingError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, billingerrors.ErrNotFound):
		writeBillingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, billingerrors.ErrInvalidTransition),
		errors.Is(err, billingerrors.ErrOrderImmutable):
		writeBillingError(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, billingerrors.ErrConflict):
		writeBillingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, billingerrors.ErrValidation),
		errors.Is(err, billingerrors.ErrMoneyMismatch),
		errors.Is(err, billingerrors.ErrNegativeTotal):
		writeBillingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeBillingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBillingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, billinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
