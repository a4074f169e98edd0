package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	membershipservice "memberhub/contexts/billing-core/membership-service"
	orderservice "memberhub/contexts/billing-core/order-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "memberhub/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	orders      orderservice.Module
	memberships membershipservice.Module
}

func New(
	orders orderservice.Module,
	memberships membershipservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		orders:      orders,
		memberships: memberships,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	s.mux.HandleFunc("GET /api/orders", s.handleListOrders)
	s.mux.HandleFunc("GET /api/orders/stats", s.handleOrderStats)
	s.mux.HandleFunc("GET /api/orders/{order_id}", s.handleGetOrder)
	s.mux.HandleFunc("POST /api/orders/{order_id}/processing", s.handleMarkOrderProcessing)
	s.mux.HandleFunc("POST /api/orders/{order_id}/complete", s.handleCompleteOrder)
	s.mux.HandleFunc("POST /api/orders/{order_id}/cancel", s.handleCancelOrder)
	s.mux.HandleFunc("POST /api/orders/{order_id}/refund", s.handleRefundOrder)
	s.mux.HandleFunc("POST /api/orders/{order_id}/invoice", s.handleIssueInvoice)

	s.mux.HandleFunc("POST /api/invoices", s.handleCreateInvoice)
	s.mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	s.mux.HandleFunc("GET /api/invoices/stats", s.handleInvoiceStats)
	s.mux.HandleFunc("GET /api/invoices/{invoice_id}", s.handleGetInvoice)
	s.mux.HandleFunc("POST /api/invoices/{invoice_id}/send", s.handleSendInvoice)
	s.mux.HandleFunc("POST /api/invoices/{invoice_id}/mark-paid", s.handleMarkInvoicePaid)
	s.mux.HandleFunc("POST /api/invoices/{invoice_id}/cancel", s.handleCancelInvoice)
	s.mux.HandleFunc("POST /api/invoices/{invoice_id}/refund", s.handleRefundInvoice)

	s.mux.HandleFunc("GET /api/memberships/{membership_id}", s.handleGetMembership)
	s.mux.HandleFunc("POST /api/memberships", s.handleAdminCreateMembership)
	s.mux.HandleFunc("POST /api/memberships/{membership_id}/cancel", s.handleCancelMembership)
	s.mux.HandleFunc("POST /api/memberships/{membership_id}/refund", s.handleRefundMembership)
	s.mux.HandleFunc("POST /api/memberships/{membership_id}/renew", s.handleRenewMembership)
	s.mux.HandleFunc("GET /api/memberships/{membership_id}/team-upgrade-details", s.handleTeamUpgradeDetails)
	s.mux.HandleFunc("POST /api/payments/create-team-upgrade-intent", s.handleCreateTeamUpgradeIntent)
	s.mux.HandleFunc("POST /api/payments/webhook", s.handleGatewayWebhook)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// resolveActor reads the explicit caller identity headers. Operations that
// need an actor receive it as an argument; there is no ambient user state.
func resolveActor(r *http.Request) (actorID string, actorRole string) {
	return strings.TrimSpace(r.Header.Get("X-Actor-ID")),
		strings.TrimSpace(r.Header.Get("X-Actor-Role"))
}
