package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	membershiperrors "memberhub/contexts/billing-core/membership-service/domain/errors"
	membershiphttp "memberhub/contexts/billing-core/membership-service/transport/http"
)

// webhookBodyLimit caps the raw gateway payload read into memory.
const webhookBodyLimit = 1 << 20

func (s *Server) handleGetMembership(w http.ResponseWriter, r *http.Request) {
	resp, err := s.memberships.Handler.GetMembershipHandler(r.Context(), r.PathValue("membership_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminCreateMembership(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole := resolveActor(r)
	var req membershiphttp.AdminCreateMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.memberships.Handler.AdminCreateMembershipHandler(r.Context(), actorID, actorRole, req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCancelMembership(w http.ResponseWriter, r *http.Request) {
	actorID, _ := resolveActor(r)
	var req membershiphttp.CancelMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.memberships.Handler.CancelMembershipHandler(r.Context(), r.PathValue("membership_id"), actorID, req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefundMembership(w http.ResponseWriter, r *http.Request) {
	actorID, _ := resolveActor(r)
	var req membershiphttp.RefundMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.memberships.Handler.RefundMembershipHandler(r.Context(), r.PathValue("membership_id"), actorID, req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenewMembership(w http.ResponseWriter, r *http.Request) {
	actorID, _ := resolveActor(r)
	resp, err := s.memberships.Handler.RenewMembershipHandler(r.Context(), r.PathValue("membership_id"), actorID)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTeamUpgradeDetails(w http.ResponseWriter, r *http.Request) {
	resp, err := s.memberships.Handler.TeamUpgradeDetailsHandler(r.Context(), r.PathValue("membership_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTeamUpgradeIntent(w http.ResponseWriter, r *http.Request) {
	actorID, _ := resolveActor(r)
	var req membershiphttp.CreateTeamUpgradeIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.memberships.Handler.CreateTeamUpgradeIntentHandler(r.Context(), req.MembershipID, actorID, req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_body", "could not read request body")
		return
	}
	signature := r.Header.Get("Stripe-Signature")

	resp, err := s.memberships.Handler.GatewayWebhookHandler(r.Context(), payload, signature)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeMembershipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membershiperrors.ErrMembershipNotFound):
		writeMembershipError(w, http.StatusNotFound, "membership_not_found", err.Error())
	case errors.Is(err, membershiperrors.ErrNotFound):
		writeMembershipError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, membershiperrors.ErrForbidden):
		writeMembershipError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, membershiperrors.ErrInvalidTransition):
		writeMembershipError(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, membershiperrors.ErrConflict):
		writeMembershipError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, membershiperrors.ErrRefundPending),
		errors.Is(err, membershiperrors.ErrGateway):
		writeMembershipError(w, http.StatusBadGateway, "gateway_error", err.Error())
	case errors.Is(err, membershiperrors.ErrValidation):
		writeMembershipError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeMembershipError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMembershipError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, membershiphttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
