package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/infra/gateway"
	"subscription-payments/internal/infra/logging"
	"subscription-payments/internal/usecase"
)

type initiateRequest struct {
	Amount        int64  `json:"amount"`
	PlanTitle     string `json:"planTitle"`
	Billing       string `json:"billing"`
	UserID        string `json:"userId"`
	TransactionID string `json:"transactionId"`
}

type initiateResponse struct {
	GatewayOrderID string    `json:"gatewayOrderId"`
	RedirectURL    string    `json:"redirectURL"`
	CsrfToken      string    `json:"csrfToken"`
	CsrfExpiresAt  time.Time `json:"csrfExpiresAt"`
}

type statusRequest struct {
	TransactionID string `json:"transactionId"`
}

type statusResponse struct {
	Status             model.PaymentStatus      `json:"status"`
	SubscriptionStatus model.SubscriptionStatus `json:"subscriptionStatus"`
	CsrfToken          string                   `json:"csrfToken,omitempty"`
	CsrfExpiresAt      *time.Time               `json:"csrfExpiresAt,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sid, err := s.sessions.Mint(w)
	if err != nil {
		writeError(w, err)
		return
	}
	tok, err := s.guard.Rotate(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"csrfToken":     tok.Token,
		"csrfExpiresAt": tok.ExpiresAt,
	})
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	ctx := logging.WithTxnID(r.Context(), req.TransactionID)

	out, err := s.payUC.Initiate(ctx, usecase.InitiateRequest{
		UserID:        req.UserID,
		Amount:        req.Amount,
		PlanTitle:     model.PlanTitle(req.PlanTitle),
		Billing:       model.BillingCycle(req.Billing),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	tok, err := s.guard.Rotate(ctx, sessionFromContext(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, initiateResponse{
		GatewayOrderID: out.GatewayOrderID,
		RedirectURL:    out.RedirectURL,
		CsrfToken:      tok.Token,
		CsrfExpiresAt:  tok.ExpiresAt,
	})
}

// callbackEnvelope is the gateway's webhook body: a base64 payload plus
// an X-VERIFY header over it.
type callbackEnvelope struct {
	Response string `json:"response"`
}

type callbackPayload struct {
	Code string                 `json:"code"`
	Data map[string]interface{} `json:"data"`
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	ctx := logging.WithTxnID(r.Context(), transactionID)
	log := logging.With(ctx, s.log)

	var env callbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.Response == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	if !gateway.VerifyWebhookSignature(s.gatewaySalt, s.gatewaySaltIndex, env.Response, r.Header.Get("X-VERIFY")) {
		log.Warn().Msg("webhook signature rejected")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	raw, err := base64.StdEncoding.DecodeString(env.Response)
	if err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	var payload callbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	if mtid, ok := payload.Data["merchantTransactionId"].(string); ok && mtid != transactionID {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	res, err := s.reconcileUC.Reconcile(ctx, transactionID, adapter.GatewayState{
		State:      payload.Code,
		RawDetails: payload.Data,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Redeliveries for settled transactions land here with
	// NewlyTerminal=false; acknowledging them keeps the gateway from
	// retrying forever.
	writeJSON(w, http.StatusOK, statusResponse{
		Status:             res.Status,
		SubscriptionStatus: res.SubscriptionStatus,
	})
}

func (s *Server) handlePollStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	ctx := logging.WithTxnID(r.Context(), req.TransactionID)
	sid := sessionFromContext(ctx)

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, pollKey(sid), s.pollPerMinute, time.Minute)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		} else if !allowed {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
	}

	res, err := s.payUC.PollStatus(ctx, req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}

	tok, err := s.guard.Rotate(ctx, sid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:             res.Status,
		SubscriptionStatus: res.SubscriptionStatus,
		CsrfToken:          tok.Token,
		CsrfExpiresAt:      &tok.ExpiresAt,
	})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	view, err := s.payUC.CurrentState(r.Context(), transactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	s.hub.ServeTransaction(w, r, transactionID)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnknownTransaction), errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTokenInvalid):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrGatewayRejected):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
