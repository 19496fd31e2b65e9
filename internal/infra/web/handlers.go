package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/infra/logging"
	"art-gallery-payments/internal/infra/payment"
)

// ===== response shapes =====

type paymentResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	Amount      int64      `json:"amount"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Description: p.Description,
		Status:      string(p.Status),
		CheckoutURL: p.CheckoutURL,
		CreatedAt:   p.CreatedAt,
		PaidAt:      p.PaidAt,
	}
}

type transactionResponse struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResponse(t *model.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		OrderID:     t.OrderID,
		Amount:      t.Amount,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

type subscriptionResponse struct {
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	AutoRenew bool       `json:"auto_renew"`
}

func toSubscriptionResponse(s *model.Subscription) subscriptionResponse {
	if s == nil {
		return subscriptionResponse{Status: string(model.SubscriptionStatusNone)}
	}
	start, end := s.StartDate, s.EndDate
	return subscriptionResponse{
		Status:    string(s.EffectiveStatus(time.Now())),
		StartDate: &start,
		EndDate:   &end,
		AutoRenew: s.AutoRenew,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with no internals leaked to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInsufficientBalance):
		http.Error(w, "Insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrWithdrawLimit):
		http.Error(w, "Daily withdrawal limit reached", http.StatusConflict)
	case errors.Is(err, domain.ErrActiveSubscriptionExists):
		http.Error(w, "Subscription already active", http.StatusConflict)
	case errors.Is(err, domain.ErrNoActiveSubscription):
		http.Error(w, "No active subscription", http.StatusConflict)
	case errors.Is(err, domain.ErrGatewayMismatch):
		http.Error(w, "Gateway response mismatch", http.StatusConflict)
	case errors.Is(err, domain.ErrVerificationFailed), errors.Is(err, domain.ErrGatewayUnavailable):
		http.Error(w, "Payment gateway unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// ===== payments =====

type paymentCreateRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req paymentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.paymentUC.Create(r.Context(), userID(r), req.Amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	items, total, err := s.paymentUC.List(r.Context(), userID(r), offset, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]paymentResponse, 0, len(items))
	for _, p := range items {
		data = append(data, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []paymentResponse `json:"data"`
		Total  int               `json:"total"`
		Limit  int               `json:"limit"`
		Offset int               `json:"offset"`
	}{data, total, limit, offset})
}

type paymentVerifyRequest struct {
	OrderID string `json:"order_id"`
}

func (s *Server) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req paymentVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := logging.WithOrderID(r.Context(), req.OrderID)
	p, err := s.paymentUC.Verify(ctx, userID(r), req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// webhookHandler receives the gateway's server-to-server notification. The
// payload signature is the authentication; a valid webhook funnels into the
// same Verify path as user polling, so delivery retries are harmless.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data      map[string]json.RawMessage `json:"data"`
		Signature string                     `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string, len(body.Data))
	for k, raw := range body.Data {
		var sv string
		if err := json.Unmarshal(raw, &sv); err == nil {
			fields[k] = sv
		} else {
			fields[k] = string(raw) // numbers and booleans keep their JSON text
		}
	}

	if s.webhookChecksumKey != "" && !payment.VerifyPayOSWebhookSignature(s.webhookChecksumKey, fields, body.Signature) {
		logging.With(r.Context(), s.log).Warn().Msg("webhook signature rejected")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	orderID := fields["orderCode"]
	if orderID == "" {
		http.Error(w, "Missing order code", http.StatusBadRequest)
		return
	}
	ctx := logging.WithOrderID(r.Context(), orderID)

	p, err := s.payments.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown order: acknowledge so the gateway stops retrying.
			logging.With(ctx, s.log).Warn().Msg("webhook for unknown order")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		writeDomainError(w, err)
		return
	}

	if _, err := s.paymentUC.Verify(ctx, p.UserID, orderID); err != nil {
		// Non-2xx makes the gateway redeliver; Verify is idempotent.
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ===== wallet =====

func (s *Server) getWalletHandler(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.walletUC.Get(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Balance        int64 `json:"balance"`
		WithdrawnToday int64 `json:"withdrawn_today"`
	}{wallet.Balance, wallet.WithdrawnToday})
}

func (s *Server) walletHistoryHandler(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	items, total, err := s.walletUC.History(r.Context(), userID(r), offset, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		data = append(data, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []transactionResponse `json:"data"`
		Total  int                   `json:"total"`
		Limit  int                   `json:"limit"`
		Offset int                   `json:"offset"`
	}{data, total, limit, offset})
}

type withdrawRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) withdrawHandler(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	t, err := s.walletUC.Withdraw(r.Context(), userID(r), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// ===== premium subscription =====

func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Subscribe(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (s *Server) cancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Cancel(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) subscriptionStatusHandler(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Status(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// ===== operational =====

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type devSessionRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) devSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req devSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := s.auth.Mint(w, req.UserID)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
