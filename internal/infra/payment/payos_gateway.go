package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/adapter"
)

const defaultBaseURL = "https://api-merchant.payos.vn"

// PayOSGateway implements adapter.PaymentGateway using direct HTTP calls to
// the PayOS merchant API.
type PayOSGateway struct {
	clientID    string
	apiKey      string
	checksumKey string
	baseURL     string
	client      *http.Client
}

var _ adapter.PaymentGateway = (*PayOSGateway)(nil)

// NewPayOSGateway creates a new direct PayOS gateway. A bounded client
// timeout guarantees every call resolves; a timeout means "unknown outcome",
// never a failed payment.
func NewPayOSGateway(clientID, apiKey, checksumKey, baseURL string) *PayOSGateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &PayOSGateway{
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *PayOSGateway) Name() string { return "payos" }

// payOSCreateResponse represents the response from the payment-request API.
type payOSCreateResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		OrderCode   string `json:"orderCode"`
		CheckoutURL string `json:"checkoutUrl"`
		Status      string `json:"status"`
	} `json:"data"`
}

// payOSStatusResponse represents the response from the payment-link
// information API.
type payOSStatusResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		OrderCode  string `json:"orderCode"`
		Amount     int64  `json:"amount"`
		AmountPaid int64  `json:"amountPaid"`
		Status     string `json:"status"`
	} `json:"data"`
}

// CreateCheckout implements adapter.PaymentGateway.CreateCheckout.
func (g *PayOSGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (string, error) {
	payload := map[string]interface{}{
		"orderCode":   req.OrderID,
		"amount":      req.Amount,
		"description": req.Description,
		"cancelUrl":   req.CancelURL,
		"returnUrl":   req.ReturnURL,
		"signature":   g.sign(req),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal checkout request: %w", err)
	}

	url := g.baseURL + "/v2/payment-requests"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	g.setHeaders(httpReq)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrGatewayUnavailable, err)
	}

	var response payOSCreateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v, body: %s", domain.ErrGatewayUnavailable, err, string(body))
	}

	if response.Code != "00" {
		return "", fmt.Errorf("payos error: code %s, desc: %s", response.Code, response.Desc)
	}
	if response.Data.CheckoutURL == "" {
		return "", fmt.Errorf("payos error: empty checkout url for order %s", req.OrderID)
	}

	return response.Data.CheckoutURL, nil
}

// GetStatus implements adapter.PaymentGateway.GetStatus. The response is
// re-validated against the requested order id before being trusted.
func (g *PayOSGateway) GetStatus(ctx context.Context, orderID string) (adapter.OrderInfo, error) {
	url := fmt.Sprintf("%s/v2/payment-requests/%s", g.baseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return adapter.OrderInfo{}, fmt.Errorf("create request: %w", err)
	}
	g.setHeaders(httpReq)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return adapter.OrderInfo{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.OrderInfo{}, fmt.Errorf("%w: read response: %v", domain.ErrGatewayUnavailable, err)
	}

	var response payOSStatusResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return adapter.OrderInfo{}, fmt.Errorf("%w: unmarshal response: %v, body: %s", domain.ErrGatewayUnavailable, err, string(body))
	}

	if response.Code != "00" {
		return adapter.OrderInfo{}, fmt.Errorf("payos error: code %s, desc: %s", response.Code, response.Desc)
	}
	if response.Data.OrderCode != orderID {
		return adapter.OrderInfo{}, fmt.Errorf("%w: asked for order %s, got %s", domain.ErrGatewayMismatch, orderID, response.Data.OrderCode)
	}

	return adapter.OrderInfo{
		OrderID: response.Data.OrderCode,
		Status:  model.GatewayStatus(response.Data.Status),
		Amount:  response.Data.Amount,
	}, nil
}

func (g *PayOSGateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-client-id", g.clientID)
	req.Header.Set("x-api-key", g.apiKey)
}

// sign computes the PayOS request signature:
// HMAC-SHA256 over the alphabetically ordered checkout fields.
func (g *PayOSGateway) sign(req adapter.CheckoutRequest) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%s&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderID, req.ReturnURL)
	h := hmac.New(sha256.New, []byte(g.checksumKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
