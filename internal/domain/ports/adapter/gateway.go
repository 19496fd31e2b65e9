package adapter

import (
	"context"

	"art-gallery-payments/internal/domain/model"
)

// CheckoutRequest carries everything the gateway needs to mint a hosted
// checkout page for one order.
type CheckoutRequest struct {
	OrderID     string
	Amount      int64 // smallest currency unit
	Description string
	CancelURL   string
	ReturnURL   string
}

// OrderInfo is the gateway's authoritative view of one order. Responses are
// untrusted until the caller re-validates OrderID and Amount against the
// local payment record.
type OrderInfo struct {
	OrderID string
	Status  model.GatewayStatus
	Amount  int64
}

// PaymentGateway is the hex port for the external payment provider. Every
// call is a remote call with a bounded timeout; failures mean "unknown
// outcome", never "failed payment".
type PaymentGateway interface {
	Name() string

	// CreateCheckout registers the order with the provider and returns the
	// hosted checkout URL the user must be redirected to.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (checkoutURL string, err error)

	// GetStatus queries the provider for the authoritative status of an order.
	GetStatus(ctx context.Context, orderID string) (OrderInfo, error)
}
