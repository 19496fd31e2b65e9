package model

import "time"

// GatewayStatus is the vocabulary the external gateway reports for an order.
// It is deliberately a separate type from PaymentStatus: the gateway owns this
// set and may grow it; local invariants must never depend on it directly.
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "PENDING"
	GatewayStatusPaid      GatewayStatus = "PAID"
	GatewayStatusCancelled GatewayStatus = "CANCELLED"
	GatewayStatusExpired   GatewayStatus = "EXPIRED"
)

// PaymentStatus is the local status of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // checkout created; awaiting gateway outcome
	PaymentStatusPaid      PaymentStatus = "PAID"      // gateway confirmed the money moved
	PaymentStatusFailed    PaymentStatus = "FAILED"    // gateway reported an unrecoverable failure
	PaymentStatusCancelled PaymentStatus = "CANCELLED" // user abandoned checkout
	PaymentStatusExpired   PaymentStatus = "EXPIRED"   // checkout link lapsed
)

// PaymentStatusFromGateway maps the gateway vocabulary onto the local one.
// Unknown gateway values map to FAILED so a vocabulary drift on the provider
// side can never be mistaken for a successful payment.
func PaymentStatusFromGateway(gs GatewayStatus) PaymentStatus {
	switch gs {
	case GatewayStatusPending:
		return PaymentStatusPending
	case GatewayStatusPaid:
		return PaymentStatusPaid
	case GatewayStatusCancelled:
		return PaymentStatusCancelled
	case GatewayStatusExpired:
		return PaymentStatusExpired
	default:
		return PaymentStatusFailed
	}
}

// Payment records one purchase attempt against the external gateway.
// OrderID is assigned at creation, immutable, and 1:1 with the gateway's
// record of the same transaction. Rows are never deleted (audit trail).
type Payment struct {
	ID          string // UUID
	UserID      string // UUID of the owning user
	Amount      int64  // smallest currency unit
	Description string
	OrderID     string // gateway-facing order identifier (ULID)
	CheckoutURL string // gateway-hosted checkout page
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time // set on first transition to PAID
}
