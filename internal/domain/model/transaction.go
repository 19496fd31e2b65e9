package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type TransactionType string

const (
	TransactionTypeDeposit      TransactionType = "DEPOSIT"
	TransactionTypePayment      TransactionType = "PAYMENT"
	TransactionTypeWithdrawal   TransactionType = "WITHDRAWAL"
	TransactionTypeSubscription TransactionType = "PREMIUM_SUBSCRIPTION"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusPaid    TransactionStatus = "PAID"   // terminal; the wallet credit has been applied
	TransactionStatusFailed  TransactionStatus = "FAILED" // terminal; the credit could not be applied
)

// Transaction is a ledger entry for one balance-affecting event.
// At most one entry exists per gateway order id, and the PENDING->PAID
// transition happens at most once; that conditional write is the gate that
// makes the wallet credit idempotent.
type Transaction struct {
	ID          string // UUID
	WalletID    string // UUID of the credited/debited wallet
	PaymentID   string // UUID of the Payment this entry settles ("" for wallet-only spends)
	OrderID     string // gateway order id; unique across the ledger
	Amount      int64
	Type        TransactionType
	Status      TransactionStatus
	Description string
	Fingerprint string // idempotency fingerprint, see TransactionFingerprint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionFingerprint derives the idempotency fingerprint recorded on a
// ledger entry from the payment id and gateway order id.
func TransactionFingerprint(paymentID, orderID string) string {
	sum := sha256.Sum256([]byte(paymentID + "-" + orderID))
	return hex.EncodeToString(sum[:])
}
