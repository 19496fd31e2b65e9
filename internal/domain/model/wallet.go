package model

import "time"

// Wallet holds one spendable balance per user. The balance only changes via
// atomic conditional increments/decrements at the store layer; it is never
// read-modified-written by application code.
type Wallet struct {
	ID      string // UUID
	UserID  string // UUID; unique, one wallet per user
	Balance int64  // smallest currency unit; never negative
	// WithdrawnToday tracks the running total of withdrawals since midnight;
	// reset by the daily cron job.
	WithdrawnToday int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
