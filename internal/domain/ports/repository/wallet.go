package repository

import (
	"context"

	"art-gallery-payments/internal/domain/model"
)

// WalletRepository persists per-user balances. Balance mutation methods are
// conditional single-statement updates; callers never write a balance they
// previously read.
type WalletRepository interface {
	// Create inserts the wallet; returns domain.ErrAlreadyExists when the
	// user already has one (the unique constraint is the race arbiter for
	// concurrent first-time creates).
	Create(ctx context.Context, tx Tx, w *model.Wallet) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.Wallet, error)
	// CreditBalance atomically increments the balance; reports whether the
	// wallet row was found and updated.
	CreditBalance(ctx context.Context, tx Tx, walletID string, amount int64) (bool, error)
	// DebitBalanceIfSufficient decrements only when balance >= amount;
	// returns false (and leaves the row untouched) otherwise.
	DebitBalanceIfSufficient(ctx context.Context, tx Tx, walletID string, amount int64) (bool, error)
	// DebitForWithdrawal additionally enforces the per-day withdrawal cap and
	// bumps the daily counter in the same statement.
	DebitForWithdrawal(ctx context.Context, tx Tx, walletID string, amount, dailyLimit int64) (bool, error)
	// ResetDailyWithdrawals zeroes the daily counters; run by the midnight
	// cron job. Returns the number of wallets touched.
	ResetDailyWithdrawals(ctx context.Context, tx Tx) (int64, error)
}
