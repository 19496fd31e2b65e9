// File: internal/usecase/wallet_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/infra/logging"
)

// Compile-time check
var _ WalletUseCase = (*walletUC)(nil)

type WalletUseCase interface {
	// Get returns the user's wallet, creating an empty one on first touch.
	Get(ctx context.Context, userID string) (*model.Wallet, error)
	// Spend atomically debits the wallet and writes a PAID ledger entry.
	// Returns domain.ErrInsufficientBalance without touching the balance
	// when funds are short.
	Spend(ctx context.Context, userID string, amount int64, description string, txType model.TransactionType) (*model.Transaction, error)
	// Withdraw is Spend with the per-day withdrawal cap enforced.
	Withdraw(ctx context.Context, userID string, amount int64) (*model.Transaction, error)
	// History returns the wallet's ledger entries, newest first, plus the total count.
	History(ctx context.Context, userID string, offset, limit int) ([]*model.Transaction, int, error)
}

type walletUC struct {
	wallets    repository.WalletRepository
	ledger     repository.TransactionRepository
	tm         repository.TransactionManager
	dailyLimit int64
	log        *zerolog.Logger
}

func NewWalletUseCase(
	wallets repository.WalletRepository,
	ledger repository.TransactionRepository,
	tm repository.TransactionManager,
	dailyWithdrawLimit int64,
	logger *zerolog.Logger,
) *walletUC {
	l := logger.With().Str("component", "WalletUC").Logger()
	return &walletUC{wallets: wallets, ledger: ledger, tm: tm, dailyLimit: dailyWithdrawLimit, log: &l}
}

// getOrCreateWallet is the shared idempotent get-or-create. Two concurrent
// first payments for a brand-new user can both attempt the insert; the loser
// detects the uniqueness violation and re-fetches instead of erroring out.
func getOrCreateWallet(ctx context.Context, wallets repository.WalletRepository, userID string) (*model.Wallet, error) {
	for i := 0; i < 3; i++ {
		w, err := wallets.FindByUser(ctx, nil, userID)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		now := time.Now()
		w = &model.Wallet{
			ID:        uuid.NewString(),
			UserID:    userID,
			Balance:   0,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = wallets.Create(ctx, nil, w)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		// Lost the creation race; loop re-fetches the winner's row.
	}
	return nil, fmt.Errorf("%w: could not get or create wallet for user %s", domain.ErrOperationFailed, userID)
}

func (u *walletUC) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	defer logging.TraceDuration(u.log, "WalletUC.Get")()

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return getOrCreateWallet(ctx, u.wallets, userID)
}

func (u *walletUC) Spend(ctx context.Context, userID string, amount int64, description string, txType model.TransactionType) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "WalletUC.Spend")()

	return u.debit(ctx, userID, amount, description, txType, false)
}

func (u *walletUC) Withdraw(ctx context.Context, userID string, amount int64) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "WalletUC.Withdraw")()

	return u.debit(ctx, userID, amount, fmt.Sprintf("Withdrawal %d", amount), model.TransactionTypeWithdrawal, true)
}

func (u *walletUC) debit(ctx context.Context, userID string, amount int64, description string, txType model.TransactionType, withdrawal bool) (*model.Transaction, error) {
	if userID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	wallet, err := getOrCreateWallet(ctx, u.wallets, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := &model.Transaction{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		OrderID:     ulid.Make().String(), // internal spends mint their own order id
		Amount:      amount,
		Type:        txType,
		Status:      model.TransactionStatusPaid,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.Fingerprint = model.TransactionFingerprint(t.ID, t.OrderID)

	// Debit and ledger entry commit together; a failed debit rolls back both.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var ok bool
		var debitErr error
		if withdrawal {
			ok, debitErr = u.wallets.DebitForWithdrawal(ctx, tx, wallet.ID, amount, u.dailyLimit)
		} else {
			ok, debitErr = u.wallets.DebitBalanceIfSufficient(ctx, tx, wallet.ID, amount)
		}
		if debitErr != nil {
			return debitErr
		}
		if !ok {
			if withdrawal && wallet.Balance >= amount {
				return domain.ErrWithdrawLimit
			}
			return fmt.Errorf("%w: available %d", domain.ErrInsufficientBalance, wallet.Balance)
		}
		return u.ledger.Save(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Str("type", string(txType)).Int64("amount", amount).Msg("wallet debited")
	return t, nil
}

func (u *walletUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.Transaction, int, error) {
	defer logging.TraceDuration(u.log, "WalletUC.History")()

	if userID == "" {
		return nil, 0, domain.ErrInvalidArgument
	}
	wallet, err := getOrCreateWallet(ctx, u.wallets, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := u.ledger.ListByWallet(ctx, nil, wallet.ID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.ledger.CountByWallet(ctx, nil, wallet.ID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
