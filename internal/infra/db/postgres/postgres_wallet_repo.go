package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/repository"
)

var _ repository.WalletRepository = (*walletRepo)(nil)

type walletRepo struct{ pool *pgxpool.Pool }

func NewWalletRepo(pool *pgxpool.Pool) *walletRepo {
	return &walletRepo{pool: pool}
}

const walletCols = `id, user_id, balance, withdrawn_today, created_at, updated_at`

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	w := &model.Wallet{}
	if err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.WithdrawnToday, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return w, nil
}

// Create relies on the unique constraint on user_id to arbitrate concurrent
// first-time creates; the loser receives domain.ErrAlreadyExists and must
// re-fetch.
func (r *walletRepo) Create(ctx context.Context, tx repository.Tx, w *model.Wallet) error {
	const q = `
INSERT INTO wallets (id, user_id, balance, withdrawn_today, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := execSQL(ctx, r.pool, tx, q, w.ID, w.UserID, w.Balance, w.WithdrawnToday, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *walletRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Wallet, error) {
	const q = `SELECT ` + walletCols + ` FROM wallets WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanWallet(row)
}

func (r *walletRepo) CreditBalance(ctx context.Context, tx repository.Tx, walletID string, amount int64) (bool, error) {
	const q = `UPDATE wallets SET balance=balance+$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, walletID, amount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *walletRepo) DebitBalanceIfSufficient(ctx context.Context, tx repository.Tx, walletID string, amount int64) (bool, error) {
	const q = `UPDATE wallets SET balance=balance-$2, updated_at=NOW() WHERE id=$1 AND balance >= $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, walletID, amount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *walletRepo) DebitForWithdrawal(ctx context.Context, tx repository.Tx, walletID string, amount, dailyLimit int64) (bool, error) {
	// dailyLimit <= 0 disables the cap.
	const q = `
UPDATE wallets SET balance=balance-$2, withdrawn_today=withdrawn_today+$2, updated_at=NOW()
WHERE id=$1 AND balance >= $2 AND ($3 <= 0 OR withdrawn_today + $2 <= $3);`
	cmd, err := execSQL(ctx, r.pool, tx, q, walletID, amount, dailyLimit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *walletRepo) ResetDailyWithdrawals(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `UPDATE wallets SET withdrawn_today=0, updated_at=NOW() WHERE withdrawn_today > 0;`
	cmd, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}
