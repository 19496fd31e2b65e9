package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionCols = `id, wallet_id, payment_id, order_id, amount, type, status, description, fingerprint, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	if err := row.Scan(&t.ID, &t.WalletID, &t.PaymentID, &t.OrderID, &t.Amount, &t.Type, &t.Status, &t.Description, &t.Fingerprint, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

// Save is insert-if-absent on the order id; when two verifies race to create
// the ledger entry the first insert wins and the second becomes a no-op.
func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (id, wallet_id, payment_id, order_id, amount, type, status, description, fingerprint, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (order_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.WalletID, t.PaymentID, t.OrderID, t.Amount, t.Type, t.Status, t.Description, t.Fingerprint, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Transaction, error) {
	q := `SELECT ` + transactionCols + ` FROM transactions WHERE order_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

// MarkPaidIfPending is the linearizable PENDING->PAID gate: the conditional
// WHERE clause lets exactly one caller observe RowsAffected()==1.
func (r *transactionRepo) MarkPaidIfPending(ctx context.Context, tx repository.Tx, orderID string) (bool, error) {
	const q = `UPDATE transactions SET status='PAID', updated_at=NOW() WHERE order_id=$1 AND status='PENDING';`
	cmd, err := execSQL(ctx, r.pool, tx, q, orderID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *transactionRepo) MarkFailedIfPending(ctx context.Context, tx repository.Tx, orderID string) (bool, error) {
	const q = `UPDATE transactions SET status='FAILED', updated_at=NOW() WHERE order_id=$1 AND status='PENDING';`
	cmd, err := execSQL(ctx, r.pool, tx, q, orderID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *transactionRepo) ListByWallet(ctx context.Context, tx repository.Tx, walletID string, offset, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + transactionCols + ` FROM transactions WHERE wallet_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, walletID, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *transactionRepo) CountByWallet(ctx context.Context, tx repository.Tx, walletID string) (int, error) {
	const q = `SELECT COUNT(*) FROM transactions WHERE wallet_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, walletID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
