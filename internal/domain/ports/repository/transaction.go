package repository

import (
	"context"

	"art-gallery-payments/internal/domain/model"
)

// TransactionRepository persists ledger entries. The order id carries a
// unique constraint; Save is insert-if-absent so concurrent verifies racing
// to create the entry converge on a single row.
type TransactionRepository interface {
	// Save inserts the entry unless one already exists for its order id, in
	// which case it is a no-op (the existing row wins).
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Transaction, error)
	// MarkPaidIfPending atomically transitions PENDING->PAID and reports
	// whether this call won the transition. Exactly one concurrent caller
	// observes true; everyone else must treat the credit as already applied.
	MarkPaidIfPending(ctx context.Context, tx Tx, orderID string) (bool, error)
	// MarkFailedIfPending records that the credit cannot be completed; a
	// terminal no-op when the entry already settled.
	MarkFailedIfPending(ctx context.Context, tx Tx, orderID string) (bool, error)
	ListByWallet(ctx context.Context, tx Tx, walletID string, offset, limit int) ([]*model.Transaction, error)
	CountByWallet(ctx context.Context, tx Tx, walletID string) (int, error)
}
