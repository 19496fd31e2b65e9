package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through use cases into
// repositories. Repositories accept nil (non-transactional path) or the
// infra-defined concrete handle (pgx.Tx for Postgres).
type Tx interface{}

// TransactionManager runs a function inside a database transaction and hands
// the transaction handle to it. It exists so the credit step can commit the
// ledger PENDING->PAID claim and the wallet increment as one atomic unit
// without leaking transaction types into the use-case interfaces.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
