package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`.
//
// Use cases call repositories with the same ctx and tx inside the callback so
// that order transitions, coupon decrements and contract grants commit or roll
// back together. The concrete type of `tx` is infra-defined (pgx.Tx for
// Postgres); repositories must gracefully accept nil (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
