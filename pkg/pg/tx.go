package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool and pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise. Serialization failures and deadlocks re-run
// fn from scratch up to attempts times, so fn must not keep state between runs.
func WithTx(ctx context.Context, db TxBeginner, opts pgx.TxOptions, attempts int, fn func(pgx.Tx) error) error {
	attempts = max(attempts, 1)

	var err error
	for range attempts {
		err = pgx.BeginTxFunc(ctx, db, opts, fn)
		if err == nil || !IsRetryableTxError(err) {
			return err
		}
		if ctx.Err() != nil {
			return errors.Join(err, ctx.Err())
		}
	}
	return errors.Join(ErrTxRetriesExhausted, err)
}
