// Package pgstore persists kos state in PostgreSQL through pgx.
//
// Row locks map to SELECT ... FOR UPDATE; the partial unique indexes on
// tenants and payments back the one-active-tenant and one-confirmed-payment
// rules even when two transactions race past the service checks.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the goose files.
const MigrationsDir = "migrations"

// Migrations returns the embedded schema migrations.
func Migrations() embed.FS { return migrations }

// Migrate applies the kos schema to the pool's database.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, cfg, migrations, MigrationsDir, log)
}

var (
	ErrMissingParent  = errors.New("pgstore: referenced row does not exist")
	errNilTransaction = errors.New("pgstore: nil transaction func")
)

var _ kos.Store = (*Store)(nil)

// Store runs kos transactions at READ COMMITTED; consistency comes from the
// explicit row locks the service takes.
type Store struct {
	db       pg.TxBeginner
	attempts int
}

type Option func(*Store)

// WithTxRetryAttempts bounds re-runs after serialization failures or deadlocks.
func WithTxRetryAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func New(db pg.TxBeginner, opts ...Option) *Store {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	s := &Store{db: db, attempts: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(tx kos.Tx) error) error {
	if fn == nil {
		return errNilTransaction
	}
	return pg.WithTx(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, s.attempts, func(t pgx.Tx) error {
		return fn(&tx{q: t})
	})
}

func (s *Store) View(ctx context.Context, fn func(tx kos.Tx) error) error {
	if fn == nil {
		return errNilTransaction
	}
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pg.WithTx(ctx, s.db, opts, s.attempts, func(t pgx.Tx) error {
		return fn(&tx{q: t})
	})
}

// querier is the part of pgx.Tx the row methods use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type tx struct {
	q querier
}

// Constraint names from the migrations mapped to kos unique keys.
var uniqueKeys = map[string]string{
	"subscription_plans_pkey":     kos.KeyPlanSlug,
	"subscriptions_pkey":          kos.KeySubscriptionOwner,
	"bills_bill_number_key":       kos.KeyBillNumber,
	"payments_payment_number_key": kos.KeyPaymentNumber,
	"tenants_active_room_key":     kos.KeyActiveTenant,
	"payments_confirmed_bill_key": kos.KeyConfirmedPayment,
}

// mapError translates driver errors into the errors kos.Tx promises.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pg.IsNotFoundError(err) {
		return kos.ErrNotFound
	}
	for constraint, key := range uniqueKeys {
		if pg.IsConstraintViolation(err, constraint) {
			return &kos.DuplicateKeyError{Key: key}
		}
	}
	if pg.IsForeignKeyViolationError(err) {
		return errors.Join(ErrMissingParent, err)
	}
	return fmt.Errorf("pgstore: %s: %w", op, err)
}

// affected turns a zero-row write into kos.ErrNotFound.
func affected(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return kos.ErrNotFound
	}
	return nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}
