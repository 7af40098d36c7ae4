package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/koskit/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: pg.CodeUniqueViolation, ConstraintName: "bills_bill_number_key"}
	fk := &pgconn.PgError{Code: pg.CodeForeignKeyViolation}
	serialization := &pgconn.PgError{Code: pg.CodeSerializationFailure}
	deadlock := &pgconn.PgError{Code: pg.CodeDeadlockDetected}

	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"not found", pg.IsNotFoundError, fmt.Errorf("get room: %w", pgx.ErrNoRows), true},
		{"not found nil", pg.IsNotFoundError, nil, false},
		{"duplicate", pg.IsDuplicateKeyError, unique, true},
		{"duplicate wrapped", pg.IsDuplicateKeyError, errors.Join(errors.New("insert"), unique), true},
		{"duplicate other code", pg.IsDuplicateKeyError, fk, false},
		{"foreign key", pg.IsForeignKeyViolationError, fk, true},
		{"retryable serialization", pg.IsRetryableTxError, serialization, true},
		{"retryable deadlock", pg.IsRetryableTxError, deadlock, true},
		{"not retryable", pg.IsRetryableTxError, unique, false},
		{"plain error", pg.IsDuplicateKeyError, errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.fn(tt.err))
		})
	}

	t.Run("constraint name", func(t *testing.T) {
		t.Parallel()
		assert.True(t, pg.IsConstraintViolation(unique, "bills_bill_number_key"))
		assert.False(t, pg.IsConstraintViolation(unique, "payments_payment_number_key"))
		assert.False(t, pg.IsConstraintViolation(fk, "bills_bill_number_key"))
	})
}
