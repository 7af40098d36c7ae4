package kos_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/modules/kos/memstore"
	"github.com/dmitrymomot/koskit/pkg/file"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

func TestPaymentConfirmation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("confirm closes the bill and repeats as a no-op", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		p := f.submit(t, b.ID, 500000)
		assert.Equal(t, kos.PaymentPending, p.Status)
		assert.Equal(t, "PAY-20250310-0001", p.PaymentNumber)
		assert.Equal(t, kos.BillUnpaid, f.storedBill(t, b.ID).Status)

		res, err := f.svc.ConfirmPayment(ctx, f.operator, p.ID)
		require.NoError(t, err)
		assert.False(t, res.AlreadyConfirmed)
		assert.Equal(t, kos.PaymentConfirmed, res.Payment.Status)
		require.NotNil(t, res.Payment.ConfirmedAt)
		require.NotNil(t, res.Payment.ConfirmedBy)
		assert.Equal(t, f.operator.UserID, *res.Payment.ConfirmedBy)
		assert.Equal(t, kos.BillPaid, res.Bill.Status)
		assert.Equal(t, kos.BillPaid, f.storedBill(t, b.ID).Status)

		again, err := f.svc.ConfirmPayment(ctx, f.operator, p.ID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyConfirmed)
		assert.Equal(t, *res.Payment.ConfirmedAt, *again.Payment.ConfirmedAt)

		assert.Contains(t, f.events.Actions(), "payment.confirmed")
	})

	t.Run("owners cannot review payments", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		p := f.submit(t, b.ID, 500000)

		_, err := f.svc.ConfirmPayment(ctx, f.owner, p.ID)
		require.ErrorIs(t, err, kos.ErrForbidden)
		_, err = f.svc.RejectPayment(ctx, f.owner, p.ID, "no")
		require.ErrorIs(t, err, kos.ErrForbidden)
	})

	t.Run("second payment on a paid bill conflicts", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		first := f.submit(t, b.ID, 500000)
		second := f.submit(t, b.ID, 500000)

		_, err := f.svc.ConfirmPayment(ctx, f.operator, first.ID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmPayment(ctx, f.operator, second.ID)
		require.ErrorIs(t, err, kos.ErrReferentialConflict)
		var ce *kos.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, b.ID, ce.ID)

		got, err := f.svc.GetPayment(ctx, f.owner, second.ID)
		require.NoError(t, err)
		assert.Equal(t, kos.PaymentPending, got.Status)
	})

	t.Run("rejected payment stays rejected after manual settlement", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		p := f.submit(t, b.ID, 500000)
		_, err := f.svc.RejectPayment(ctx, f.operator, p.ID, "wrong account")
		require.NoError(t, err)
		_, err = f.svc.MarkPaid(ctx, f.owner, b.ID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmPayment(ctx, f.operator, p.ID)
		require.ErrorIs(t, err, kos.ErrInvalidStateTransition)
	})

	t.Run("cancelled bill refuses confirmation", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		p := f.submit(t, b.ID, 500000)
		_, err := f.svc.CancelBill(ctx, f.owner, b.ID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmPayment(ctx, f.operator, p.ID)
		var te *kos.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "bill", te.Entity)
		got, err := f.svc.GetPayment(ctx, f.owner, p.ID)
		require.NoError(t, err)
		assert.Equal(t, kos.PaymentPending, got.Status)
	})

	t.Run("concurrent confirmations close the bill once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		payments := make([]*kos.Payment, 5)
		for i := range payments {
			payments[i] = f.submit(t, b.ID, 500000)
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			confirmed int
			conflicts int
		)
		for _, p := range payments {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.ConfirmPayment(ctx, f.operator, p.ID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					confirmed++
				case errors.Is(err, kos.ErrReferentialConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, confirmed)
		assert.Equal(t, 4, conflicts)

		list, err := f.svc.ListPayments(ctx, f.owner, b.ID)
		require.NoError(t, err)
		n := 0
		for _, p := range list {
			if p.Status == kos.PaymentConfirmed {
				n++
			}
		}
		assert.Equal(t, 1, n)
	})
}

// failingBillUpdate breaks UpdateBill so confirmation aborts after the
// payment row was written.
type failingBillUpdate struct {
	*memstore.Store
}

func (s failingBillUpdate) WithTx(ctx context.Context, fn func(kos.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx kos.Tx) error {
		return fn(failingBillUpdateTx{tx})
	})
}

type failingBillUpdateTx struct {
	kos.Tx
}

func (failingBillUpdateTx) UpdateBill(context.Context, *kos.Bill) error {
	return errors.New("connection reset")
}

func TestConfirmPaymentIsAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	good := newFixture(t)
	_, tn := good.occupied(t)
	b := good.bill(t, tn.ID, 500000)
	p := good.submit(t, b.ID, 500000)

	broken := newFixtureWithStore(t, good.store, failingBillUpdate{good.store})
	_, err := broken.svc.ConfirmPayment(ctx, good.operator, p.ID)
	require.ErrorIs(t, err, kos.ErrStore)

	got, err := good.svc.GetPayment(ctx, good.owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, kos.PaymentPending, got.Status)
	assert.Nil(t, got.ConfirmedAt)
	assert.Equal(t, kos.BillUnpaid, good.storedBill(t, b.ID).Status)
}

func TestRejectPayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	_, tn := f.occupied(t)
	b := f.bill(t, tn.ID, 500000)
	p := f.submit(t, b.ID, 500000)

	_, err := f.svc.RejectPayment(ctx, f.operator, p.ID, "")
	require.ErrorIs(t, err, kos.ErrValidation)
	assert.True(t, validator.ExtractValidationErrors(err).Has("notes"))
	_, err = f.svc.RejectPayment(ctx, f.operator, p.ID, "   ")
	require.ErrorIs(t, err, kos.ErrValidation)

	rejected, err := f.svc.RejectPayment(ctx, f.operator, p.ID, "insufficient proof")
	require.NoError(t, err)
	assert.Equal(t, kos.PaymentRejected, rejected.Status)
	assert.Equal(t, "insufficient proof", rejected.Notes)
	assert.NotNil(t, rejected.ReviewedAt)
	assert.Nil(t, rejected.ConfirmedAt)

	bill, err := f.svc.GetBill(ctx, f.owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, kos.BillUnpaid, bill.Status)

	_, err = f.svc.ConfirmPayment(ctx, f.operator, p.ID)
	require.ErrorIs(t, err, kos.ErrInvalidStateTransition)
	_, err = f.svc.RejectPayment(ctx, f.operator, p.ID, "again")
	require.ErrorIs(t, err, kos.ErrInvalidStateTransition)

	retry := f.submit(t, b.ID, 500000)
	res, err := f.svc.ConfirmPayment(ctx, f.operator, retry.ID)
	require.NoError(t, err)
	assert.Equal(t, kos.BillPaid, res.Bill.Status)
}

func TestSubmitPayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)

		_, err := f.svc.SubmitPayment(ctx, f.owner, b.ID, kos.PaymentInput{Amount: 0, Method: "cheque"})
		require.ErrorIs(t, err, kos.ErrValidation)
		fields := validator.ExtractValidationErrors(err)
		assert.True(t, fields.Has("amount"))
		assert.True(t, fields.Has("payment_method"))
	})

	t.Run("only unpaid bills accept payments", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		paid := f.bill(t, tn.ID, 500000)
		_, err := f.svc.MarkPaid(ctx, f.owner, paid.ID)
		require.NoError(t, err)
		_, err = f.svc.SubmitPayment(ctx, f.owner, paid.ID, kos.PaymentInput{Amount: 1, Method: kos.MethodCash})
		require.ErrorIs(t, err, kos.ErrInvalidStateTransition)

		cancelled := f.bill(t, tn.ID, 500000)
		_, err = f.svc.CancelBill(ctx, f.owner, cancelled.ID)
		require.NoError(t, err)
		_, err = f.svc.SubmitPayment(ctx, f.owner, cancelled.ID, kos.PaymentInput{Amount: 1, Method: kos.MethodCash})
		require.ErrorIs(t, err, kos.ErrInvalidStateTransition)
	})

	t.Run("overdue bills accept payments", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)
		f.clock.Advance(40 * 24 * time.Hour)
		p := f.submit(t, b.ID, 500000)
		assert.Equal(t, kos.PaymentPending, p.Status)
	})

	t.Run("proof must exist in file storage", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "proofs"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "proofs", "ok.jpg"), []byte("jpeg"), 0o644))
		files, err := file.NewLocalStorage(dir, "/uploads")
		require.NoError(t, err)

		f := newFixture(t, kos.WithFileStorage(files))
		_, tn := f.occupied(t)
		b := f.bill(t, tn.ID, 500000)

		_, err = f.svc.SubmitPayment(ctx, f.owner, b.ID, kos.PaymentInput{Amount: 500000, Method: kos.MethodQRIS, ProofImage: "proofs/missing.jpg"})
		require.ErrorIs(t, err, kos.ErrValidation)
		assert.True(t, validator.ExtractValidationErrors(err).Has("proof_image"))

		p, err := f.svc.SubmitPayment(ctx, f.owner, b.ID, kos.PaymentInput{Amount: 500000, Method: kos.MethodQRIS, ProofImage: "proofs/ok.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "proofs/ok.jpg", p.ProofImage)
	})
}
