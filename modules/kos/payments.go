package kos

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/file"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

// PaymentInput is a payment claim against a bill. PaymentDate defaults to today.
type PaymentInput struct {
	Amount      int64         `json:"amount"`
	Method      PaymentMethod `json:"payment_method"`
	PaymentDate *time.Time    `json:"payment_date"`
	ProofImage  string        `json:"proof_image"`
	Notes       string        `json:"notes"`
}

func (in PaymentInput) validate() error {
	return validationError(validator.Apply(
		validator.Positive("amount", in.Amount),
		validator.MaxNum("amount", in.Amount, maxUnitAmount),
		validator.InList("payment_method", in.Method, PaymentMethods),
		validator.MaxLenString("proof_image", in.ProofImage, 1024),
		validator.MaxLenString("notes", in.Notes, 2000),
	))
}

// ConfirmResult is returned by ConfirmPayment. AlreadyConfirmed marks a
// repeated confirmation that changed nothing.
type ConfirmResult struct {
	Payment          *Payment `json:"payment"`
	Bill             *Bill    `json:"bill"`
	AlreadyConfirmed bool     `json:"already_confirmed"`
}

// SubmitPayment records a pending payment claim. The bill is not modified.
func (s *service) SubmitPayment(ctx context.Context, a Actor, billID uuid.UUID, in PaymentInput) (*Payment, error) {
	if err := s.authorizeOwned(a, PermPaymentsSubmit); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkProof(ctx, in.ProofImage); err != nil {
		return nil, err
	}

	var p *Payment
	err := s.withNumber(ctx, s.cfg.PaymentNumberPrefix, KeyPaymentNumber, func(number string) error {
		return s.store.WithTx(ctx, func(tx Tx) error {
			bill, err := s.ownedBill(ctx, tx, a, billID, true)
			if err != nil {
				return err
			}
			if bill.Status != BillUnpaid {
				return transitionError("bill", billID, string(bill.Status), "submit_payment")
			}

			now := s.now().UTC()
			paid := dateOf(now)
			if in.PaymentDate != nil {
				paid = dateOf(*in.PaymentDate)
			}
			p = &Payment{
				ID:            uuid.New(),
				BillID:        billID,
				OwnerID:       bill.OwnerID,
				PaymentNumber: number,
				Amount:        in.Amount,
				PaymentDate:   paid,
				Method:        in.Method,
				ProofImage:    strings.TrimSpace(in.ProofImage),
				Status:        PaymentPending,
				Notes:         strings.TrimSpace(in.Notes),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			return tx.InsertPayment(ctx, p)
		})
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "payment submitted",
		logger.BillID(billID),
		logger.PaymentID(p.ID),
		slog.String("payment_number", p.PaymentNumber),
		slog.Int64("amount", p.Amount),
	)
	s.record(ctx, a, "payment.submitted", "payment", p.ID,
		audit.WithMetadata("bill_id", billID.String()),
		audit.WithMetadata("amount", p.Amount),
	)
	return p, nil
}

// checkProof verifies that a proof reference points at a stored object.
func (s *service) checkProof(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" || s.files == nil {
		return nil
	}
	ok, err := file.Exists(ctx, s.files, key)
	if errors.Is(err, file.ErrInvalidPath) {
		return fieldError("proof_image", "invalid proof image reference")
	}
	if err != nil {
		return errors.Join(ErrProofLookup, err)
	}
	if !ok {
		return fieldError("proof_image", "proof image not found")
	}
	return nil
}

// ConfirmPayment accepts a pending payment and closes its bill in the same
// transaction. The bill row is locked before the payment row.
func (s *service) ConfirmPayment(ctx context.Context, a Actor, paymentID uuid.UUID) (*ConfirmResult, error) {
	if err := s.authorizeOwned(a, PermPaymentsReview); err != nil {
		return nil, err
	}

	res := &ConfirmResult{}
	var billFrom BillStatus
	err := s.store.WithTx(ctx, func(tx Tx) error {
		probe, err := s.ownedPayment(ctx, tx, a, paymentID, false)
		if err != nil {
			return err
		}
		bill, err := tx.GetBill(ctx, probe.BillID, true)
		if err != nil {
			return err
		}
		p, err := tx.GetPayment(ctx, paymentID, true)
		if err != nil {
			return err
		}
		res.Payment, res.Bill = p, bill
		res.AlreadyConfirmed = false

		if p.Status == PaymentConfirmed {
			res.AlreadyConfirmed = true
			return nil
		}
		if _, err := fire(ctx, paymentLifecycle, "payment", paymentID, p.Status, EventConfirm, nil); err != nil {
			return err
		}
		if bill.Status == BillCancelled {
			return transitionError("bill", bill.ID, string(bill.Status), EventPay)
		}
		confirmed, err := tx.CountPayments(ctx, bill.ID, PaymentConfirmed)
		if err != nil {
			return err
		}
		if confirmed > 0 {
			return conflictError("bill", bill.ID, "another payment is already confirmed")
		}
		if bill.Status == BillPaid {
			return conflictError("bill", bill.ID, "bill is already paid")
		}
		next, err := fire(ctx, billLifecycle, "bill", bill.ID, bill.Status, EventPay, nil)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		reviewer := a.UserID
		p.Status = PaymentConfirmed
		p.ConfirmedAt = &now
		p.ConfirmedBy = &reviewer
		p.ReviewedAt = &now
		p.UpdatedAt = now
		if err := tx.UpdatePayment(ctx, p); err != nil {
			if IsDuplicateKey(err, KeyConfirmedPayment) {
				return conflictError("bill", bill.ID, "another payment is already confirmed")
			}
			return err
		}

		billFrom = bill.EffectiveStatus(s.today())
		bill.Status = BillStatus(next)
		bill.UpdatedAt = now
		return tx.UpdateBill(ctx, bill)
	})
	if err != nil {
		return nil, storeError(err)
	}

	if res.AlreadyConfirmed {
		s.log.InfoContext(ctx, "payment already confirmed", logger.PaymentID(paymentID))
	} else {
		s.log.InfoContext(ctx, "payment confirmed",
			logger.PaymentID(paymentID),
			logger.BillID(res.Bill.ID),
			logger.UserID(a.UserID),
			logger.Transition(string(billFrom), string(BillPaid)),
		)
		s.record(ctx, a, "payment.confirmed", "payment", paymentID,
			audit.WithMetadata("bill_id", res.Bill.ID.String()))
	}
	res.Bill = s.presentBill(res.Bill)
	return res, nil
}

// RejectPayment declines a pending payment. Notes are required; the bill stays
// open for another payment.
func (s *service) RejectPayment(ctx context.Context, a Actor, paymentID uuid.UUID, notes string) (*Payment, error) {
	if err := s.authorizeOwned(a, PermPaymentsReview); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if err := validationError(validator.Apply(
		validator.RequiredString("notes", notes),
		validator.MaxLenString("notes", notes, 2000),
	)); err != nil {
		return nil, err
	}

	var p *Payment
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		if p, err = s.ownedPayment(ctx, tx, a, paymentID, true); err != nil {
			return err
		}
		next, err := fire(ctx, paymentLifecycle, "payment", paymentID, p.Status, EventReject, nil)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		p.Status = PaymentStatus(next)
		p.Notes = notes
		p.ReviewedAt = &now
		p.UpdatedAt = now
		return tx.UpdatePayment(ctx, p)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "payment rejected",
		logger.PaymentID(paymentID),
		logger.BillID(p.BillID),
		logger.UserID(a.UserID),
	)
	s.record(ctx, a, "payment.rejected", "payment", paymentID,
		audit.WithMetadata("bill_id", p.BillID.String()),
		audit.WithMetadata("notes", notes),
	)
	return p, nil
}

func (s *service) GetPayment(ctx context.Context, a Actor, id uuid.UUID) (*Payment, error) {
	if err := s.authorizeOwned(a, PermPaymentsRead); err != nil {
		return nil, err
	}
	var p *Payment
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		p, err = s.ownedPayment(ctx, tx, a, id, false)
		return err
	})
	return p, storeError(err)
}

func (s *service) ListPayments(ctx context.Context, a Actor, billID uuid.UUID) ([]Payment, error) {
	if err := s.authorizeOwned(a, PermPaymentsRead); err != nil {
		return nil, err
	}
	var list []Payment
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := s.ownedBill(ctx, tx, a, billID, false); err != nil {
			return err
		}
		var err error
		list, err = tx.ListPayments(ctx, billID)
		return err
	})
	return list, storeError(err)
}

func (s *service) ownedPayment(ctx context.Context, tx Tx, a Actor, id uuid.UUID, forUpdate bool) (*Payment, error) {
	p, err := tx.GetPayment(ctx, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if err := owned(a, p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}
