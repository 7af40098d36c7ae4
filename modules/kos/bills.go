package kos

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

const (
	maxBillItems  = 100
	maxUnitAmount = 1_000_000_000_000
	maxQuantity   = 10_000
)

type BillItemInput struct {
	Description string `json:"description"`
	UnitAmount  int64  `json:"unit_amount"`
	Quantity    int    `json:"quantity"`
}

// BillInput describes a bill to generate. BillDate defaults to today.
type BillInput struct {
	BillDate    *time.Time      `json:"bill_date"`
	DueDate     time.Time       `json:"due_date"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Notes       string          `json:"notes"`
	Items       []BillItemInput `json:"items"`
}

func (in BillInput) validate(billDate time.Time) error {
	rules := []validator.Rule{
		validator.RequiredTime("period_start", in.PeriodStart),
		validator.RequiredTime("period_end", in.PeriodEnd),
		validator.RequiredTime("due_date", in.DueDate),
		validator.When(!in.PeriodStart.IsZero() && !in.PeriodEnd.IsZero(),
			validator.DateNotBefore("period_end", dateOf(in.PeriodEnd), dateOf(in.PeriodStart))),
		validator.When(!in.DueDate.IsZero(),
			validator.DateNotBefore("due_date", dateOf(in.DueDate), billDate)),
		validator.MaxLenString("notes", in.Notes, 2000),
		validator.RequiredSlice("items", in.Items),
		validator.MaxLenSlice("items", in.Items, maxBillItems),
	}
	rules = append(rules, validator.Each("items", in.Items, func(field string, it BillItemInput) []validator.Rule {
		return []validator.Rule{
			validator.RequiredString(field+".description", it.Description),
			validator.MaxLenString(field+".description", it.Description, 255),
			validator.NonNegative(field+".unit_amount", it.UnitAmount),
			validator.MaxNum(field+".unit_amount", it.UnitAmount, maxUnitAmount),
			validator.IntBetween(field+".quantity", it.Quantity, 1, maxQuantity),
		}
	})...)
	return validationError(validator.Apply(rules...))
}

// BillResult reports a bill after an administrative change; Changed is
// false when the bill already had the requested status.
type BillResult struct {
	Bill    *Bill `json:"bill"`
	Changed bool  `json:"changed"`
}

// CreateBill issues a bill with its items for an active tenant. Totals are
// computed here; the header and every item are written in one transaction.
func (s *service) CreateBill(ctx context.Context, a Actor, tenantID uuid.UUID, in BillInput) (*Bill, error) {
	if err := s.authorizeOwned(a, PermBillsCreate); err != nil {
		return nil, err
	}
	billDate := s.today()
	if in.BillDate != nil {
		billDate = dateOf(*in.BillDate)
	}
	if err := in.validate(billDate); err != nil {
		return nil, err
	}

	var bill *Bill
	err := s.withNumber(ctx, s.cfg.BillNumberPrefix, KeyBillNumber, func(number string) error {
		return s.store.WithTx(ctx, func(tx Tx) error {
			tenant, err := s.ownedTenant(ctx, tx, a, tenantID, true)
			if err != nil {
				return err
			}
			if !tenant.IsActive {
				return transitionError("tenant", tenantID, string(tenantInactive), "bill")
			}

			bill = newBill(tenant, number, billDate, in, s.now().UTC())
			if err := tx.InsertBill(ctx, bill); err != nil {
				return err
			}
			return tx.InsertBillItems(ctx, bill.Items)
		})
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "bill created",
		logger.TenantID(tenantID),
		logger.BillID(bill.ID),
		slog.String("bill_number", bill.BillNumber),
		slog.Int64("total", bill.Total),
	)
	s.record(ctx, a, "bill.created", "bill", bill.ID,
		audit.WithMetadata("bill_number", bill.BillNumber),
		audit.WithMetadata("total", bill.Total),
	)
	return s.presentBill(bill), nil
}

func newBill(t *Tenant, number string, billDate time.Time, in BillInput, now time.Time) *Bill {
	b := &Bill{
		ID:          uuid.New(),
		TenantID:    t.ID,
		OwnerID:     t.OwnerID,
		BillNumber:  number,
		BillDate:    billDate,
		DueDate:     dateOf(in.DueDate),
		PeriodStart: dateOf(in.PeriodStart),
		PeriodEnd:   dateOf(in.PeriodEnd),
		Status:      BillUnpaid,
		Notes:       strings.TrimSpace(in.Notes),
		Items:       make([]BillItem, 0, len(in.Items)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, it := range in.Items {
		line := it.UnitAmount * int64(it.Quantity)
		b.Items = append(b.Items, BillItem{
			ID:          uuid.New(),
			BillID:      b.ID,
			Position:    i + 1,
			Description: strings.TrimSpace(it.Description),
			UnitAmount:  it.UnitAmount,
			Quantity:    it.Quantity,
			LineTotal:   line,
		})
		b.Subtotal += line
	}
	b.Total = b.Subtotal
	return b
}

// GetBill returns the bill with its items; Status carries the effective status.
func (s *service) GetBill(ctx context.Context, a Actor, id uuid.UUID) (*Bill, error) {
	if err := s.authorizeOwned(a, PermBillsRead); err != nil {
		return nil, err
	}
	var bill *Bill
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		if bill, err = s.ownedBill(ctx, tx, a, id, false); err != nil {
			return err
		}
		bill.Items, err = tx.ListBillItems(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return s.presentBill(bill), nil
}

func (s *service) ListBills(ctx context.Context, a Actor, tenantID uuid.UUID) ([]Bill, error) {
	if err := s.authorizeOwned(a, PermBillsRead); err != nil {
		return nil, err
	}
	var list []Bill
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := s.ownedTenant(ctx, tx, a, tenantID, false); err != nil {
			return err
		}
		var err error
		list, err = tx.ListBills(ctx, tenantID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	for i := range list {
		list[i].Status = list[i].EffectiveStatus(s.today())
	}
	return list, nil
}

// CancelBill cancels an unpaid or overdue bill. Cancelling twice is a no-op;
// paid bills cannot be cancelled.
func (s *service) CancelBill(ctx context.Context, a Actor, id uuid.UUID) (*BillResult, error) {
	return s.changeBillStatus(ctx, a, id, PermBillsCancel, BillCancelled, EventCancel, nil)
}

// MarkPaid settles a bill without a payment row. It is refused while a
// payment is waiting for review so the bill is not closed twice.
func (s *service) MarkPaid(ctx context.Context, a Actor, id uuid.UUID) (*BillResult, error) {
	return s.changeBillStatus(ctx, a, id, PermBillsMarkPaid, BillPaid, EventPay, func(tx Tx, b *Bill) error {
		pending, err := tx.CountPayments(ctx, b.ID, PaymentPending)
		if err != nil {
			return err
		}
		if pending > 0 {
			return conflictError("bill", b.ID, "a payment is pending review")
		}
		return nil
	})
}

func (s *service) changeBillStatus(ctx context.Context, a Actor, id uuid.UUID, perm string, target BillStatus, event string, check func(Tx, *Bill) error) (*BillResult, error) {
	if err := s.authorizeOwned(a, perm); err != nil {
		return nil, err
	}

	res := &BillResult{}
	var from BillStatus
	err := s.store.WithTx(ctx, func(tx Tx) error {
		b, err := s.ownedBill(ctx, tx, a, id, true)
		if err != nil {
			return err
		}
		res.Bill = b
		res.Changed = false
		from = b.EffectiveStatus(s.today())
		if b.Status == target {
			return nil
		}

		next, err := fire(ctx, billLifecycle, "bill", id, b.Status, event, nil)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(tx, b); err != nil {
				return err
			}
		}
		b.Status = BillStatus(next)
		b.UpdatedAt = s.now().UTC()
		res.Changed = true
		return tx.UpdateBill(ctx, b)
	})
	if err != nil {
		return nil, storeError(err)
	}

	if res.Changed {
		s.log.InfoContext(ctx, "bill status changed",
			logger.BillID(id),
			logger.Transition(string(from), string(target)),
		)
		s.record(ctx, a, "bill."+event, "bill", id,
			audit.WithMetadata("from", from), audit.WithMetadata("to", target))
	}
	res.Bill = s.presentBill(res.Bill)
	return res, nil
}

// DeleteBill removes a bill of any status with its items and unconfirmed
// payments. Bills settled by a confirmed payment are kept.
func (s *service) DeleteBill(ctx context.Context, a Actor, id uuid.UUID) error {
	if err := s.authorizeOwned(a, PermBillsDelete); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := s.ownedBill(ctx, tx, a, id, true); err != nil {
			return err
		}
		confirmed, err := tx.CountPayments(ctx, id, PaymentConfirmed)
		if err != nil {
			return err
		}
		if confirmed > 0 {
			return conflictError("bill", id, "bill has a confirmed payment")
		}
		return tx.DeleteBill(ctx, id)
	})
	if err != nil {
		return storeError(err)
	}

	s.log.InfoContext(ctx, "bill deleted", logger.BillID(id))
	s.record(ctx, a, "bill.deleted", "bill", id)
	return nil
}

func (s *service) ownedBill(ctx context.Context, tx Tx, a Actor, id uuid.UUID, forUpdate bool) (*Bill, error) {
	b, err := tx.GetBill(ctx, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if err := owned(a, b.OwnerID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) presentBill(b *Bill) *Bill {
	out := *b
	out.Status = b.EffectiveStatus(s.today())
	return &out
}
