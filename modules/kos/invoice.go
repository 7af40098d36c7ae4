package kos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Invoice is the read-only projection handed to the external PDF renderer.
type Invoice struct {
	Bill     *Bill         `json:"bill"`
	Tenant   *Tenant       `json:"tenant"`
	Room     *Room         `json:"room"`
	Property *Property     `json:"property"`
	Lines    []InvoiceLine `json:"lines"`
	Subtotal string        `json:"subtotal"`
	Total    string        `json:"total"`
	IssuedAt time.Time     `json:"issued_at"`
}

type InvoiceLine struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitAmount  string `json:"unit_amount"`
	LineTotal   string `json:"line_total"`
}

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount as Indonesian rupiah, e.g. "Rp 500.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return rupiahPrinter.Sprintf("-Rp %d", -amount)
	}
	return rupiahPrinter.Sprintf("Rp %d", amount)
}

func (s *service) Invoice(ctx context.Context, a Actor, id uuid.UUID) (*Invoice, error) {
	if err := s.authorizeOwned(a, PermBillsRead); err != nil {
		return nil, err
	}

	inv := &Invoice{}
	err := s.store.View(ctx, func(tx Tx) error {
		bill, err := s.ownedBill(ctx, tx, a, id, false)
		if err != nil {
			return err
		}
		if bill.Items, err = tx.ListBillItems(ctx, id); err != nil {
			return err
		}
		if inv.Tenant, err = tx.GetTenant(ctx, bill.TenantID, false); err != nil {
			return err
		}
		if inv.Room, err = tx.GetRoom(ctx, inv.Tenant.RoomID, false); err != nil {
			return err
		}
		if inv.Property, err = tx.GetProperty(ctx, inv.Room.PropertyID); err != nil {
			return err
		}
		inv.Bill = bill
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	inv.Bill = s.presentBill(inv.Bill)
	inv.Lines = make([]InvoiceLine, 0, len(inv.Bill.Items))
	for _, it := range inv.Bill.Items {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Position:    it.Position,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitAmount:  FormatRupiah(it.UnitAmount),
			LineTotal:   FormatRupiah(it.LineTotal),
		})
	}
	inv.Subtotal = FormatRupiah(inv.Bill.Subtotal)
	inv.Total = FormatRupiah(inv.Bill.Total)
	inv.IssuedAt = s.now().UTC()
	return inv, nil
}
