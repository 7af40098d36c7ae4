package pgstore

import (
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/koskit/modules/kos"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func collect[T any](op string, rows pgx.Rows, err error, scan func(rowScanner) (T, error)) ([]T, error) {
	if err != nil {
		return nil, mapError(op, err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (T, error) { return scan(r) })
	if err != nil {
		return nil, mapError(op, err)
	}
	return out, nil
}

func one[T any](op string, row pgx.Row, scan func(rowScanner) (T, error)) (*T, error) {
	v, err := scan(row)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &v, nil
}

const planColumns = `slug, name, price, max_properties, max_rooms, features, is_active, sort_order, created_at, updated_at`

func scanPlan(r rowScanner) (kos.Plan, error) {
	var p kos.Plan
	err := r.Scan(&p.Slug, &p.Name, &p.Price, &p.MaxProperties, &p.MaxRooms, &p.Features,
		&p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const subscriptionColumns = `owner_id, plan_slug, max_properties, max_rooms, start_date, end_date, status, created_at, updated_at`

func scanSubscription(r rowScanner) (kos.Subscription, error) {
	var s kos.Subscription
	err := r.Scan(&s.OwnerID, &s.PlanSlug, &s.MaxProperties, &s.MaxRooms, &s.StartDate, &s.EndDate,
		&s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const propertyColumns = `id, owner_id, name, address, status, created_at, updated_at`

func scanProperty(r rowScanner) (kos.Property, error) {
	var p kos.Property
	err := r.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const roomColumns = `id, property_id, owner_id, name, price, capacity, status, created_at, updated_at`

func scanRoom(r rowScanner) (kos.Room, error) {
	var rm kos.Room
	err := r.Scan(&rm.ID, &rm.PropertyID, &rm.OwnerID, &rm.Name, &rm.Price, &rm.Capacity, &rm.Status,
		&rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}

const tenantColumns = `id, room_id, owner_id, name, phone, email, is_active, check_in_date, check_out_date, created_at, updated_at`

func scanTenant(r rowScanner) (kos.Tenant, error) {
	var t kos.Tenant
	err := r.Scan(&t.ID, &t.RoomID, &t.OwnerID, &t.Name, &t.Phone, &t.Email, &t.IsActive,
		&t.CheckInDate, &t.CheckOutDate, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const billColumns = `id, tenant_id, owner_id, bill_number, bill_date, due_date, period_start, period_end,
	subtotal, total, status, notes, created_at, updated_at`

func scanBill(r rowScanner) (kos.Bill, error) {
	var b kos.Bill
	err := r.Scan(&b.ID, &b.TenantID, &b.OwnerID, &b.BillNumber, &b.BillDate, &b.DueDate,
		&b.PeriodStart, &b.PeriodEnd, &b.Subtotal, &b.Total, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const billItemColumns = `id, bill_id, position, description, unit_amount, quantity, line_total`

func scanBillItem(r rowScanner) (kos.BillItem, error) {
	var it kos.BillItem
	err := r.Scan(&it.ID, &it.BillID, &it.Position, &it.Description, &it.UnitAmount, &it.Quantity, &it.LineTotal)
	return it, err
}

const paymentColumns = `id, bill_id, owner_id, payment_number, amount, payment_date, payment_method, proof_image,
	status, confirmed_at, confirmed_by, reviewed_at, notes, created_at, updated_at`

func scanPayment(r rowScanner) (kos.Payment, error) {
	var p kos.Payment
	err := r.Scan(&p.ID, &p.BillID, &p.OwnerID, &p.PaymentNumber, &p.Amount, &p.PaymentDate, &p.Method,
		&p.ProofImage, &p.Status, &p.ConfirmedAt, &p.ConfirmedBy, &p.ReviewedAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
