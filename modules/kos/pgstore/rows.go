package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/koskit/modules/kos"
)

// Plans

func (t *tx) ListPlans(ctx context.Context, activeOnly bool) ([]kos.Plan, error) {
	rows, err := t.q.Query(ctx, `SELECT `+planColumns+` FROM subscription_plans
		WHERE NOT $1::boolean OR is_active
		ORDER BY sort_order, slug`, activeOnly)
	return collect("list plans", rows, err, scanPlan)
}

func (t *tx) GetPlan(ctx context.Context, slug string) (*kos.Plan, error) {
	row := t.q.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE slug = $1`, slug)
	return one("get plan", row, scanPlan)
}

func features(p *kos.Plan) []string {
	if p.Features == nil {
		return []string{}
	}
	return p.Features
}

func (t *tx) InsertPlan(ctx context.Context, p *kos.Plan) error {
	_, err := t.q.Exec(ctx, `INSERT INTO subscription_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.Slug, p.Name, p.Price, p.MaxProperties, p.MaxRooms, features(p), p.IsActive, p.SortOrder,
		p.CreatedAt, p.UpdatedAt)
	return mapError("insert plan", err)
}

func (t *tx) UpdatePlan(ctx context.Context, p *kos.Plan) error {
	tag, err := t.q.Exec(ctx, `UPDATE subscription_plans
		SET name = $2, price = $3, max_properties = $4, max_rooms = $5, features = $6,
			is_active = $7, sort_order = $8, updated_at = $9
		WHERE slug = $1`,
		p.Slug, p.Name, p.Price, p.MaxProperties, p.MaxRooms, features(p), p.IsActive, p.SortOrder, p.UpdatedAt)
	return affected("update plan", tag, err)
}

func (t *tx) DeletePlan(ctx context.Context, slug string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM subscription_plans WHERE slug = $1`, slug)
	return affected("delete plan", tag, err)
}

func (t *tx) CountSubscriptionsByPlan(ctx context.Context, slug string) (int, error) {
	return t.count(ctx, "count subscriptions", `SELECT count(*) FROM subscriptions WHERE plan_slug = $1`, slug)
}

func (t *tx) ApplyPlanLimits(ctx context.Context, slug string, maxProperties, maxRooms int, at time.Time) (int, error) {
	tag, err := t.q.Exec(ctx, `UPDATE subscriptions
		SET max_properties = $2, max_rooms = $3, updated_at = $4
		WHERE plan_slug = $1`, slug, maxProperties, maxRooms, at)
	if err != nil {
		return 0, mapError("apply plan limits", err)
	}
	return int(tag.RowsAffected()), nil
}

func (t *tx) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := t.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(op, err)
	}
	return n, nil
}

// Subscriptions

func (t *tx) GetSubscription(ctx context.Context, ownerID uuid.UUID, forUpdate bool) (*kos.Subscription, error) {
	row := t.q.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE owner_id = $1`+
		lockClause(forUpdate), ownerID)
	return one("get subscription", row, scanSubscription)
}

func (t *tx) InsertSubscriptionIfAbsent(ctx context.Context, s *kos.Subscription) (bool, error) {
	tag, err := t.q.Exec(ctx, `INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id) DO NOTHING`,
		s.OwnerID, s.PlanSlug, s.MaxProperties, s.MaxRooms, s.StartDate, s.EndDate, s.Status,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return false, mapError("insert subscription", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *tx) UpdateSubscription(ctx context.Context, s *kos.Subscription) error {
	tag, err := t.q.Exec(ctx, `UPDATE subscriptions
		SET plan_slug = $2, max_properties = $3, max_rooms = $4, start_date = $5, end_date = $6,
			status = $7, updated_at = $8
		WHERE owner_id = $1`,
		s.OwnerID, s.PlanSlug, s.MaxProperties, s.MaxRooms, s.StartDate, s.EndDate, s.Status, s.UpdatedAt)
	return affected("update subscription", tag, err)
}

// Properties

func (t *tx) InsertProperty(ctx context.Context, p *kos.Property) error {
	_, err := t.q.Exec(ctx, `INSERT INTO properties (`+propertyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OwnerID, p.Name, p.Address, p.Status, p.CreatedAt, p.UpdatedAt)
	return mapError("insert property", err)
}

func (t *tx) GetProperty(ctx context.Context, id uuid.UUID) (*kos.Property, error) {
	row := t.q.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return one("get property", row, scanProperty)
}

func (t *tx) ListProperties(ctx context.Context, ownerID uuid.UUID) ([]kos.Property, error) {
	rows, err := t.q.Query(ctx, `SELECT `+propertyColumns+` FROM properties
		WHERE owner_id = $1
		ORDER BY created_at, name, id`, ownerID)
	return collect("list properties", rows, err, scanProperty)
}

func (t *tx) UpdateProperty(ctx context.Context, p *kos.Property) error {
	tag, err := t.q.Exec(ctx, `UPDATE properties SET name = $2, address = $3, status = $4, updated_at = $5
		WHERE id = $1`, p.ID, p.Name, p.Address, p.Status, p.UpdatedAt)
	return affected("update property", tag, err)
}

// DeleteProperty relies on ON DELETE CASCADE for rooms and everything below them.
func (t *tx) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	return affected("delete property", tag, err)
}

func (t *tx) CountProperties(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return t.count(ctx, "count properties", `SELECT count(*) FROM properties WHERE owner_id = $1`, ownerID)
}

// Rooms

func (t *tx) InsertRoom(ctx context.Context, r *kos.Room) error {
	_, err := t.q.Exec(ctx, `INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.PropertyID, r.OwnerID, r.Name, r.Price, r.Capacity, r.Status, r.CreatedAt, r.UpdatedAt)
	return mapError("insert room", err)
}

func (t *tx) GetRoom(ctx context.Context, id uuid.UUID, forUpdate bool) (*kos.Room, error) {
	row := t.q.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`+lockClause(forUpdate), id)
	return one("get room", row, scanRoom)
}

func (t *tx) ListRooms(ctx context.Context, propertyID uuid.UUID) ([]kos.Room, error) {
	rows, err := t.q.Query(ctx, `SELECT `+roomColumns+` FROM rooms
		WHERE property_id = $1
		ORDER BY name, id`, propertyID)
	return collect("list rooms", rows, err, scanRoom)
}

// LockRooms locks in id order so concurrent callers cannot deadlock on each other.
func (t *tx) LockRooms(ctx context.Context, propertyID uuid.UUID) ([]kos.Room, error) {
	rows, err := t.q.Query(ctx, `SELECT `+roomColumns+` FROM rooms
		WHERE property_id = $1
		ORDER BY id
		FOR UPDATE`, propertyID)
	return collect("lock rooms", rows, err, scanRoom)
}

func (t *tx) UpdateRoom(ctx context.Context, r *kos.Room) error {
	tag, err := t.q.Exec(ctx, `UPDATE rooms SET name = $2, price = $3, capacity = $4, status = $5, updated_at = $6
		WHERE id = $1`, r.ID, r.Name, r.Price, r.Capacity, r.Status, r.UpdatedAt)
	return affected("update room", tag, err)
}

func (t *tx) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	return affected("delete room", tag, err)
}

func (t *tx) CountRooms(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return t.count(ctx, "count rooms", `SELECT count(*) FROM rooms WHERE owner_id = $1`, ownerID)
}

// Tenants

func (t *tx) InsertTenant(ctx context.Context, tn *kos.Tenant) error {
	_, err := t.q.Exec(ctx, `INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tn.ID, tn.RoomID, tn.OwnerID, tn.Name, tn.Phone, tn.Email, tn.IsActive, tn.CheckInDate,
		tn.CheckOutDate, tn.CreatedAt, tn.UpdatedAt)
	return mapError("insert tenant", err)
}

func (t *tx) GetTenant(ctx context.Context, id uuid.UUID, forUpdate bool) (*kos.Tenant, error) {
	row := t.q.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`+lockClause(forUpdate), id)
	return one("get tenant", row, scanTenant)
}

func (t *tx) GetActiveTenant(ctx context.Context, roomID uuid.UUID) (*kos.Tenant, error) {
	row := t.q.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE room_id = $1 AND is_active`, roomID)
	return one("get active tenant", row, scanTenant)
}

func (t *tx) ListTenants(ctx context.Context, roomID uuid.UUID) ([]kos.Tenant, error) {
	rows, err := t.q.Query(ctx, `SELECT `+tenantColumns+` FROM tenants
		WHERE room_id = $1
		ORDER BY check_in_date DESC, created_at DESC, id`, roomID)
	return collect("list tenants", rows, err, scanTenant)
}

// UpdateTenant never overwrites a stored check-out date.
func (t *tx) UpdateTenant(ctx context.Context, tn *kos.Tenant) error {
	tag, err := t.q.Exec(ctx, `UPDATE tenants
		SET name = $2, phone = $3, email = $4, is_active = $5,
			check_out_date = COALESCE(check_out_date, $6), updated_at = $7
		WHERE id = $1`,
		tn.ID, tn.Name, tn.Phone, tn.Email, tn.IsActive, tn.CheckOutDate, tn.UpdatedAt)
	return affected("update tenant", tag, err)
}

// Bills

func (t *tx) InsertBill(ctx context.Context, b *kos.Bill) error {
	_, err := t.q.Exec(ctx, `INSERT INTO bills (`+billColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		b.ID, b.TenantID, b.OwnerID, b.BillNumber, b.BillDate, b.DueDate, b.PeriodStart, b.PeriodEnd,
		b.Subtotal, b.Total, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt)
	return mapError("insert bill", err)
}

func (t *tx) InsertBillItems(ctx context.Context, items []kos.BillItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO bill_items (`+billItemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.BillID, it.Position, it.Description, it.UnitAmount, it.Quantity, it.LineTotal)
	}
	br := t.q.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapError("insert bill items", err)
		}
	}
	return mapError("insert bill items", br.Close())
}

func (t *tx) GetBill(ctx context.Context, id uuid.UUID, forUpdate bool) (*kos.Bill, error) {
	row := t.q.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`+lockClause(forUpdate), id)
	return one("get bill", row, scanBill)
}

func (t *tx) ListBillItems(ctx context.Context, billID uuid.UUID) ([]kos.BillItem, error) {
	rows, err := t.q.Query(ctx, `SELECT `+billItemColumns+` FROM bill_items
		WHERE bill_id = $1
		ORDER BY position`, billID)
	return collect("list bill items", rows, err, scanBillItem)
}

func (t *tx) ListBills(ctx context.Context, tenantID uuid.UUID) ([]kos.Bill, error) {
	rows, err := t.q.Query(ctx, `SELECT `+billColumns+` FROM bills
		WHERE tenant_id = $1
		ORDER BY bill_date DESC, bill_number DESC`, tenantID)
	return collect("list bills", rows, err, scanBill)
}

func (t *tx) UpdateBill(ctx context.Context, b *kos.Bill) error {
	tag, err := t.q.Exec(ctx, `UPDATE bills
		SET bill_date = $2, due_date = $3, period_start = $4, period_end = $5, subtotal = $6, total = $7,
			status = $8, notes = $9, updated_at = $10
		WHERE id = $1`,
		b.ID, b.BillDate, b.DueDate, b.PeriodStart, b.PeriodEnd, b.Subtotal, b.Total, b.Status, b.Notes, b.UpdatedAt)
	return affected("update bill", tag, err)
}

func (t *tx) DeleteBill(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	return affected("delete bill", tag, err)
}

// Payments

func (t *tx) InsertPayment(ctx context.Context, p *kos.Payment) error {
	_, err := t.q.Exec(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.BillID, p.OwnerID, p.PaymentNumber, p.Amount, p.PaymentDate, p.Method, p.ProofImage,
		p.Status, p.ConfirmedAt, p.ConfirmedBy, p.ReviewedAt, p.Notes, p.CreatedAt, p.UpdatedAt)
	return mapError("insert payment", err)
}

func (t *tx) GetPayment(ctx context.Context, id uuid.UUID, forUpdate bool) (*kos.Payment, error) {
	row := t.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`+lockClause(forUpdate), id)
	return one("get payment", row, scanPayment)
}

func (t *tx) ListPayments(ctx context.Context, billID uuid.UUID) ([]kos.Payment, error) {
	rows, err := t.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE bill_id = $1
		ORDER BY created_at, payment_number`, billID)
	return collect("list payments", rows, err, scanPayment)
}

func (t *tx) UpdatePayment(ctx context.Context, p *kos.Payment) error {
	tag, err := t.q.Exec(ctx, `UPDATE payments
		SET amount = $2, payment_date = $3, payment_method = $4, proof_image = $5, status = $6,
			confirmed_at = $7, confirmed_by = $8, reviewed_at = $9, notes = $10, updated_at = $11
		WHERE id = $1`,
		p.ID, p.Amount, p.PaymentDate, p.Method, p.ProofImage, p.Status, p.ConfirmedAt, p.ConfirmedBy,
		p.ReviewedAt, p.Notes, p.UpdatedAt)
	return affected("update payment", tag, err)
}

func (t *tx) CountPayments(ctx context.Context, billID uuid.UUID, status kos.PaymentStatus) (int, error) {
	return t.count(ctx, "count payments",
		`SELECT count(*) FROM payments WHERE bill_id = $1 AND status = $2`, billID, status)
}
