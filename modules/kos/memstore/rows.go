package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/modules/kos"
)

func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyPlan(p kos.Plan) *kos.Plan {
	p.Features = slices.Clone(p.Features)
	return &p
}

func copySubscription(s kos.Subscription) *kos.Subscription {
	s.EndDate = ptr(s.EndDate)
	return &s
}

func copyTenant(t kos.Tenant) *kos.Tenant {
	t.CheckOutDate = ptr(t.CheckOutDate)
	return &t
}

func copyBill(b kos.Bill) *kos.Bill {
	b.Items = nil
	return &b
}

func copyPayment(p kos.Payment) *kos.Payment {
	p.ConfirmedAt = ptr(p.ConfirmedAt)
	p.ConfirmedBy = ptr(p.ConfirmedBy)
	p.ReviewedAt = ptr(p.ReviewedAt)
	return &p
}

// Plans

func (t *tx) ListPlans(_ context.Context, activeOnly bool) ([]kos.Plan, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	out := make([]kos.Plan, 0, len(t.st.plans))
	for _, p := range t.st.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *copyPlan(p))
	}
	slices.SortFunc(out, func(a, b kos.Plan) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.Slug, b.Slug))
	})
	return out, nil
}

func (t *tx) GetPlan(_ context.Context, slug string) (*kos.Plan, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	p, ok := t.st.plans[slug]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return copyPlan(p), nil
}

func (t *tx) InsertPlan(_ context.Context, p *kos.Plan) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.plans[p.Slug]; ok {
		return &kos.DuplicateKeyError{Key: kos.KeyPlanSlug}
	}
	t.st.plans[p.Slug] = *copyPlan(*p)
	return nil
}

func (t *tx) UpdatePlan(_ context.Context, p *kos.Plan) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.plans[p.Slug]; !ok {
		return kos.ErrNotFound
	}
	t.st.plans[p.Slug] = *copyPlan(*p)
	return nil
}

func (t *tx) DeletePlan(_ context.Context, slug string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.plans[slug]; !ok {
		return kos.ErrNotFound
	}
	delete(t.st.plans, slug)
	return nil
}

func (t *tx) CountSubscriptionsByPlan(_ context.Context, slug string) (int, error) {
	if err := t.readable(); err != nil {
		return 0, err
	}
	n := 0
	for _, s := range t.st.subscriptions {
		if s.PlanSlug == slug {
			n++
		}
	}
	return n, nil
}

func (t *tx) ApplyPlanLimits(_ context.Context, slug string, maxProperties, maxRooms int, at time.Time) (int, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	n := 0
	for id, s := range t.st.subscriptions {
		if s.PlanSlug != slug {
			continue
		}
		s.MaxProperties = maxProperties
		s.MaxRooms = maxRooms
		s.UpdatedAt = at
		t.st.subscriptions[id] = s
		n++
	}
	return n, nil
}

// Subscriptions

func (t *tx) GetSubscription(_ context.Context, ownerID uuid.UUID, _ bool) (*kos.Subscription, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	s, ok := t.st.subscriptions[ownerID]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return copySubscription(s), nil
}

func (t *tx) InsertSubscriptionIfAbsent(_ context.Context, s *kos.Subscription) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	if _, ok := t.st.subscriptions[s.OwnerID]; ok {
		return false, nil
	}
	t.st.subscriptions[s.OwnerID] = *copySubscription(*s)
	return true, nil
}

func (t *tx) UpdateSubscription(_ context.Context, s *kos.Subscription) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.subscriptions[s.OwnerID]; !ok {
		return kos.ErrNotFound
	}
	t.st.subscriptions[s.OwnerID] = *copySubscription(*s)
	return nil
}

// Properties

func (t *tx) InsertProperty(_ context.Context, p *kos.Property) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.st.properties[p.ID] = *p
	return nil
}

func (t *tx) GetProperty(_ context.Context, id uuid.UUID) (*kos.Property, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	p, ok := t.st.properties[id]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return &p, nil
}

func (t *tx) ListProperties(_ context.Context, ownerID uuid.UUID) ([]kos.Property, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	return sorted(t.st.properties,
		func(p kos.Property) bool { return p.OwnerID == ownerID },
		func(a, b kos.Property) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
		}), nil
}

func (t *tx) UpdateProperty(_ context.Context, p *kos.Property) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.properties[p.ID]; !ok {
		return kos.ErrNotFound
	}
	t.st.properties[p.ID] = *p
	return nil
}

func (t *tx) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.properties[id]; !ok {
		return kos.ErrNotFound
	}
	for roomID, r := range t.st.rooms {
		if r.PropertyID == id {
			if err := t.DeleteRoom(ctx, roomID); err != nil {
				return err
			}
		}
	}
	delete(t.st.properties, id)
	return nil
}

func (t *tx) CountProperties(_ context.Context, ownerID uuid.UUID) (int, error) {
	if err := t.readable(); err != nil {
		return 0, err
	}
	n := 0
	for _, p := range t.st.properties {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Rooms

func (t *tx) InsertRoom(_ context.Context, r *kos.Room) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.properties[r.PropertyID]; !ok {
		return ErrMissingParent
	}
	t.st.rooms[r.ID] = *r
	return nil
}

func (t *tx) GetRoom(_ context.Context, id uuid.UUID, _ bool) (*kos.Room, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	r, ok := t.st.rooms[id]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return &r, nil
}

func (t *tx) ListRooms(_ context.Context, propertyID uuid.UUID) ([]kos.Room, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	return sorted(t.st.rooms,
		func(r kos.Room) bool { return r.PropertyID == propertyID },
		func(a, b kos.Room) int {
			return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
		}), nil
}

func (t *tx) LockRooms(ctx context.Context, propertyID uuid.UUID) ([]kos.Room, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	return t.ListRooms(ctx, propertyID)
}

func (t *tx) UpdateRoom(_ context.Context, r *kos.Room) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.rooms[r.ID]; !ok {
		return kos.ErrNotFound
	}
	t.st.rooms[r.ID] = *r
	return nil
}

func (t *tx) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.rooms[id]; !ok {
		return kos.ErrNotFound
	}
	for tenantID, tn := range t.st.tenants {
		if tn.RoomID != id {
			continue
		}
		for billID, b := range t.st.bills {
			if b.TenantID == tenantID {
				if err := t.DeleteBill(ctx, billID); err != nil {
					return err
				}
			}
		}
		delete(t.st.tenants, tenantID)
	}
	delete(t.st.rooms, id)
	return nil
}

func (t *tx) CountRooms(_ context.Context, ownerID uuid.UUID) (int, error) {
	if err := t.readable(); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range t.st.rooms {
		if r.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Tenants

func (t *tx) activeTenantOf(roomID, except uuid.UUID) (kos.Tenant, bool) {
	for _, tn := range t.st.tenants {
		if tn.RoomID == roomID && tn.IsActive && tn.ID != except {
			return tn, true
		}
	}
	return kos.Tenant{}, false
}

func (t *tx) InsertTenant(_ context.Context, tn *kos.Tenant) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.rooms[tn.RoomID]; !ok {
		return ErrMissingParent
	}
	if _, taken := t.activeTenantOf(tn.RoomID, tn.ID); tn.IsActive && taken {
		return &kos.DuplicateKeyError{Key: kos.KeyActiveTenant}
	}
	t.st.tenants[tn.ID] = *copyTenant(*tn)
	return nil
}

func (t *tx) GetTenant(_ context.Context, id uuid.UUID, _ bool) (*kos.Tenant, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	tn, ok := t.st.tenants[id]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return copyTenant(tn), nil
}

func (t *tx) GetActiveTenant(_ context.Context, roomID uuid.UUID) (*kos.Tenant, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	tn, ok := t.activeTenantOf(roomID, uuid.Nil)
	if !ok {
		return nil, kos.ErrNotFound
	}
	return copyTenant(tn), nil
}

func (t *tx) ListTenants(_ context.Context, roomID uuid.UUID) ([]kos.Tenant, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	list := sorted(t.st.tenants,
		func(tn kos.Tenant) bool { return tn.RoomID == roomID },
		func(a, b kos.Tenant) int {
			return cmp.Or(b.CheckInDate.Compare(a.CheckInDate), b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
		})
	for i := range list {
		list[i] = *copyTenant(list[i])
	}
	return list, nil
}

// UpdateTenant never overwrites a check-out date once one is stored.
func (t *tx) UpdateTenant(_ context.Context, tn *kos.Tenant) error {
	if err := t.writable(); err != nil {
		return err
	}
	current, ok := t.st.tenants[tn.ID]
	if !ok {
		return kos.ErrNotFound
	}
	if _, taken := t.activeTenantOf(tn.RoomID, tn.ID); tn.IsActive && taken {
		return &kos.DuplicateKeyError{Key: kos.KeyActiveTenant}
	}
	next := *copyTenant(*tn)
	if current.CheckOutDate != nil {
		next.CheckOutDate = ptr(current.CheckOutDate)
	}
	t.st.tenants[tn.ID] = next
	return nil
}

// Bills

func (t *tx) InsertBill(_ context.Context, b *kos.Bill) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.tenants[b.TenantID]; !ok {
		return ErrMissingParent
	}
	for _, other := range t.st.bills {
		if other.BillNumber == b.BillNumber {
			return &kos.DuplicateKeyError{Key: kos.KeyBillNumber}
		}
	}
	t.st.bills[b.ID] = *copyBill(*b)
	return nil
}

func (t *tx) InsertBillItems(_ context.Context, items []kos.BillItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, it := range items {
		if _, ok := t.st.bills[it.BillID]; !ok {
			return ErrMissingParent
		}
	}
	for _, it := range items {
		t.st.items[it.BillID] = append(slices.Clone(t.st.items[it.BillID]), it)
	}
	return nil
}

func (t *tx) GetBill(_ context.Context, id uuid.UUID, _ bool) (*kos.Bill, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	b, ok := t.st.bills[id]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return copyBill(b), nil
}

func (t *tx) ListBillItems(_ context.Context, billID uuid.UUID) ([]kos.BillItem, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	items := slices.Clone(t.st.items[billID])
	slices.SortFunc(items, func(a, b kos.BillItem) int { return cmp.Compare(a.Position, b.Position) })
	return items, nil
}

func (t *tx) ListBills(_ context.Context, tenantID uuid.UUID) ([]kos.Bill, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	return sorted(t.st.bills,
		func(b kos.Bill) bool { return b.TenantID == tenantID },
		func(a, b kos.Bill) int {
			return cmp.Or(b.BillDate.Compare(a.BillDate), cmp.Compare(b.BillNumber, a.BillNumber))
		}), nil
}

func (t *tx) UpdateBill(_ context.Context, b *kos.Bill) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.bills[b.ID]; !ok {
		return kos.ErrNotFound
	}
	t.st.bills[b.ID] = *copyBill(*b)
	return nil
}

func (t *tx) DeleteBill(_ context.Context, id uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.bills[id]; !ok {
		return kos.ErrNotFound
	}
	for paymentID, p := range t.st.payments {
		if p.BillID == id {
			delete(t.st.payments, paymentID)
		}
	}
	delete(t.st.items, id)
	delete(t.st.bills, id)
	return nil
}

// Payments

func (t *tx) InsertPayment(_ context.Context, p *kos.Payment) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.bills[p.BillID]; !ok {
		return ErrMissingParent
	}
	for _, other := range t.st.payments {
		if other.PaymentNumber == p.PaymentNumber {
			return &kos.DuplicateKeyError{Key: kos.KeyPaymentNumber}
		}
	}
	if p.Status == kos.PaymentConfirmed && t.confirmedOn(p.BillID, p.ID) {
		return &kos.DuplicateKeyError{Key: kos.KeyConfirmedPayment}
	}
	t.st.payments[p.ID] = *copyPayment(*p)
	return nil
}

func (t *tx) confirmedOn(billID, except uuid.UUID) bool {
	for _, other := range t.st.payments {
		if other.BillID == billID && other.Status == kos.PaymentConfirmed && other.ID != except {
			return true
		}
	}
	return false
}

func (t *tx) GetPayment(_ context.Context, id uuid.UUID, _ bool) (*kos.Payment, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	p, ok := t.st.payments[id]
	if !ok {
		return nil, kos.ErrNotFound
	}
	return copyPayment(p), nil
}

func (t *tx) ListPayments(_ context.Context, billID uuid.UUID) ([]kos.Payment, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	list := sorted(t.st.payments,
		func(p kos.Payment) bool { return p.BillID == billID },
		func(a, b kos.Payment) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.PaymentNumber, b.PaymentNumber))
		})
	for i := range list {
		list[i] = *copyPayment(list[i])
	}
	return list, nil
}

func (t *tx) UpdatePayment(_ context.Context, p *kos.Payment) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.payments[p.ID]; !ok {
		return kos.ErrNotFound
	}
	if p.Status == kos.PaymentConfirmed && t.confirmedOn(p.BillID, p.ID) {
		return &kos.DuplicateKeyError{Key: kos.KeyConfirmedPayment}
	}
	t.st.payments[p.ID] = *copyPayment(*p)
	return nil
}

func (t *tx) CountPayments(_ context.Context, billID uuid.UUID, status kos.PaymentStatus) (int, error) {
	if err := t.readable(); err != nil {
		return 0, err
	}
	n := 0
	for _, p := range t.st.payments {
		if p.BillID == billID && p.Status == status {
			n++
		}
	}
	return n, nil
}
