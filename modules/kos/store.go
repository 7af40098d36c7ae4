package kos

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store opens transactions over the persisted kos state.
//
// WithTx commits when fn returns nil and rolls back every write otherwise.
// Implementations may re-run fn after a serialization failure, so fn must
// not keep state between runs. View runs fn without write access.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of row operations available inside a transaction.
//
// Getters return ErrNotFound for missing rows. forUpdate asks the store to
// hold a row lock until the transaction ends. Unique violations are reported
// as *DuplicateKeyError with one of the Key* constants.
type Tx interface {
	PlanStore
	SubscriptionStore
	PropertyStore
	RoomStore
	TenantStore
	BillStore
	PaymentStore
}

type PlanStore interface {
	// ListPlans returns plans ordered by sort order, then slug.
	ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error)
	GetPlan(ctx context.Context, slug string) (*Plan, error)
	InsertPlan(ctx context.Context, p *Plan) error
	UpdatePlan(ctx context.Context, p *Plan) error
	DeletePlan(ctx context.Context, slug string) error
	CountSubscriptionsByPlan(ctx context.Context, slug string) (int, error)
	// ApplyPlanLimits copies limits onto every subscription of slug and
	// returns the number of rows changed.
	ApplyPlanLimits(ctx context.Context, slug string, maxProperties, maxRooms int, at time.Time) (int, error)
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, ownerID uuid.UUID, forUpdate bool) (*Subscription, error)
	// InsertSubscriptionIfAbsent inserts s unless the owner already has a
	// subscription; created reports which case happened.
	InsertSubscriptionIfAbsent(ctx context.Context, s *Subscription) (created bool, err error)
	UpdateSubscription(ctx context.Context, s *Subscription) error
}

type PropertyStore interface {
	InsertProperty(ctx context.Context, p *Property) error
	GetProperty(ctx context.Context, id uuid.UUID) (*Property, error)
	ListProperties(ctx context.Context, ownerID uuid.UUID) ([]Property, error)
	UpdateProperty(ctx context.Context, p *Property) error
	// DeleteProperty removes the property with its rooms, tenants, bills,
	// bill items and payments.
	DeleteProperty(ctx context.Context, id uuid.UUID) error
	CountProperties(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type RoomStore interface {
	InsertRoom(ctx context.Context, r *Room) error
	GetRoom(ctx context.Context, id uuid.UUID, forUpdate bool) (*Room, error)
	ListRooms(ctx context.Context, propertyID uuid.UUID) ([]Room, error)
	// LockRooms returns every room of the property with row locks held.
	LockRooms(ctx context.Context, propertyID uuid.UUID) ([]Room, error)
	UpdateRoom(ctx context.Context, r *Room) error
	// DeleteRoom removes the room with its tenants, bills, bill items and payments.
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	CountRooms(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type TenantStore interface {
	InsertTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID, forUpdate bool) (*Tenant, error)
	// GetActiveTenant returns the room's active tenant or ErrNotFound.
	GetActiveTenant(ctx context.Context, roomID uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context, roomID uuid.UUID) ([]Tenant, error)
	UpdateTenant(ctx context.Context, t *Tenant) error
}

type BillStore interface {
	InsertBill(ctx context.Context, b *Bill) error
	InsertBillItems(ctx context.Context, items []BillItem) error
	// GetBill returns the bill header; items are loaded with ListBillItems.
	GetBill(ctx context.Context, id uuid.UUID, forUpdate bool) (*Bill, error)
	ListBillItems(ctx context.Context, billID uuid.UUID) ([]BillItem, error)
	ListBills(ctx context.Context, tenantID uuid.UUID) ([]Bill, error)
	UpdateBill(ctx context.Context, b *Bill) error
	// DeleteBill removes the bill with its items and payments.
	DeleteBill(ctx context.Context, id uuid.UUID) error
}

type PaymentStore interface {
	InsertPayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id uuid.UUID, forUpdate bool) (*Payment, error)
	ListPayments(ctx context.Context, billID uuid.UUID) ([]Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	CountPayments(ctx context.Context, billID uuid.UUID, status PaymentStatus) (int, error)
}
