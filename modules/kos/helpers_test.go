package kos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/modules/kos/memstore"
	"github.com/dmitrymomot/koskit/pkg/audit"
)

var start = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc      kos.Service
	store    *memstore.Store
	events   *audit.MemoryStorage
	clock    *clock
	owner    kos.Actor
	operator kos.Actor
}

// newFixture seeds the built-in catalog and returns an owner plus an
// operator acting on that owner's account.
func newFixture(t *testing.T, opts ...kos.ServiceOption) *fixture {
	t.Helper()
	store := memstore.New()
	return newFixtureWithStore(t, store, store, opts...)
}

func newFixtureWithStore(t *testing.T, mem *memstore.Store, store kos.Store, opts ...kos.ServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		store:  mem,
		events: audit.NewMemoryStorage(),
		clock:  &clock{now: start},
	}
	ownerID := uuid.New()
	f.owner = kos.Actor{UserID: ownerID, OwnerID: ownerID, Role: kos.RoleOwner}
	f.operator = kos.Actor{UserID: uuid.New(), OwnerID: ownerID, Role: kos.RoleOperator}

	base := []kos.ServiceOption{
		kos.WithClock(f.clock.Now),
		kos.WithAuditLogger(audit.NewLogger(f.events)),
	}
	svc, err := kos.NewService(context.Background(), store, append(base, opts...)...)
	require.NoError(t, err)
	f.svc = svc

	_, err = svc.SeedPlans(context.Background(), kos.DefaultPlanCatalog())
	require.NoError(t, err)
	return f
}

// anotherOwner returns an actor for a fresh owner sharing the same service.
func anotherOwner() kos.Actor {
	id := uuid.New()
	return kos.Actor{UserID: id, OwnerID: id, Role: kos.RoleOwner}
}

func (f *fixture) upgrade(t *testing.T, a kos.Actor, plan string) {
	t.Helper()
	op := kos.Actor{UserID: uuid.New(), OwnerID: a.OwnerID, Role: kos.RoleOperator}
	_, err := f.svc.ChangeSubscription(context.Background(), op, a.OwnerID, plan, nil)
	require.NoError(t, err)
}

func (f *fixture) property(t *testing.T, a kos.Actor) *kos.Property {
	t.Helper()
	p, err := f.svc.CreateProperty(context.Background(), a, kos.PropertyInput{Name: "Kos Melati", Address: "Jl. Kaliurang 12"})
	require.NoError(t, err)
	return p
}

func (f *fixture) room(t *testing.T, a kos.Actor, propertyID uuid.UUID, name string) *kos.Room {
	t.Helper()
	r, err := f.svc.CreateRoom(context.Background(), a, propertyID, kos.RoomInput{Name: name, Price: 500000, Capacity: 1})
	require.NoError(t, err)
	return r
}

func (f *fixture) checkIn(t *testing.T, a kos.Actor, roomID uuid.UUID, name string) *kos.Tenant {
	t.Helper()
	tn, err := f.svc.CheckIn(context.Background(), a, roomID, kos.TenantInput{Name: name, Phone: "081234567890"})
	require.NoError(t, err)
	return tn
}

// occupied returns an owner's active tenant in a fresh room.
func (f *fixture) occupied(t *testing.T) (*kos.Room, *kos.Tenant) {
	t.Helper()
	p := f.property(t, f.owner)
	r := f.room(t, f.owner, p.ID, "A1")
	return r, f.checkIn(t, f.owner, r.ID, "Budi")
}

func monthlyBill(amount int64) kos.BillInput {
	return kos.BillInput{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Items: []kos.BillItemInput{
			{Description: "Sewa kamar Maret", UnitAmount: amount, Quantity: 1},
		},
	}
}

func (f *fixture) bill(t *testing.T, tenantID uuid.UUID, amount int64) *kos.Bill {
	t.Helper()
	b, err := f.svc.CreateBill(context.Background(), f.owner, tenantID, monthlyBill(amount))
	require.NoError(t, err)
	return b
}

func (f *fixture) submit(t *testing.T, billID uuid.UUID, amount int64) *kos.Payment {
	t.Helper()
	p, err := f.svc.SubmitPayment(context.Background(), f.owner, billID, kos.PaymentInput{Amount: amount, Method: kos.MethodTransfer})
	require.NoError(t, err)
	return p
}

// storedBill reads the bill row as persisted, without status derivation.
func (f *fixture) storedBill(t *testing.T, id uuid.UUID) *kos.Bill {
	t.Helper()
	var b *kos.Bill
	require.NoError(t, f.store.View(context.Background(), func(tx kos.Tx) error {
		var err error
		b, err = tx.GetBill(context.Background(), id, false)
		return err
	}))
	return b
}
