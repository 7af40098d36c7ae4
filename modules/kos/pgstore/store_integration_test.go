//go:build integration

package pgstore_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/modules/kos/pgstore"
	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/pg"
	"github.com/dmitrymomot/koskit/pkg/sequence"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("kos_test"),
		postgres.WithUsername("kos"),
		postgres.WithPassword("kos_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping pgstore integration tests: %v\n", err)
		return 0
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	pool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer pool.Close()

	cfg := pg.Config{ConnectionString: connStr, MigrationsTable: "schema_migrations"}
	if err := pgstore.Migrate(ctx, pool, cfg, logger.Discard()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return m.Run()
}

// newService returns a service over the shared database and a fresh owner.
// Owners never see each other's rows, so tests can share one schema.
func newService(t *testing.T, events audit.Storage) (kos.Service, kos.Actor) {
	t.Helper()
	opts := []kos.ServiceOption{kos.WithNumberGenerator(sequence.NewRandomGenerator())}
	if events != nil {
		opts = append(opts, kos.WithAuditLogger(audit.NewLogger(events)))
	}
	svc, err := kos.NewService(context.Background(), pgstore.New(pool), opts...)
	require.NoError(t, err)
	_, err = svc.SeedPlans(context.Background(), kos.DefaultPlanCatalog())
	require.NoError(t, err)

	id := uuid.New()
	return svc, kos.Actor{UserID: id, OwnerID: id, Role: kos.RoleOwner}
}

func operatorFor(a kos.Actor) kos.Actor {
	return kos.Actor{UserID: uuid.New(), OwnerID: a.OwnerID, Role: kos.RoleOperator}
}

func monthlyBill(amount int64) kos.BillInput {
	return kos.BillInput{
		PeriodStart: time.Now().UTC().AddDate(0, 0, -10),
		PeriodEnd:   time.Now().UTC().AddDate(0, 0, 20),
		DueDate:     time.Now().UTC().AddDate(0, 0, 5),
		Items:       []kos.BillItemInput{{Description: "Sewa kamar", UnitAmount: amount, Quantity: 1}},
	}
}

func TestStore_BillingFlow(t *testing.T) {
	ctx := context.Background()
	svc, owner := newService(t, nil)
	op := operatorFor(owner)

	p, err := svc.CreateProperty(ctx, owner, kos.PropertyInput{Name: "Kos Melati"})
	require.NoError(t, err)
	r, err := svc.CreateRoom(ctx, owner, p.ID, kos.RoomInput{Name: "A1", Price: 500000, Capacity: 1})
	require.NoError(t, err)
	tn, err := svc.CheckIn(ctx, owner, r.ID, kos.TenantInput{Name: "Budi", Phone: "081234567890"})
	require.NoError(t, err)

	b, err := svc.CreateBill(ctx, owner, tn.ID, kos.BillInput{
		PeriodStart: monthlyBill(0).PeriodStart,
		PeriodEnd:   monthlyBill(0).PeriodEnd,
		DueDate:     monthlyBill(0).DueDate,
		Items: []kos.BillItemInput{
			{Description: "Sewa kamar", UnitAmount: 500000, Quantity: 1},
			{Description: "Listrik", UnitAmount: 25000, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(550000), b.Total)

	got, err := svc.GetBill(ctx, owner, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Listrik", got.Items[1].Description)
	assert.Equal(t, int64(50000), got.Items[1].LineTotal)

	pay, err := svc.SubmitPayment(ctx, owner, b.ID, kos.PaymentInput{Amount: 550000, Method: kos.MethodTransfer})
	require.NoError(t, err)
	assert.Equal(t, kos.PaymentPending, pay.Status)

	res, err := svc.ConfirmPayment(ctx, op, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, kos.PaymentConfirmed, res.Payment.Status)
	require.NotNil(t, res.Payment.ConfirmedBy)
	assert.Equal(t, op.UserID, *res.Payment.ConfirmedBy)
	assert.Equal(t, kos.BillPaid, res.Bill.Status)

	out, err := svc.CheckOut(ctx, owner, tn.ID)
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	require.NotNil(t, out.CheckOutDate)

	room, err := svc.GetRoom(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, kos.RoomAvailable, room.Status)
}

func TestStore_QuotaUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, owner := newService(t, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateProperty(ctx, owner, kos.PropertyInput{Name: fmt.Sprintf("Kos %d", i)})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, kos.ErrQuotaExceeded)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	list, err := svc.ListProperties(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_SingleActiveTenant(t *testing.T) {
	ctx := context.Background()
	svc, owner := newService(t, nil)

	p, err := svc.CreateProperty(ctx, owner, kos.PropertyInput{Name: "Kos Mawar"})
	require.NoError(t, err)
	r, err := svc.CreateRoom(ctx, owner, p.ID, kos.RoomInput{Name: "B2", Price: 400000, Capacity: 2})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		ok int
		mu sync.Mutex
	)
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(ctx, owner, r.ID, kos.TenantInput{Name: fmt.Sprintf("Tenant %d", i), Phone: "0811"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, kos.ErrInvalidStateTransition)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)

	tenants, err := svc.ListTenants(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
}

func TestStore_ConcurrentConfirmations(t *testing.T) {
	ctx := context.Background()
	svc, owner := newService(t, nil)
	op := operatorFor(owner)

	p, err := svc.CreateProperty(ctx, owner, kos.PropertyInput{Name: "Kos Kenanga"})
	require.NoError(t, err)
	r, err := svc.CreateRoom(ctx, owner, p.ID, kos.RoomInput{Name: "C3", Price: 600000, Capacity: 1})
	require.NoError(t, err)
	tn, err := svc.CheckIn(ctx, owner, r.ID, kos.TenantInput{Name: "Sari", Phone: "0812"})
	require.NoError(t, err)
	b, err := svc.CreateBill(ctx, owner, tn.ID, monthlyBill(600000))
	require.NoError(t, err)

	payments := make([]*kos.Payment, 3)
	for i := range payments {
		payments[i], err = svc.SubmitPayment(ctx, owner, b.ID, kos.PaymentInput{Amount: 600000, Method: kos.MethodCash})
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
	)
	for _, pay := range payments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmPayment(ctx, op, pay.ID)
			if err == nil {
				mu.Lock()
				confirmed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, kos.ErrReferentialConflict)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, confirmed)

	got, err := svc.GetBill(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, kos.BillPaid, got.Status)
}

func TestStore_DeletePropertyCascades(t *testing.T) {
	ctx := context.Background()
	svc, owner := newService(t, nil)

	p, err := svc.CreateProperty(ctx, owner, kos.PropertyInput{Name: "Kos Anggrek"})
	require.NoError(t, err)
	r, err := svc.CreateRoom(ctx, owner, p.ID, kos.RoomInput{Name: "D4", Price: 450000, Capacity: 1})
	require.NoError(t, err)
	tn, err := svc.CheckIn(ctx, owner, r.ID, kos.TenantInput{Name: "Andi", Phone: "0813"})
	require.NoError(t, err)
	b, err := svc.CreateBill(ctx, owner, tn.ID, monthlyBill(450000))
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, owner, tn.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProperty(ctx, owner, p.ID))

	_, err = svc.GetRoom(ctx, owner, r.ID)
	assert.ErrorIs(t, err, kos.ErrNotFound)
	_, err = svc.GetBill(ctx, owner, b.ID)
	assert.ErrorIs(t, err, kos.ErrNotFound)

	usage, err := svc.Usage(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, usage.Properties.Current)
	assert.Zero(t, usage.Rooms.Current)
}

func TestStore_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	store := pgstore.New(pool)
	ownerID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("subscription insert is idempotent", func(t *testing.T) {
		sub := &kos.Subscription{
			OwnerID: ownerID, PlanSlug: "free", MaxProperties: 1, MaxRooms: 5,
			StartDate: now, Status: kos.SubscriptionActive, CreatedAt: now, UpdatedAt: now,
		}
		var first, second bool
		require.NoError(t, store.WithTx(ctx, func(tx kos.Tx) error {
			var err error
			first, err = tx.InsertSubscriptionIfAbsent(ctx, sub)
			return err
		}))
		require.NoError(t, store.WithTx(ctx, func(tx kos.Tx) error {
			var err error
			second, err = tx.InsertSubscriptionIfAbsent(ctx, sub)
			return err
		}))
		assert.True(t, first)
		assert.False(t, second)
	})

	t.Run("duplicate plan slug", func(t *testing.T) {
		err := store.WithTx(ctx, func(tx kos.Tx) error {
			return tx.InsertPlan(ctx, &kos.Plan{Slug: "free", Name: "Again", CreatedAt: now, UpdatedAt: now})
		})
		assert.True(t, kos.IsDuplicateKey(err, kos.KeyPlanSlug))
	})

	t.Run("missing rows", func(t *testing.T) {
		err := store.View(ctx, func(tx kos.Tx) error {
			_, err := tx.GetBill(ctx, uuid.New(), false)
			return err
		})
		assert.ErrorIs(t, err, kos.ErrNotFound)

		err = store.WithTx(ctx, func(tx kos.Tx) error {
			return tx.UpdateRoom(ctx, &kos.Room{ID: uuid.New(), Status: kos.RoomAvailable, Capacity: 1})
		})
		assert.ErrorIs(t, err, kos.ErrNotFound)
	})

	t.Run("rollback on error", func(t *testing.T) {
		id := uuid.New()
		err := store.WithTx(ctx, func(tx kos.Tx) error {
			if err := tx.InsertProperty(ctx, &kos.Property{
				ID: id, OwnerID: ownerID, Name: "Ghost", Status: kos.PropertyDraft, CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				return err
			}
			return kos.ErrValidation
		})
		require.ErrorIs(t, err, kos.ErrValidation)

		err = store.View(ctx, func(tx kos.Tx) error {
			_, err := tx.GetProperty(ctx, id)
			return err
		})
		assert.ErrorIs(t, err, kos.ErrNotFound)
	})

	t.Run("check-out date is kept", func(t *testing.T) {
		propID, roomID, tenantID := uuid.New(), uuid.New(), uuid.New()
		first := now.AddDate(0, 0, -3)
		out := dateOnly(first)
		require.NoError(t, store.WithTx(ctx, func(tx kos.Tx) error {
			if err := tx.InsertProperty(ctx, &kos.Property{ID: propID, OwnerID: ownerID, Name: "P", Status: kos.PropertyActive, CreatedAt: now, UpdatedAt: now}); err != nil {
				return err
			}
			if err := tx.InsertRoom(ctx, &kos.Room{ID: roomID, PropertyID: propID, OwnerID: ownerID, Name: "R", Price: 1, Capacity: 1, Status: kos.RoomAvailable, CreatedAt: now, UpdatedAt: now}); err != nil {
				return err
			}
			return tx.InsertTenant(ctx, &kos.Tenant{ID: tenantID, RoomID: roomID, OwnerID: ownerID, Name: "T", Phone: "1", IsActive: false, CheckInDate: dateOnly(first), CheckOutDate: &out, CreatedAt: now, UpdatedAt: now})
		}))

		later := dateOnly(now)
		require.NoError(t, store.WithTx(ctx, func(tx kos.Tx) error {
			return tx.UpdateTenant(ctx, &kos.Tenant{ID: tenantID, Name: "T2", Phone: "1", CheckOutDate: &later, UpdatedAt: now})
		}))

		var got *kos.Tenant
		require.NoError(t, store.View(ctx, func(tx kos.Tx) error {
			var err error
			got, err = tx.GetTenant(ctx, tenantID, false)
			return err
		}))
		require.NotNil(t, got.CheckOutDate)
		assert.True(t, got.CheckOutDate.Equal(out))
		assert.Equal(t, "T2", got.Name)
	})
}

func TestAuditStorage(t *testing.T) {
	ctx := context.Background()
	storage := pgstore.NewAuditStorage(pool)
	svc, owner := newService(t, storage)

	p, err := svc.CreateProperty(ctx, owner, kos.PropertyInput{Name: "Kos Dahlia"})
	require.NoError(t, err)

	events, err := storage.ListAuditEvents(ctx, pgstore.AuditFilter{OwnerID: owner.OwnerID.String()})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var found bool
	for _, e := range events {
		if e.ResourceID == p.ID.String() {
			found = true
			assert.Equal(t, owner.UserID.String(), e.ActorID)
		}
	}
	assert.True(t, found, "property creation should be audited")

	t.Run("replayed ids are ignored", func(t *testing.T) {
		e := audit.Event{ID: uuid.NewString(), Action: "test.replay", Result: audit.ResultSuccess, CreatedAt: time.Now()}
		require.NoError(t, storage.Store(ctx, e))
		require.NoError(t, storage.Store(ctx, e))
	})
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
