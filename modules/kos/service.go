package kos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/file"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/rbac"
	"github.com/dmitrymomot/koskit/pkg/sequence"
)

// Service is the tenancy and billing core. Every method takes the acting
// identity explicitly; rows owned by another owner read as ErrNotFound.
type Service interface {
	// Plan registry
	ListPlans(ctx context.Context, a Actor, activeOnly bool) ([]Plan, error)
	GetPlan(ctx context.Context, a Actor, slug string) (*Plan, error)
	CreatePlan(ctx context.Context, a Actor, in PlanInput) (*Plan, error)
	UpdatePlan(ctx context.Context, a Actor, slug string, in PlanInput) (*Plan, error)
	DeletePlan(ctx context.Context, a Actor, slug string) error
	ReapplyPlan(ctx context.Context, a Actor, slug string) (int, error)
	SeedPlans(ctx context.Context, plans []Plan) (int, error)

	// Subscriptions
	GetOrCreateSubscription(ctx context.Context, a Actor) (*Subscription, error)
	ChangeSubscription(ctx context.Context, a Actor, ownerID uuid.UUID, planSlug string, endDate *time.Time) (*Subscription, error)
	CancelSubscription(ctx context.Context, a Actor, ownerID uuid.UUID) (*Subscription, error)
	Usage(ctx context.Context, a Actor) (*Usage, error)

	// Quota
	CanCreateProperty(ctx context.Context, a Actor) error
	CanCreateRoom(ctx context.Context, a Actor) error

	// Properties and rooms
	CreateProperty(ctx context.Context, a Actor, in PropertyInput) (*Property, error)
	GetProperty(ctx context.Context, a Actor, id uuid.UUID) (*Property, error)
	ListProperties(ctx context.Context, a Actor) ([]Property, error)
	UpdatePropertyStatus(ctx context.Context, a Actor, id uuid.UUID, status PropertyStatus) (*Property, error)
	DeleteProperty(ctx context.Context, a Actor, id uuid.UUID) error
	CreateRoom(ctx context.Context, a Actor, propertyID uuid.UUID, in RoomInput) (*Room, error)
	GetRoom(ctx context.Context, a Actor, id uuid.UUID) (*Room, error)
	ListRooms(ctx context.Context, a Actor, propertyID uuid.UUID) ([]Room, error)
	DeleteRoom(ctx context.Context, a Actor, id uuid.UUID) error

	// Occupancy
	CheckIn(ctx context.Context, a Actor, roomID uuid.UUID, in TenantInput) (*Tenant, error)
	CheckOut(ctx context.Context, a Actor, tenantID uuid.UUID) (*Tenant, error)
	SetMaintenance(ctx context.Context, a Actor, roomID uuid.UUID) (*RoomResult, error)
	SetAvailable(ctx context.Context, a Actor, roomID uuid.UUID) (*RoomResult, error)
	GetTenant(ctx context.Context, a Actor, id uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context, a Actor, roomID uuid.UUID) ([]Tenant, error)

	// Bills
	CreateBill(ctx context.Context, a Actor, tenantID uuid.UUID, in BillInput) (*Bill, error)
	GetBill(ctx context.Context, a Actor, id uuid.UUID) (*Bill, error)
	ListBills(ctx context.Context, a Actor, tenantID uuid.UUID) ([]Bill, error)
	CancelBill(ctx context.Context, a Actor, id uuid.UUID) (*BillResult, error)
	MarkPaid(ctx context.Context, a Actor, id uuid.UUID) (*BillResult, error)
	DeleteBill(ctx context.Context, a Actor, id uuid.UUID) error
	Invoice(ctx context.Context, a Actor, id uuid.UUID) (*Invoice, error)

	// Payments
	SubmitPayment(ctx context.Context, a Actor, billID uuid.UUID, in PaymentInput) (*Payment, error)
	ConfirmPayment(ctx context.Context, a Actor, paymentID uuid.UUID) (*ConfirmResult, error)
	RejectPayment(ctx context.Context, a Actor, paymentID uuid.UUID, notes string) (*Payment, error)
	GetPayment(ctx context.Context, a Actor, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, a Actor, billID uuid.UUID) ([]Payment, error)
}

type service struct {
	store   Store
	cfg     Config
	authz   rbac.Authorizer
	numbers sequence.Generator
	audit   audit.Logger
	files   file.Storage
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a Service backed by store.
// Panics if store is nil; the remaining dependencies have working defaults.
func NewService(ctx context.Context, store Store, opts ...ServiceOption) (Service, error) {
	if store == nil {
		panic("kos: Store is required")
	}

	s := &service{
		store:   store,
		cfg:     DefaultConfig(),
		numbers: sequence.NewMemoryGenerator(),
		audit:   audit.NopLogger(),
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.authz == nil {
		authz, err := NewDefaultAuthorizer(ctx)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadRoles, err)
		}
		s.authz = authz
	}
	for _, role := range []string{RoleOwner, RoleOperator} {
		if err := s.authz.VerifyRole(role); err != nil {
			return nil, errors.Join(ErrFailedToLoadRoles, fmt.Errorf("role %q: %w", role, err))
		}
	}

	return s, nil
}

func (s *service) today() time.Time {
	return dateOf(s.now())
}

// record writes an audit event for a committed change. Audit failures are
// logged and never fail the operation that already committed.
func (s *service) record(ctx context.Context, a Actor, action, resource string, id uuid.UUID, meta ...audit.EventOption) {
	opts := append([]audit.EventOption{
		audit.WithActor(a.OwnerID.String(), a.UserID.String(), a.Role),
		audit.WithResource(resource, id.String()),
	}, meta...)
	if err := s.audit.Log(ctx, action, opts...); err != nil {
		s.log.ErrorContext(ctx, "failed to write audit event",
			slog.String("action", action),
			logger.Error(err),
		)
	}
}

// owned hides rows of other owners behind ErrNotFound.
func owned(a Actor, ownerID uuid.UUID) error {
	if ownerID != a.OwnerID {
		return ErrNotFound
	}
	return nil
}
