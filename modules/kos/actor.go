package kos

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/rbac"
)

// Roles known to the service.
const (
	RoleOwner    = "owner"
	RoleOperator = "operator"
)

// Permissions checked by service operations.
const (
	PermPlansRead           = "plans.read"
	PermPlansManage         = "plans.manage"
	PermSubscriptionsRead   = "subscriptions.read"
	PermSubscriptionsManage = "subscriptions.manage"
	PermPropertiesRead      = "properties.read"
	PermPropertiesCreate    = "properties.create"
	PermPropertiesUpdate    = "properties.update"
	PermPropertiesDelete    = "properties.delete"
	PermRoomsRead           = "rooms.read"
	PermRoomsCreate         = "rooms.create"
	PermRoomsDelete         = "rooms.delete"
	PermRoomsStatus         = "rooms.status"
	PermTenantsRead         = "tenants.read"
	PermTenantsCheckIn      = "tenants.check_in"
	PermTenantsCheckOut     = "tenants.check_out"
	PermBillsRead           = "bills.read"
	PermBillsCreate         = "bills.create"
	PermBillsCancel         = "bills.cancel"
	PermBillsMarkPaid       = "bills.mark_paid"
	PermBillsDelete         = "bills.delete"
	PermPaymentsRead        = "payments.read"
	PermPaymentsSubmit      = "payments.submit"
	PermPaymentsReview      = "payments.review"
)

// DefaultRoles grants owners everything inside their own account and lets
// operators additionally manage plans, subscriptions and payment review.
var DefaultRoles = rbac.StaticSource{
	RoleOwner: {
		Permissions: []string{
			PermPlansRead,
			PermSubscriptionsRead,
			"properties.*",
			"rooms.*",
			"tenants.*",
			"bills.*",
			PermPaymentsRead,
			PermPaymentsSubmit,
		},
	},
	RoleOperator: {
		Inherits:    []string{RoleOwner},
		Permissions: []string{PermPlansManage, PermSubscriptionsManage, PermPaymentsReview},
	},
}

// Actor is the identity an operation runs as. OwnerID scopes every read and
// write; operators act on an owner's data by setting it to that owner.
type Actor struct {
	UserID  uuid.UUID `json:"user_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Role    string    `json:"role"`
}

// NewDefaultAuthorizer builds an authorizer from DefaultRoles.
func NewDefaultAuthorizer(ctx context.Context) (rbac.Authorizer, error) {
	return rbac.NewAuthorizer(ctx, DefaultRoles)
}

func (s *service) authorize(a Actor, permission string) error {
	if a.UserID == uuid.Nil {
		return errors.Join(ErrForbidden, errors.New("actor has no user id"))
	}
	if err := s.authz.Can(a.Role, permission); err != nil {
		return errors.Join(ErrForbidden, err)
	}
	return nil
}

// authorizeOwned additionally requires the actor to be scoped to an owner.
// An owner is always scoped to their own account.
func (s *service) authorizeOwned(a Actor, permission string) error {
	if err := s.authorize(a, permission); err != nil {
		return err
	}
	if a.OwnerID == uuid.Nil {
		return errors.Join(ErrForbidden, errors.New("actor is not scoped to an owner"))
	}
	// Owners only ever act on their own account; acting for another owner is an operator capability.
	if a.Role == RoleOwner && a.OwnerID != a.UserID {
		return errors.Join(ErrForbidden, errors.New("owner cannot act on another account"))
	}
	return nil
}
