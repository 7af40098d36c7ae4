package kos

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/validator"
)

var (
	ErrQuotaExceeded          = errors.New("quota exceeded")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrReferentialConflict    = errors.New("referential conflict")
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrDuplicateKey           = errors.New("duplicate key")
	ErrStore                  = errors.New("store failure")
	ErrNumberGeneration       = errors.New("failed to generate document number")
	ErrProofLookup            = errors.New("failed to check payment proof")
	ErrFailedToLoadRoles      = errors.New("failed to load roles")
	ErrFailedToLoadPlans      = errors.New("failed to load plan catalog")
)

// Resources counted by quota checks.
const (
	ResourceProperties = "properties"
	ResourceRooms      = "rooms"
)

// QuotaExceededError reports a creation blocked by the owner's plan limit.
type QuotaExceededError struct {
	Resource string
	Limit    int
	Current  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Resource, e.Current, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// TransitionError reports an event that the entity's current state does not accept.
type TransitionError struct {
	Entity string
	ID     uuid.UUID
	From   string
	Event  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from %s", e.Entity, e.ID, e.Event, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// ConflictError reports an operation refused because of related rows.
type ConflictError struct {
	Entity string
	ID     uuid.UUID
	Reason string
}

func (e *ConflictError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrReferentialConflict }

// DuplicateKeyError is returned by stores when a unique key is already taken.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return "duplicate key: " + e.Key
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// Unique keys reported through DuplicateKeyError.
const (
	KeyPlanSlug          = "plan_slug"
	KeySubscriptionOwner = "subscription_owner"
	KeyBillNumber        = "bill_number"
	KeyPaymentNumber     = "payment_number"
	KeyActiveTenant      = "active_tenant"
	KeyConfirmedPayment  = "confirmed_payment"
)

// IsDuplicateKey reports whether err is a DuplicateKeyError for key.
func IsDuplicateKey(err error, key string) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup) && dup.Key == key
}

func transitionError(entity string, id uuid.UUID, from, event string) error {
	return &TransitionError{Entity: entity, ID: id, From: from, Event: event}
}

func conflictError(entity string, id uuid.UUID, reason string) error {
	return &ConflictError{Entity: entity, ID: id, Reason: reason}
}

// validationError joins ErrValidation with the field errors so both
// errors.Is(err, ErrValidation) and validator.ExtractValidationErrors work.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrValidation, err)
}

func fieldError(field, message string) error {
	return validationError(validator.ValidationErrors{{Field: field, Message: message}})
}

// storeError passes domain errors through and tags everything else as ErrStore.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrInvalidStateTransition),
		errors.Is(err, ErrReferentialConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrDuplicateKey),
		errors.Is(err, ErrNumberGeneration),
		errors.Is(err, ErrProofLookup):
		return err
	default:
		return errors.Join(ErrStore, err)
	}
}
