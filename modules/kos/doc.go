// Package kos implements the tenancy and billing core of a boarding-house
// management service: the subscription plan registry, quota enforcement,
// room occupancy, bill lifecycle and payment review.
//
// The package owns no storage. A Store opens transactions and every
// multi-row change runs inside one Store.WithTx call, so a failure leaves no
// partial state behind. memstore and pgstore provide implementations.
//
// # Acting identity
//
// Operations take an Actor describing who is acting and for which owner.
// Permissions are resolved through pkg/rbac using DefaultRoles unless
// WithAuthorizer supplies another authorizer. Rows of other owners read as
// ErrNotFound.
//
// # Lifecycles
//
// Rooms move between available, occupied and maintenance:
//
//	available --check_in-->    occupied
//	occupied  --check_out-->   available
//	available --maintenance--> maintenance
//	maintenance --release-->   available
//
// Bills are stored as unpaid, paid or cancelled. Overdue is derived from the
// due date whenever a bill is read and is never written back.
// Payments move from pending to confirmed or rejected; confirming a payment
// marks its bill paid in the same transaction, and a bill accepts at most
// one confirmed payment.
//
// # Errors
//
// Failures match one of ErrQuotaExceeded, ErrInvalidStateTransition,
// ErrReferentialConflict, ErrValidation, ErrNotFound and ErrForbidden with
// errors.Is. The typed errors QuotaExceededError, TransitionError and
// ConflictError carry the details callers need to render guidance, and field
// errors are available through validator.ExtractValidationErrors.
package kos
