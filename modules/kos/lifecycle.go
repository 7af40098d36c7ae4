package kos

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/statemachine"
)

func (s RoomStatus) Name() string    { return string(s) }
func (s BillStatus) Name() string    { return string(s) }
func (s PaymentStatus) Name() string { return string(s) }

// Lifecycle events.
const (
	EventCheckIn     = "check_in"
	EventCheckOut    = "check_out"
	EventMaintenance = "maintenance"
	EventRelease     = "release"
	EventPay         = "pay"
	EventCancel      = "cancel"
	EventConfirm     = "confirm"
	EventReject      = "reject"
)

const (
	tenantActive   = statemachine.StringState("active")
	tenantInactive = statemachine.StringState("inactive")
)

// occupancy is the guard input for room transitions.
type occupancy struct {
	activeTenant bool
}

func vacant(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	o, ok := data.(occupancy)
	return ok && !o.activeTenant
}

var roomLifecycle = statemachine.MustNew(
	statemachine.WithTransition(RoomAvailable, RoomOccupied, statemachine.StringEvent(EventCheckIn),
		statemachine.WithGuard(vacant)),
	statemachine.WithTransition(RoomOccupied, RoomAvailable, statemachine.StringEvent(EventCheckOut)),
	statemachine.WithTransition(RoomAvailable, RoomMaintenance, statemachine.StringEvent(EventMaintenance),
		statemachine.WithGuard(vacant)),
	statemachine.WithTransition(RoomMaintenance, RoomAvailable, statemachine.StringEvent(EventRelease)),
)

var tenantLifecycle = statemachine.MustNew(
	statemachine.WithTransition(tenantActive, tenantInactive, statemachine.StringEvent(EventCheckOut)),
)

// Overdue is derived at read time, so the stored machine only knows unpaid.
var billLifecycle = statemachine.MustNew(
	statemachine.WithTransition(BillUnpaid, BillPaid, statemachine.StringEvent(EventPay)),
	statemachine.WithTransition(BillUnpaid, BillCancelled, statemachine.StringEvent(EventCancel)),
)

var paymentLifecycle = statemachine.MustNew(
	statemachine.WithTransition(PaymentPending, PaymentConfirmed, statemachine.StringEvent(EventConfirm)),
	statemachine.WithTransition(PaymentPending, PaymentRejected, statemachine.StringEvent(EventReject)),
)

// fire resolves event from the stored state, reporting a missing or guarded
// transition as *TransitionError.
func fire(ctx context.Context, m statemachine.Machine, entity string, id uuid.UUID, from statemachine.State, event string, data any) (string, error) {
	next, err := m.Fire(ctx, from, statemachine.StringEvent(event), data)
	if err != nil {
		var te *statemachine.TransitionError
		if errors.As(err, &te) {
			return "", transitionError(entity, id, from.Name(), event)
		}
		return "", err
	}
	return next.Name(), nil
}

// AllowedRoomEvents lists the events a room in status accepts.
func AllowedRoomEvents(status RoomStatus) []string {
	return roomLifecycle.Events(status)
}
