package kos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

type TenantInput struct {
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	CheckInDate *time.Time `json:"check_in_date"`
}

func (in TenantInput) validate() error {
	return validationError(validator.Apply(
		validator.RequiredString("name", in.Name),
		validator.MaxLenString("name", in.Name, 255),
		validator.RequiredString("phone", in.Phone),
		validator.MaxLenString("phone", in.Phone, 32),
		validator.MaxLenString("email", in.Email, 255),
		validator.When(in.CheckInDate != nil, validator.RequiredTime("check_in_date", derefTime(in.CheckInDate))),
	))
}

// RoomResult reports the room after an administrative status change;
// Changed is false when the room already had the requested status.
type RoomResult struct {
	Room    *Room `json:"room"`
	Changed bool  `json:"changed"`
}

// CheckIn registers a tenant in an available room and marks it occupied.
func (s *service) CheckIn(ctx context.Context, a Actor, roomID uuid.UUID, in TenantInput) (*Tenant, error) {
	if err := s.authorizeOwned(a, PermTenantsCheckIn); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var t *Tenant
	err := s.store.WithTx(ctx, func(tx Tx) error {
		room, err := s.ownedRoom(ctx, tx, a, roomID, true)
		if err != nil {
			return err
		}
		active, err := hasActiveTenant(ctx, tx, roomID)
		if err != nil {
			return err
		}
		next, err := fire(ctx, roomLifecycle, "room", roomID, room.Status, EventCheckIn, occupancy{activeTenant: active})
		if err != nil {
			return err
		}

		now := s.now().UTC()
		checkIn := dateOf(now)
		if in.CheckInDate != nil {
			checkIn = dateOf(*in.CheckInDate)
		}
		t = &Tenant{
			ID:          uuid.New(),
			RoomID:      roomID,
			OwnerID:     room.OwnerID,
			Name:        strings.TrimSpace(in.Name),
			Phone:       strings.TrimSpace(in.Phone),
			Email:       strings.TrimSpace(in.Email),
			IsActive:    true,
			CheckInDate: checkIn,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertTenant(ctx, t); err != nil {
			if IsDuplicateKey(err, KeyActiveTenant) {
				return transitionError("room", roomID, string(room.Status), EventCheckIn)
			}
			return err
		}

		room.Status = RoomStatus(next)
		room.UpdatedAt = now
		return tx.UpdateRoom(ctx, room)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "tenant checked in",
		logger.RoomID(roomID),
		logger.TenantID(t.ID),
		logger.Transition(string(RoomAvailable), string(RoomOccupied)),
	)
	s.record(ctx, a, "tenant.checked_in", "tenant", t.ID, audit.WithMetadata("room_id", roomID.String()))
	return t, nil
}

// CheckOut ends an active stay and frees the room. The check-out date is set
// once and never changes afterwards.
func (s *service) CheckOut(ctx context.Context, a Actor, tenantID uuid.UUID) (*Tenant, error) {
	if err := s.authorizeOwned(a, PermTenantsCheckOut); err != nil {
		return nil, err
	}

	var t *Tenant
	err := s.store.WithTx(ctx, func(tx Tx) error {
		// Rooms are locked before tenants everywhere.
		probe, err := s.ownedTenant(ctx, tx, a, tenantID, false)
		if err != nil {
			return err
		}
		room, err := tx.GetRoom(ctx, probe.RoomID, true)
		if err != nil {
			return err
		}
		if t, err = tx.GetTenant(ctx, tenantID, true); err != nil {
			return err
		}

		from := tenantInactive
		if t.IsActive {
			from = tenantActive
		}
		if _, err := fire(ctx, tenantLifecycle, "tenant", tenantID, from, EventCheckOut, nil); err != nil {
			return err
		}
		next, err := fire(ctx, roomLifecycle, "room", room.ID, room.Status, EventCheckOut, nil)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		checkOut := dateOf(now)
		t.IsActive = false
		t.CheckOutDate = &checkOut
		t.UpdatedAt = now
		if err := tx.UpdateTenant(ctx, t); err != nil {
			return err
		}

		room.Status = RoomStatus(next)
		room.UpdatedAt = now
		return tx.UpdateRoom(ctx, room)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "tenant checked out",
		logger.RoomID(t.RoomID),
		logger.TenantID(t.ID),
		logger.Transition(string(RoomOccupied), string(RoomAvailable)),
	)
	s.record(ctx, a, "tenant.checked_out", "tenant", t.ID, audit.WithMetadata("room_id", t.RoomID.String()))
	return t, nil
}

// SetMaintenance takes an available room out of service. Rooms that are
// occupied or still have an active tenant are refused.
func (s *service) SetMaintenance(ctx context.Context, a Actor, roomID uuid.UUID) (*RoomResult, error) {
	return s.setRoomStatus(ctx, a, roomID, RoomMaintenance, EventMaintenance)
}

// SetAvailable returns a room from maintenance.
func (s *service) SetAvailable(ctx context.Context, a Actor, roomID uuid.UUID) (*RoomResult, error) {
	return s.setRoomStatus(ctx, a, roomID, RoomAvailable, EventRelease)
}

func (s *service) setRoomStatus(ctx context.Context, a Actor, roomID uuid.UUID, target RoomStatus, event string) (*RoomResult, error) {
	if err := s.authorizeOwned(a, PermRoomsStatus); err != nil {
		return nil, err
	}

	res := &RoomResult{}
	var from RoomStatus
	err := s.store.WithTx(ctx, func(tx Tx) error {
		room, err := s.ownedRoom(ctx, tx, a, roomID, true)
		if err != nil {
			return err
		}
		res.Room = room
		res.Changed = false
		from = room.Status
		if room.Status == target {
			return nil
		}

		active, err := hasActiveTenant(ctx, tx, roomID)
		if err != nil {
			return err
		}
		next, err := fire(ctx, roomLifecycle, "room", roomID, room.Status, event, occupancy{activeTenant: active})
		if err != nil {
			return err
		}
		room.Status = RoomStatus(next)
		room.UpdatedAt = s.now().UTC()
		res.Changed = true
		return tx.UpdateRoom(ctx, room)
	})
	if err != nil {
		return nil, storeError(err)
	}

	if res.Changed {
		s.log.InfoContext(ctx, "room status changed",
			logger.RoomID(roomID),
			logger.Transition(string(from), string(target)),
		)
		s.record(ctx, a, "room.status_changed", "room", roomID,
			audit.WithMetadata("from", from), audit.WithMetadata("to", target))
	}
	return res, nil
}

func (s *service) GetTenant(ctx context.Context, a Actor, id uuid.UUID) (*Tenant, error) {
	if err := s.authorizeOwned(a, PermTenantsRead); err != nil {
		return nil, err
	}
	var t *Tenant
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		t, err = s.ownedTenant(ctx, tx, a, id, false)
		return err
	})
	return t, storeError(err)
}

func (s *service) ListTenants(ctx context.Context, a Actor, roomID uuid.UUID) ([]Tenant, error) {
	if err := s.authorizeOwned(a, PermTenantsRead); err != nil {
		return nil, err
	}
	var list []Tenant
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := s.ownedRoom(ctx, tx, a, roomID, false); err != nil {
			return err
		}
		var err error
		list, err = tx.ListTenants(ctx, roomID)
		return err
	})
	return list, storeError(err)
}

func (s *service) ownedTenant(ctx context.Context, tx Tx, a Actor, id uuid.UUID, forUpdate bool) (*Tenant, error) {
	t, err := tx.GetTenant(ctx, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if err := owned(a, t.OwnerID); err != nil {
		return nil, err
	}
	return t, nil
}

func hasActiveTenant(ctx context.Context, tx Tx, roomID uuid.UUID) (bool, error) {
	_, err := tx.GetActiveTenant(ctx, roomID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
