package kos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

type PropertyInput struct {
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Status  PropertyStatus `json:"status"`
}

var propertyStatuses = []PropertyStatus{PropertyDraft, PropertyActive, PropertyInactive}

func (in PropertyInput) validate() error {
	return validationError(validator.Apply(
		validator.RequiredString("name", in.Name),
		validator.MaxLenString("name", in.Name, 255),
		validator.MaxLenString("address", in.Address, 1000),
		validator.When(in.Status != "", validator.InList("status", in.Status, propertyStatuses)),
	))
}

type RoomInput struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Capacity int    `json:"capacity"`
}

func (in RoomInput) validate() error {
	return validationError(validator.Apply(
		validator.RequiredString("name", in.Name),
		validator.MaxLenString("name", in.Name, 100),
		validator.NonNegative("price", in.Price),
		validator.Positive("capacity", in.Capacity),
	))
}

// CreateProperty re-runs the property quota check under the owner's
// subscription lock and inserts in the same transaction.
func (s *service) CreateProperty(ctx context.Context, a Actor, in PropertyInput) (*Property, error) {
	if err := s.authorizeOwned(a, PermPropertiesCreate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p *Property
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := s.checkQuota(ctx, tx, a.OwnerID, ResourceProperties, true); err != nil {
			return err
		}
		now := s.now().UTC()
		p = &Property{
			ID:        uuid.New(),
			OwnerID:   a.OwnerID,
			Name:      strings.TrimSpace(in.Name),
			Address:   strings.TrimSpace(in.Address),
			Status:    in.Status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if p.Status == "" {
			p.Status = PropertyDraft
		}
		return tx.InsertProperty(ctx, p)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "property created", logger.OwnerID(a.OwnerID), logger.PropertyID(p.ID))
	s.record(ctx, a, "property.created", "property", p.ID)
	return p, nil
}

func (s *service) GetProperty(ctx context.Context, a Actor, id uuid.UUID) (*Property, error) {
	if err := s.authorizeOwned(a, PermPropertiesRead); err != nil {
		return nil, err
	}
	var p *Property
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		p, err = s.ownedProperty(ctx, tx, a, id)
		return err
	})
	return p, storeError(err)
}

func (s *service) ListProperties(ctx context.Context, a Actor) ([]Property, error) {
	if err := s.authorizeOwned(a, PermPropertiesRead); err != nil {
		return nil, err
	}
	var list []Property
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		list, err = tx.ListProperties(ctx, a.OwnerID)
		return err
	})
	return list, storeError(err)
}

func (s *service) UpdatePropertyStatus(ctx context.Context, a Actor, id uuid.UUID, status PropertyStatus) (*Property, error) {
	if err := s.authorizeOwned(a, PermPropertiesUpdate); err != nil {
		return nil, err
	}
	if err := validationError(validator.Apply(validator.InList("status", status, propertyStatuses))); err != nil {
		return nil, err
	}

	var (
		p    *Property
		from PropertyStatus
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		if p, err = s.ownedProperty(ctx, tx, a, id); err != nil {
			return err
		}
		from = p.Status
		if from == status {
			return nil
		}
		p.Status = status
		p.UpdatedAt = s.now().UTC()
		return tx.UpdateProperty(ctx, p)
	})
	if err != nil {
		return nil, storeError(err)
	}

	if from != status {
		s.log.InfoContext(ctx, "property status changed",
			logger.PropertyID(id),
			logger.Transition(string(from), string(status)),
		)
		s.record(ctx, a, "property.status_changed", "property", id,
			audit.WithMetadata("from", from), audit.WithMetadata("to", status))
	}
	return p, nil
}

// DeleteProperty locks every room of the property and refuses while any of
// them is occupied or still has an active tenant.
func (s *service) DeleteProperty(ctx context.Context, a Actor, id uuid.UUID) error {
	if err := s.authorizeOwned(a, PermPropertiesDelete); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := s.ownedProperty(ctx, tx, a, id); err != nil {
			return err
		}
		rooms, err := tx.LockRooms(ctx, id)
		if err != nil {
			return err
		}
		for _, r := range rooms {
			if r.Status == RoomOccupied {
				return conflictError("property", id, "room "+r.Name+" is occupied")
			}
			if err := ensureNoActiveTenant(ctx, tx, r); err != nil {
				if errors.Is(err, ErrReferentialConflict) {
					return conflictError("property", id, "room "+r.Name+" has an active tenant")
				}
				return err
			}
		}
		return tx.DeleteProperty(ctx, id)
	})
	if err != nil {
		return storeError(err)
	}

	s.log.InfoContext(ctx, "property deleted", logger.OwnerID(a.OwnerID), logger.PropertyID(id))
	s.record(ctx, a, "property.deleted", "property", id)
	return nil
}

// CreateRoom checks the room quota under the subscription lock. Rooms start available.
func (s *service) CreateRoom(ctx context.Context, a Actor, propertyID uuid.UUID, in RoomInput) (*Room, error) {
	if err := s.authorizeOwned(a, PermRoomsCreate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var r *Room
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := s.ownedProperty(ctx, tx, a, propertyID); err != nil {
			return err
		}
		if err := s.checkQuota(ctx, tx, a.OwnerID, ResourceRooms, true); err != nil {
			return err
		}
		now := s.now().UTC()
		r = &Room{
			ID:         uuid.New(),
			PropertyID: propertyID,
			OwnerID:    a.OwnerID,
			Name:       strings.TrimSpace(in.Name),
			Price:      in.Price,
			Capacity:   in.Capacity,
			Status:     RoomAvailable,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.InsertRoom(ctx, r)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "room created", logger.PropertyID(propertyID), logger.RoomID(r.ID))
	s.record(ctx, a, "room.created", "room", r.ID, audit.WithMetadata("property_id", propertyID.String()))
	return r, nil
}

func (s *service) GetRoom(ctx context.Context, a Actor, id uuid.UUID) (*Room, error) {
	if err := s.authorizeOwned(a, PermRoomsRead); err != nil {
		return nil, err
	}
	var r *Room
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		r, err = s.ownedRoom(ctx, tx, a, id, false)
		return err
	})
	return r, storeError(err)
}

func (s *service) ListRooms(ctx context.Context, a Actor, propertyID uuid.UUID) ([]Room, error) {
	if err := s.authorizeOwned(a, PermRoomsRead); err != nil {
		return nil, err
	}
	var list []Room
	err := s.store.View(ctx, func(tx Tx) error {
		if _, err := s.ownedProperty(ctx, tx, a, propertyID); err != nil {
			return err
		}
		var err error
		list, err = tx.ListRooms(ctx, propertyID)
		return err
	})
	return list, storeError(err)
}

// DeleteRoom is refused while the room has an active tenant; check the
// tenant out first.
func (s *service) DeleteRoom(ctx context.Context, a Actor, id uuid.UUID) error {
	if err := s.authorizeOwned(a, PermRoomsDelete); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		r, err := s.ownedRoom(ctx, tx, a, id, true)
		if err != nil {
			return err
		}
		if r.Status == RoomOccupied {
			return conflictError("room", id, "room is occupied")
		}
		if err := ensureNoActiveTenant(ctx, tx, *r); err != nil {
			return err
		}
		return tx.DeleteRoom(ctx, id)
	})
	if err != nil {
		return storeError(err)
	}

	s.log.InfoContext(ctx, "room deleted", logger.RoomID(id))
	s.record(ctx, a, "room.deleted", "room", id)
	return nil
}

func ensureNoActiveTenant(ctx context.Context, tx Tx, r Room) error {
	t, err := tx.GetActiveTenant(ctx, r.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	return conflictError("room", r.ID, "tenant "+t.ID.String()+" is still checked in")
}

func (s *service) ownedProperty(ctx context.Context, tx Tx, a Actor, id uuid.UUID) (*Property, error) {
	p, err := tx.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := owned(a, p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ownedRoom(ctx context.Context, tx Tx, a Actor, id uuid.UUID, forUpdate bool) (*Room, error) {
	r, err := tx.GetRoom(ctx, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if err := owned(a, r.OwnerID); err != nil {
		return nil, err
	}
	return r, nil
}
