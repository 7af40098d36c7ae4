package kos

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/logger"
)

// CanCreateProperty reports whether the actor's owner may add a property.
// A denial is a *QuotaExceededError carrying the limit and current count.
func (s *service) CanCreateProperty(ctx context.Context, a Actor) error {
	if err := s.authorizeOwned(a, PermPropertiesCreate); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		return s.checkQuota(ctx, tx, a.OwnerID, ResourceProperties, false)
	})
	return storeError(err)
}

// CanCreateRoom reports whether the actor's owner may add a room.
func (s *service) CanCreateRoom(ctx context.Context, a Actor) error {
	if err := s.authorizeOwned(a, PermRoomsCreate); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		return s.checkQuota(ctx, tx, a.OwnerID, ResourceRooms, false)
	})
	return storeError(err)
}

// checkQuota counts live resources against the owner's effective limit.
// With lock set the subscription row stays locked until the transaction
// ends, which serializes concurrent creations for the same owner.
func (s *service) checkQuota(ctx context.Context, tx Tx, ownerID uuid.UUID, resource string, lock bool) error {
	sub, _, err := s.ensureSubscription(ctx, tx, ownerID, lock)
	if err != nil {
		return err
	}
	lim, err := s.effectiveLimits(ctx, tx, sub)
	if err != nil {
		return err
	}

	var limit, current int
	switch resource {
	case ResourceProperties:
		limit = lim.maxProperties
		current, err = tx.CountProperties(ctx, ownerID)
	case ResourceRooms:
		limit = lim.maxRooms
		current, err = tx.CountRooms(ctx, ownerID)
	default:
		return fmt.Errorf("unknown quota resource %q", resource)
	}
	if err != nil {
		return err
	}

	if limit == Unlimited || current < limit {
		return nil
	}

	s.log.InfoContext(ctx, "quota exceeded",
		logger.OwnerID(ownerID),
		logger.Quota(resource, int64(current), int64(limit)),
	)
	return &QuotaExceededError{Resource: resource, Limit: limit, Current: current}
}
